package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/identity"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/observability"
)

const (
	ViewUpcoming = "upcoming"
	ViewPast     = "past"

	dateTimeLayout = "2006-01-02 15:04"
	overviewLimit  = 100
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Config struct {
	DurationsMinutes    []int
	EnforceAvailability bool
}

type BookRequest struct {
	Date            string // YYYY-MM-DD in the therapist's timezone
	Time            string // HH:MM
	DurationMinutes int
}

type ListRequest struct {
	Status  *string
	View    string
	Page    int
	PerPage int
}

// Overview is the dashboard split of a user's appointments.
type Overview struct {
	Upcoming []domain.Appointment `json:"upcoming"`
	Past     []domain.Appointment `json:"past"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	CurrentAssignment(ctx context.Context, clientID uuid.UUID) (*domain.Assignment, error)
	BookAppointment(ctx context.Context, in store.NewAppointment) (*domain.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	ListAppointments(ctx context.Context, f store.AppointmentFilter) ([]domain.Appointment, error)
	TransitionAppointment(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus) (*domain.Appointment, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	Book(ctx context.Context, clientID uuid.UUID, req BookRequest) (*domain.Appointment, error)
	Transition(ctx context.Context, actorID, apptID uuid.UUID, to string) (*domain.Appointment, error)
	Get(ctx context.Context, viewerID, apptID uuid.UUID) (*domain.Appointment, error)
	List(ctx context.Context, viewer identity.Identity, req ListRequest) ([]domain.Appointment, error)
	Overview(ctx context.Context, viewer identity.Identity) (*Overview, error)
	MarkPaid(ctx context.Context, apptID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store Store
	bus   events.Publisher
	cfg   Config
	now   func() time.Time
}

func New(st Store, bus events.Publisher, cfg Config) Service {
	if len(cfg.DurationsMinutes) == 0 {
		cfg.DurationsMinutes = []int{30, 60, 90}
	}
	return &appointmentService{store: st, bus: bus, cfg: cfg, now: time.Now}
}

// ---------------------------------------------------------------------------
// Book
// ---------------------------------------------------------------------------

func (s *appointmentService) Book(ctx context.Context, clientID uuid.UUID, req BookRequest) (*domain.Appointment, error) {
	if !domain.ValidDuration(req.DurationMinutes, s.cfg.DurationsMinutes) {
		observability.RecordBooking(ctx, "rejected")
		return nil, ErrInvalidDuration
	}

	assigned, err := s.store.CurrentAssignment(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			observability.RecordBooking(ctx, "rejected")
			return nil, ErrNoTherapist
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}

	therapist, err := s.store.GetProfile(ctx, assigned.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	loc := therapist.Location()

	start, err := time.ParseInLocation(dateTimeLayout,
		strings.TrimSpace(req.Date)+" "+strings.TrimSpace(req.Time), loc)
	if err != nil {
		observability.RecordBooking(ctx, "rejected")
		return nil, ErrInvalidDateTime
	}
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	if !start.After(s.now()) {
		observability.RecordBooking(ctx, "rejected")
		return nil, ErrInPast
	}
	if s.cfg.EnforceAvailability && !therapist.WeeklyRules().Covers(start, end, loc) {
		observability.RecordBooking(ctx, "rejected")
		return nil, ErrOutsideAvailability
	}

	appt, err := s.store.BookAppointment(ctx, store.NewAppointment{
		ClientID:    clientID,
		TherapistID: therapist.ID,
		Start:       start,
		End:         end,
	})
	if err != nil {
		if errors.Is(err, store.ErrOverlap) {
			observability.RecordBooking(ctx, "conflict")
			return nil, ErrConflict
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoTherapist
		}
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	observability.RecordBooking(ctx, "created")

	s.publish(ctx, events.AppointmentCreated(appt.TherapistID), *appt)
	return appt, nil
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func (s *appointmentService) Transition(ctx context.Context, actorID, apptID uuid.UUID, to string) (*domain.Appointment, error) {
	target, err := domain.ParseAppointmentStatus(strings.ToLower(strings.TrimSpace(to)))
	if err != nil {
		return nil, ErrInvalidStatus
	}

	appt, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}

	party := appt.PartyOf(actorID)
	if party == domain.PartyNone {
		observability.RecordTransition(ctx, string(target), "not_participant")
		return nil, ErrNotParticipant
	}
	if !domain.CanTransition(appt.Status, target) {
		observability.RecordTransition(ctx, string(target), "invalid")
		return nil, ErrInvalidTransition
	}
	if !party.MayMoveTo(target) {
		observability.RecordTransition(ctx, string(target), "forbidden")
		return nil, ErrForbiddenTransition
	}

	updated, err := s.store.TransitionAppointment(ctx, appt.ID, appt.Status, target)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// status changed underneath us
			observability.RecordTransition(ctx, string(target), "invalid")
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("transition appointment: %w", err)
	}
	observability.RecordTransition(ctx, string(target), "applied")

	s.publish(ctx, events.AppointmentStatus(target, updated.ID), *updated)
	return updated, nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (s *appointmentService) Get(ctx context.Context, viewerID, apptID uuid.UUID) (*domain.Appointment, error) {
	appt, err := s.load(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.PartyOf(viewerID) == domain.PartyNone {
		return nil, ErrNotParticipant
	}
	return appt, nil
}

func (s *appointmentService) List(ctx context.Context, viewer identity.Identity, req ListRequest) ([]domain.Appointment, error) {
	f, err := filterFor(viewer)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && *req.Status != "" {
		st, err := domain.ParseAppointmentStatus(strings.ToLower(*req.Status))
		if err != nil {
			return nil, ErrInvalidStatus
		}
		f.Status = &st
	}
	switch req.View {
	case "":
	case ViewUpcoming:
		f.View, f.Now = store.ViewUpcoming, s.now()
	case ViewPast:
		f.View, f.Now = store.ViewPast, s.now()
	default:
		return nil, ErrInvalidView
	}
	f.Page = store.Page{Page: req.Page, PerPage: req.PerPage}

	list, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if list == nil {
		list = []domain.Appointment{}
	}
	return list, nil
}

// Overview returns the next overviewLimit upcoming appointments and the most
// recent overviewLimit past ones. Each side is its own query so a long
// history never crowds out future bookings.
func (s *appointmentService) Overview(ctx context.Context, viewer identity.Identity) (*Overview, error) {
	f, err := filterFor(viewer)
	if err != nil {
		return nil, err
	}
	f.Now = s.now()
	f.Page = store.Page{Page: 1, PerPage: overviewLimit}

	f.View = store.ViewUpcoming
	upcoming, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list upcoming appointments: %w", err)
	}
	f.View = store.ViewPast
	past, err := s.store.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list past appointments: %w", err)
	}
	if upcoming == nil {
		upcoming = []domain.Appointment{}
	}
	if past == nil {
		past = []domain.Appointment{}
	}
	return &Overview{Upcoming: upcoming, Past: past}, nil
}

func (s *appointmentService) MarkPaid(ctx context.Context, apptID uuid.UUID) error {
	if err := s.store.MarkPaid(ctx, apptID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("mark paid: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *appointmentService) load(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func filterFor(viewer identity.Identity) (store.AppointmentFilter, error) {
	id := viewer.UserID()
	switch viewer.Role() {
	case identity.RoleTherapist:
		return store.AppointmentFilter{TherapistID: &id}, nil
	case identity.RoleClient:
		return store.AppointmentFilter{ClientID: &id}, nil
	default:
		return store.AppointmentFilter{}, ErrRoleRequired
	}
}

func (s *appointmentService) publish(ctx context.Context, subject string, appt domain.Appointment) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, subject, events.NewAppointmentEvent(appt)); err != nil {
		slog.WarnContext(ctx, "failed to publish appointment event",
			"subject", subject, "appointment_id", appt.ID, "error", err)
	}
}
