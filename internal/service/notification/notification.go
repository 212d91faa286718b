package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/pkg/email"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
}

// Texter sends transactional SMS. *sms.Client satisfies it.
type Texter interface {
	SendAppointmentStatus(ctx context.Context, phoneNumber, status, when string) error
}

type Config struct {
	SupportInbox string
	DashboardURL string
}

// Service turns domain events into outbound email and SMS.
type Service interface {
	// Handle routes one bus delivery to its handler.
	Handle(ctx context.Context, subject string, data []byte) error
	AppointmentCreated(ctx context.Context, ev events.AppointmentEvent) error
	AppointmentStatusChanged(ctx context.Context, ev events.AppointmentEvent) error
	ContactSubmitted(ctx context.Context, ev events.ContactEvent) error
}

// Patterns lists the subjects Handle understands.
var Patterns = []string{
	events.PatternAppointmentCreated,
	events.PatternAppointmentConfirmed,
	events.PatternAppointmentCancelled,
	events.PatternMessageNew,
	events.SubjectContactSubmitted,
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	store  Store
	mailer email.Sender
	sms    Texter
	cfg    Config
}

func New(st Store, mailer email.Sender, sms Texter, cfg Config) Service {
	return &notificationService{store: st, mailer: mailer, sms: sms, cfg: cfg}
}

func (s *notificationService) Handle(ctx context.Context, subject string, data []byte) error {
	switch {
	case events.Matches(events.PatternAppointmentCreated, subject):
		var ev events.AppointmentEvent
		if err := decode(data, &ev); err != nil {
			return err
		}
		return s.AppointmentCreated(ctx, ev)

	case events.Matches(events.PatternAppointmentConfirmed, subject),
		events.Matches(events.PatternAppointmentCancelled, subject):
		var ev events.AppointmentEvent
		if err := decode(data, &ev); err != nil {
			return err
		}
		return s.AppointmentStatusChanged(ctx, ev)

	case events.Matches(events.PatternMessageNew, subject):
		// in-app only
		slog.DebugContext(ctx, "notification: new message", "receiver_id", events.LastToken(subject))
		return nil

	case subject == events.SubjectContactSubmitted:
		var ev events.ContactEvent
		if err := decode(data, &ev); err != nil {
			return err
		}
		return s.ContactSubmitted(ctx, ev)
	}
	return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
}

func (s *notificationService) AppointmentCreated(ctx context.Context, ev events.AppointmentEvent) error {
	therapist, err := s.store.GetProfile(ctx, ev.TherapistID)
	if err != nil {
		return fmt.Errorf("get therapist: %w", err)
	}
	client, err := s.store.GetProfile(ctx, ev.ClientID)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}

	loc := therapist.Location()
	return s.send(ctx, email.BuildBookingRequestEmail(email.BookingRequestData{
		TherapistEmail: therapist.Email,
		TherapistName:  therapist.FullName,
		ClientName:     client.FullName,
		Start:          ev.Start.In(loc),
		End:            ev.End.In(loc),
		DashboardURL:   s.cfg.DashboardURL,
	}))
}

func (s *notificationService) AppointmentStatusChanged(ctx context.Context, ev events.AppointmentEvent) error {
	client, err := s.store.GetProfile(ctx, ev.ClientID)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	therapist, err := s.store.GetProfile(ctx, ev.TherapistID)
	if err != nil {
		return fmt.Errorf("get therapist: %w", err)
	}

	loc := client.Location()
	start, end := ev.Start.In(loc), ev.End.In(loc)
	mailErr := s.send(ctx, email.BuildAppointmentStatusEmail(email.AppointmentStatusData{
		ClientEmail:   client.Email,
		ClientName:    client.FullName,
		TherapistName: therapist.FullName,
		Status:        string(ev.Status),
		Start:         start,
		End:           end,
	}))

	var smsErr error
	if s.sms != nil && client.Phone != nil && *client.Phone != "" {
		when := start.Format("Mon Jan 2 15:04")
		if err := s.sms.SendAppointmentStatus(ctx, *client.Phone, string(ev.Status), when); err != nil {
			smsErr = fmt.Errorf("send status sms: %w", err)
		}
	}
	return errors.Join(mailErr, smsErr)
}

func (s *notificationService) ContactSubmitted(ctx context.Context, ev events.ContactEvent) error {
	if s.cfg.SupportInbox == "" {
		slog.WarnContext(ctx, "notification: support inbox not configured", "submission_id", ev.SubmissionID)
		return nil
	}
	return s.send(ctx, email.BuildContactSubmissionEmail(email.ContactSubmissionData{
		SupportInbox: s.cfg.SupportInbox,
		FirstName:    ev.FirstName,
		LastName:     ev.LastName,
		Email:        ev.Email,
		Body:         ev.Message,
	}))
}

func (s *notificationService) send(ctx context.Context, m email.Message) error {
	if s.mailer == nil {
		return nil
	}
	if err := s.mailer.Send(ctx, m); err != nil {
		var disabled email.ErrDisabled
		if errors.As(err, &disabled) {
			slog.DebugContext(ctx, "notification: email disabled", "subject", m.Subject)
			return nil
		}
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
