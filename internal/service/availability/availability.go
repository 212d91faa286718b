package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/store"
)

// DateLayout is the calendar-date format accepted for slot queries.
const DateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Config struct {
	DurationsMinutes []int
	MaxDays          int
}

type SlotsRequest struct {
	// From is YYYY-MM-DD in the therapist's timezone; empty means today.
	From            string
	Days            int
	DurationMinutes int
}

type SlotsResponse struct {
	TherapistID uuid.UUID     `json:"therapist_id"`
	Timezone    string        `json:"timezone"`
	Duration    int           `json:"duration_minutes"`
	Slots       []domain.Slot `json:"slots"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	SetAvailability(ctx context.Context, therapistID uuid.UUID, w domain.WeeklyAvailability) error
	BusyIntervals(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]domain.Slot, error)
}

type Service interface {
	Get(ctx context.Context, therapistID uuid.UUID) (*domain.WeeklyAvailability, error)
	Set(ctx context.Context, therapistID uuid.UUID, rules domain.WeeklyAvailability) (*domain.WeeklyAvailability, error)
	Slots(ctx context.Context, therapistID uuid.UUID, req SlotsRequest) (*SlotsResponse, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type availabilityService struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func New(st Store, cfg Config) Service {
	if len(cfg.DurationsMinutes) == 0 {
		cfg.DurationsMinutes = []int{30, 60, 90}
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = 31
	}
	return &availabilityService{store: st, cfg: cfg, now: time.Now}
}

func (s *availabilityService) therapist(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	if !p.Role.IsTherapist() {
		return nil, ErrNotTherapist
	}
	return p, nil
}

func (s *availabilityService) Get(ctx context.Context, therapistID uuid.UUID) (*domain.WeeklyAvailability, error) {
	p, err := s.therapist(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	w := p.WeeklyRules()
	return &w, nil
}

func (s *availabilityService) Set(ctx context.Context, therapistID uuid.UUID, rules domain.WeeklyAvailability) (*domain.WeeklyAvailability, error) {
	if _, err := s.therapist(ctx, therapistID); err != nil {
		return nil, err
	}
	normalized, err := rules.Normalize()
	if err != nil {
		return nil, err
	}
	if err := s.store.SetAvailability(ctx, therapistID, normalized); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotTherapist
		}
		return nil, fmt.Errorf("set availability: %w", err)
	}
	return &normalized, nil
}

func (s *availabilityService) Slots(ctx context.Context, therapistID uuid.UUID, req SlotsRequest) (*SlotsResponse, error) {
	if !domain.ValidDuration(req.DurationMinutes, s.cfg.DurationsMinutes) {
		return nil, ErrInvalidDuration
	}

	p, err := s.therapist(ctx, therapistID)
	if err != nil {
		return nil, err
	}
	loc := p.Location()
	now := s.now()

	from := now.In(loc)
	if req.From != "" {
		from, err = time.ParseInLocation(DateLayout, req.From, loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
	}
	days := domain.ClampDays(req.Days, s.cfg.MaxDays)

	y, m, d := from.Date()
	windowStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	windowEnd := time.Date(y, m, d+days, 0, 0, 0, 0, loc)

	busy, err := s.store.BusyIntervals(ctx, therapistID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("load busy intervals: %w", err)
	}

	slots := domain.ComputeSlots(p.WeeklyRules(), loc, domain.SlotQuery{
		From:     windowStart,
		Days:     days,
		Duration: time.Duration(req.DurationMinutes) * time.Minute,
		Now:      now,
		Busy:     busy,
	})
	if slots == nil {
		slots = []domain.Slot{}
	}

	return &SlotsResponse{
		TherapistID: therapistID,
		Timezone:    loc.String(),
		Duration:    req.DurationMinutes,
		Slots:       slots,
	}, nil
}
