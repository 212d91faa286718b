package assignment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Current is the client's active assignment with the therapist's profile.
type Current struct {
	Assignment domain.Assignment `json:"assignment"`
	Therapist  domain.Profile    `json:"therapist"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Assign(ctx context.Context, clientID, therapistID uuid.UUID) (*domain.Assignment, error)
	CurrentAssignment(ctx context.Context, clientID uuid.UUID) (*domain.Assignment, error)
	Unassign(ctx context.Context, clientID uuid.UUID) error
	ActiveClients(ctx context.Context, therapistID uuid.UUID) ([]domain.Profile, error)
}

type Service interface {
	Assign(ctx context.Context, clientID, therapistID uuid.UUID) (*Current, error)
	Current(ctx context.Context, clientID uuid.UUID) (*Current, error)
	TherapistOf(ctx context.Context, clientID uuid.UUID) (uuid.UUID, error)
	Clients(ctx context.Context, therapistID uuid.UUID) ([]domain.Profile, error)
	Unassign(ctx context.Context, clientID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type assignmentService struct {
	store Store
}

func New(st Store) Service {
	return &assignmentService{store: st}
}

func (s *assignmentService) Assign(ctx context.Context, clientID, therapistID uuid.UUID) (*Current, error) {
	client, err := s.store.GetProfile(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	if !client.Role.IsClient() {
		return nil, ErrNotClient
	}

	therapist, err := s.store.GetProfile(ctx, therapistID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotTherapist
		}
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	if !therapist.Role.IsTherapist() {
		return nil, ErrNotTherapist
	}

	a, err := s.store.Assign(ctx, clientID, therapistID)
	if err != nil {
		return nil, fmt.Errorf("assign therapist: %w", err)
	}
	slog.InfoContext(ctx, "therapist assigned", "client_id", clientID, "therapist_id", therapistID)
	return &Current{Assignment: *a, Therapist: *therapist}, nil
}

func (s *assignmentService) Current(ctx context.Context, clientID uuid.UUID) (*Current, error) {
	a, err := s.store.CurrentAssignment(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoTherapist
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	therapist, err := s.store.GetProfile(ctx, a.TherapistID)
	if err != nil {
		return nil, fmt.Errorf("get therapist: %w", err)
	}
	return &Current{Assignment: *a, Therapist: *therapist}, nil
}

// TherapistOf returns the id of the client's active therapist.
func (s *assignmentService) TherapistOf(ctx context.Context, clientID uuid.UUID) (uuid.UUID, error) {
	a, err := s.store.CurrentAssignment(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, ErrNoTherapist
		}
		return uuid.Nil, fmt.Errorf("get assignment: %w", err)
	}
	return a.TherapistID, nil
}

func (s *assignmentService) Clients(ctx context.Context, therapistID uuid.UUID) ([]domain.Profile, error) {
	clients, err := s.store.ActiveClients(ctx, therapistID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	if clients == nil {
		clients = []domain.Profile{}
	}
	return clients, nil
}

func (s *assignmentService) Unassign(ctx context.Context, clientID uuid.UUID) error {
	if err := s.store.Unassign(ctx, clientID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoTherapist
		}
		return fmt.Errorf("end assignment: %w", err)
	}
	return nil
}
