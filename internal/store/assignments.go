package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
)

var assignmentColumns = []any{"id", "client_id", "therapist_id", "started_at", "ended_at"}

func scanAssignment(row interface{ Scan(...any) error }) (*domain.Assignment, error) {
	var a domain.Assignment
	var ended sql.NullTime
	if err := row.Scan(&a.ID, &a.ClientID, &a.TherapistID, &a.StartedAt, &ended); err != nil {
		return nil, translate(err)
	}
	a.EndedAt = timePtr(ended)
	return &a, nil
}

// Assign ends the client's active assignment, if any, and starts a new one.
func (s *Store) Assign(ctx context.Context, clientID, therapistID uuid.UUID) (*domain.Assignment, error) {
	now := s.now().UTC()
	a := &domain.Assignment{ID: newID(), ClientID: clientID, TherapistID: therapistID, StartedAt: now}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := execDS(ctx, tx, s.endActive(clientID, now)); err != nil {
			return fmt.Errorf("end assignment: %w", err)
		}
		_, err := execDS(ctx, tx, s.insert("assignments").Rows(goqu.Record{
			"id":           a.ID,
			"client_id":    clientID,
			"therapist_id": therapistID,
			"started_at":   now,
		}))
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) endActive(clientID uuid.UUID, at any) *goqu.UpdateDataset {
	return s.update("assignments").
		Set(goqu.Record{"ended_at": at}).
		Where(goqu.C("client_id").Eq(clientID), goqu.C("ended_at").IsNull())
}

// CurrentAssignment returns the client's active assignment or ErrNotFound.
func (s *Store) CurrentAssignment(ctx context.Context, clientID uuid.UUID) (*domain.Assignment, error) {
	query, args, err := s.from("assignments").Select(assignmentColumns...).
		Where(goqu.C("client_id").Eq(clientID), goqu.C("ended_at").IsNull()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanAssignment(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) Unassign(ctx context.Context, clientID uuid.UUID) error {
	n, err := execDS(ctx, s.db, s.endActive(clientID, s.now().UTC()))
	if err != nil {
		return fmt.Errorf("end assignment: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsAssigned reports whether the client is actively assigned to the therapist.
func (s *Store) IsAssigned(ctx context.Context, clientID, therapistID uuid.UUID) (bool, error) {
	a, err := s.CurrentAssignment(ctx, clientID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.TherapistID == therapistID, nil
}

// ActiveClients lists the profiles of clients actively assigned to the therapist.
func (s *Store) ActiveClients(ctx context.Context, therapistID uuid.UUID) ([]domain.Profile, error) {
	rows, err := queryDS(ctx, s.db, s.from("profiles").
		Select(qualified("profiles", profileColumns)...).
		Join(goqu.T("assignments"), goqu.On(goqu.T("assignments").Col("client_id").Eq(goqu.T("profiles").Col("id")))).
		Where(
			goqu.T("assignments").Col("therapist_id").Eq(therapistID),
			goqu.T("assignments").Col("ended_at").IsNull(),
			goqu.T("profiles").Col("role").Eq(identity.RoleClient.String()),
		).
		Order(goqu.T("profiles").Col("full_name").Asc()))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return collectProfiles(rows)
}
