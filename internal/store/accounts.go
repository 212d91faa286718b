package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
)

type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         identity.Role
	CreatedAt    time.Time
}

type NewAccount struct {
	Email        string
	PasswordHash string
	FullName     string
	Role         identity.Role
	Timezone     string
}

// CreateAccount inserts the account and its profile in one transaction.
// A taken email yields ErrDuplicate.
func (s *Store) CreateAccount(ctx context.Context, in NewAccount) (*Account, error) {
	now := s.now().UTC()
	acc := &Account{
		ID:           newID(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    now,
	}
	tz := in.Timezone
	if tz == "" {
		tz = domain.DefaultTimezone
	}

	var availability any
	if in.Role.IsTherapist() {
		b, err := json.Marshal(domain.DefaultAvailability())
		if err != nil {
			return nil, fmt.Errorf("encode availability: %w", err)
		}
		availability = string(b)
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := execDS(ctx, tx, s.insert("accounts").Rows(goqu.Record{
			"id":            acc.ID,
			"email":         acc.Email,
			"password_hash": acc.PasswordHash,
			"role":          acc.Role.String(),
			"created_at":    now,
			"updated_at":    now,
		})); err != nil {
			return err
		}
		_, err := execDS(ctx, tx, s.insert("profiles").Rows(goqu.Record{
			"id":                  acc.ID,
			"role":                acc.Role.String(),
			"full_name":           strings.TrimSpace(in.FullName),
			"email":               acc.Email,
			"specialties":         pq.Array([]string{}),
			"timezone":            tz,
			"availability":        availability,
			"subscription_status": string(domain.SubscriptionInactive),
			"created_at":          now,
			"updated_at":          now,
		}))
		return err
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

var accountColumns = []any{"id", "email", "password_hash", "role", "created_at"}

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var role string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CreatedAt); err != nil {
		return nil, translate(err)
	}
	r, err := identity.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", a.ID, err)
	}
	a.Role = r
	return &a, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	query, args, err := s.from("accounts").Select(accountColumns...).
		Where(goqu.Func("lower", goqu.C("email")).Eq(strings.ToLower(strings.TrimSpace(email)))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanAccount(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) AccountByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query, args, err := s.from("accounts").Select(accountColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanAccount(s.db.QueryRowContext(ctx, query, args...))
}

func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	n, err := execDS(ctx, s.db, s.update("accounts").
		Set(goqu.Record{"password_hash": hash, "updated_at": s.now().UTC()}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
