package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
)

var profileColumns = []any{
	"id", "role", "full_name", "email", "avatar_url", "phone", "bio", "specialties",
	"hourly_rate_cents", "timezone", "availability", "subscription_status", "created_at", "updated_at",
}

// qualified prefixes profile columns for joins.
func qualified(table string, cols []any) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = goqu.T(table).Col(c.(string))
	}
	return out
}

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	var (
		p            domain.Profile
		role         string
		avatar       sql.NullString
		phone        sql.NullString
		bio          sql.NullString
		rate         sql.NullInt64
		availability []byte
		subscription string
	)
	if err := row.Scan(
		&p.ID, &role, &p.FullName, &p.Email, &avatar, &phone, &bio, pq.Array(&p.Specialties),
		&rate, &p.Timezone, &availability, &subscription, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}

	r, err := identity.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.ID, err)
	}
	p.Role = r
	p.AvatarURL = strPtr(avatar)
	p.Phone = strPtr(phone)
	p.Bio = strPtr(bio)
	p.HourlyRateCents = intPtr(rate)
	p.SubscriptionStatus = domain.SubscriptionStatus(subscription)
	if p.Specialties == nil {
		p.Specialties = []string{}
	}
	if len(availability) > 0 {
		var w domain.WeeklyAvailability
		if err := json.Unmarshal(availability, &w); err != nil {
			return nil, fmt.Errorf("decode availability: %w", err)
		}
		p.Availability = &w
	}
	return &p, nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query, args, err := s.from("profiles").Select(profileColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanProfile(s.db.QueryRowContext(ctx, query, args...))
}

// UpdateProfile applies the non-nil fields of patch and returns the result.
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) (*domain.Profile, error) {
	rec := goqu.Record{"updated_at": s.now().UTC()}
	if patch.FullName != nil {
		rec["full_name"] = *patch.FullName
	}
	if patch.AvatarURL != nil {
		rec["avatar_url"] = nullString(emptyToNil(*patch.AvatarURL))
	}
	if patch.Phone != nil {
		rec["phone"] = nullString(emptyToNil(*patch.Phone))
	}
	if patch.Bio != nil {
		rec["bio"] = nullString(emptyToNil(*patch.Bio))
	}
	if patch.Specialties != nil {
		rec["specialties"] = pq.Array(*patch.Specialties)
	}
	if patch.HourlyRateCents != nil {
		rec["hourly_rate_cents"] = nullInt(patch.HourlyRateCents)
	}
	if patch.Timezone != nil {
		rec["timezone"] = *patch.Timezone
	}

	n, err := execDS(ctx, s.db, s.update("profiles").Set(rec).Where(goqu.C("id").Eq(id)))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetProfile(ctx, id)
}

func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// ListTherapists returns the public directory ordered by name, with the total count.
func (s *Store) ListTherapists(ctx context.Context, page Page) ([]domain.Profile, int, error) {
	limit, offset := page.limitOffset()
	where := goqu.C("role").Eq(identity.RoleTherapist.String())

	var total int
	if err := queryRowDS(ctx, s.db, s.from("profiles").Select(goqu.COUNT("*")).Where(where), &total); err != nil {
		return nil, 0, fmt.Errorf("count therapists: %w", err)
	}

	rows, err := queryDS(ctx, s.db, s.from("profiles").Select(profileColumns...).
		Where(where).
		Order(goqu.C("full_name").Asc(), goqu.C("id").Asc()).
		Limit(limit).Offset(offset))
	if err != nil {
		return nil, 0, fmt.Errorf("list therapists: %w", err)
	}
	list, err := collectProfiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func collectProfiles(rows *sql.Rows) ([]domain.Profile, error) {
	defer rows.Close()
	out := []domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Store) SetSubscriptionStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error {
	return s.setSubscriptionStatus(ctx, s.db, id, status)
}

func (s *Store) setSubscriptionStatus(ctx context.Context, q querier, id uuid.UUID, status domain.SubscriptionStatus) error {
	n, err := execDS(ctx, q, s.update("profiles").
		Set(goqu.Record{"subscription_status": string(status), "updated_at": s.now().UTC()}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return fmt.Errorf("set subscription status: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAvailability stores a normalised rule set on a therapist profile.
func (s *Store) SetAvailability(ctx context.Context, therapistID uuid.UUID, w domain.WeeklyAvailability) error {
	b, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	n, err := execDS(ctx, s.db, s.update("profiles").
		Set(goqu.Record{"availability": string(b), "updated_at": s.now().UTC()}).
		Where(goqu.C("id").Eq(therapistID), goqu.C("role").Eq(identity.RoleTherapist.String())))
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// lockProfile takes a row lock that serialises bookings per therapist.
func (s *Store) lockProfile(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var locked uuid.UUID
	return queryRowDS(ctx, tx, s.from("profiles").Select("id").
		Where(goqu.C("id").Eq(id)).
		ForUpdate(exp.Wait), &locked)
}
