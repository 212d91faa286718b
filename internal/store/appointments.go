package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

var appointmentColumns = []any{
	"id", "client_id", "therapist_id", "start_time", "end_time", "status", "payment_status",
	"created_at", "updated_at", "cancelled_at", "completed_at",
}

func scanAppointment(row interface{ Scan(...any) error }) (*domain.Appointment, error) {
	var a domain.Appointment
	var cancelled, completed sql.NullTime
	if err := row.Scan(
		&a.ID, &a.ClientID, &a.TherapistID, &a.StartTime, &a.EndTime, &a.Status, &a.PaymentStatus,
		&a.CreatedAt, &a.UpdatedAt, &cancelled, &completed,
	); err != nil {
		return nil, translate(err)
	}
	a.CancelledAt = timePtr(cancelled)
	a.CompletedAt = timePtr(completed)
	return &a, nil
}

func activeStatuses() []any {
	return lo.Map(domain.ActiveStatuses(), func(s domain.AppointmentStatus, _ int) any { return string(s) })
}

func overlapping(therapistID uuid.UUID, start, end time.Time) []goqu.Expression {
	return []goqu.Expression{
		goqu.C("therapist_id").Eq(therapistID),
		goqu.C("status").In(activeStatuses()...),
		goqu.C("start_time").Lt(end),
		goqu.C("end_time").Gt(start),
	}
}

type NewAppointment struct {
	ClientID    uuid.UUID
	TherapistID uuid.UUID
	Start       time.Time
	End         time.Time
}

// BookAppointment inserts a pending appointment unless it overlaps an active
// one of the same therapist. The therapist's profile row is locked for the
// duration of the check; the exclusion constraint backs it up. Both paths
// return ErrOverlap.
func (s *Store) BookAppointment(ctx context.Context, in NewAppointment) (*domain.Appointment, error) {
	now := s.now().UTC()
	a := &domain.Appointment{
		ID:            newID(),
		ClientID:      in.ClientID,
		TherapistID:   in.TherapistID,
		StartTime:     in.Start.UTC(),
		EndTime:       in.End.UTC(),
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockProfile(ctx, tx, in.TherapistID); err != nil {
			return fmt.Errorf("lock therapist: %w", err)
		}

		var clash uuid.UUID
		err := queryRowDS(ctx, tx, s.from("appointments").Select("id").
			Where(overlapping(in.TherapistID, a.StartTime, a.EndTime)...).
			Limit(1), &clash)
		switch {
		case err == nil:
			return ErrOverlap
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("check overlap: %w", err)
		}

		_, err = execDS(ctx, tx, s.insert("appointments").Rows(goqu.Record{
			"id":             a.ID,
			"client_id":      a.ClientID,
			"therapist_id":   a.TherapistID,
			"start_time":     a.StartTime,
			"end_time":       a.EndTime,
			"status":         string(a.Status),
			"payment_status": string(a.PaymentStatus),
			"created_at":     now,
			"updated_at":     now,
		}))
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query, args, err := s.from("appointments").Select(appointmentColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanAppointment(s.db.QueryRowContext(ctx, query, args...))
}

// AppointmentView narrows a listing to one side of the upcoming/past split.
type AppointmentView string

const (
	ViewAll      AppointmentView = ""
	ViewUpcoming AppointmentView = "upcoming"
	ViewPast     AppointmentView = "past"
)

type AppointmentFilter struct {
	ClientID    *uuid.UUID
	TherapistID *uuid.UUID
	Status      *domain.AppointmentStatus
	View        AppointmentView
	// Now is the cut-off between upcoming and past. Required when View is set.
	Now  time.Time
	Page Page
}

// ListAppointments returns appointments ascending by start time, id as tie-break.
// The past view is the exception: most recent first. The view predicate is
// applied before limit and offset.
func (s *Store) ListAppointments(ctx context.Context, f AppointmentFilter) ([]domain.Appointment, error) {
	var where []goqu.Expression
	if f.ClientID != nil {
		where = append(where, goqu.C("client_id").Eq(*f.ClientID))
	}
	if f.TherapistID != nil {
		where = append(where, goqu.C("therapist_id").Eq(*f.TherapistID))
	}
	if f.Status != nil {
		where = append(where, goqu.C("status").Eq(string(*f.Status)))
	}

	order := []exp.OrderedExpression{goqu.C("start_time").Asc(), goqu.C("id").Asc()}
	switch f.View {
	case ViewAll:
	case ViewUpcoming:
		where = append(where,
			goqu.C("start_time").Gt(f.Now.UTC()),
			goqu.C("status").Neq(string(domain.StatusCancelled)))
	case ViewPast:
		where = append(where, goqu.Or(
			goqu.C("start_time").Lte(f.Now.UTC()),
			goqu.C("status").Eq(string(domain.StatusCancelled))))
		order = []exp.OrderedExpression{goqu.C("start_time").Desc(), goqu.C("id").Desc()}
	default:
		return nil, fmt.Errorf("unknown appointment view %q", f.View)
	}
	limit, offset := f.Page.limitOffset()

	rows, err := queryDS(ctx, s.db, s.from("appointments").Select(appointmentColumns...).
		Where(where...).
		Order(order...).
		Limit(limit).Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return collectAppointments(rows)
}

// BusyIntervals returns the therapist's active appointments intersecting [from, to).
func (s *Store) BusyIntervals(ctx context.Context, therapistID uuid.UUID, from, to time.Time) ([]domain.Slot, error) {
	rows, err := queryDS(ctx, s.db, s.from("appointments").Select("start_time", "end_time").
		Where(overlapping(therapistID, from, to)...).
		Order(goqu.C("start_time").Asc()))
	if err != nil {
		return nil, fmt.Errorf("list busy intervals: %w", err)
	}
	defer rows.Close()

	var out []domain.Slot
	for rows.Next() {
		var sl domain.Slot
		if err := rows.Scan(&sl.Start, &sl.End); err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

func collectAppointments(rows *sql.Rows) ([]domain.Appointment, error) {
	defer rows.Close()
	out := []domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// TransitionAppointment moves from -> to only if the row is still in from.
// It returns ErrNotFound when no row matched, which includes a lost race.
func (s *Store) TransitionAppointment(ctx context.Context, id uuid.UUID, from, to domain.AppointmentStatus) (*domain.Appointment, error) {
	now := s.now().UTC()
	rec := goqu.Record{"status": string(to), "updated_at": now}
	switch to {
	case domain.StatusCancelled:
		rec["cancelled_at"] = now
	case domain.StatusCompleted:
		rec["completed_at"] = now
	}

	query, args, err := s.update("appointments").Set(rec).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(from))).
		Returning(appointmentColumns...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return scanAppointment(s.db.QueryRowContext(ctx, query, args...))
}

// MarkPaid sets payment_status to paid. Repeating it is harmless.
func (s *Store) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return s.markPaid(ctx, s.db, id)
}

func (s *Store) markPaid(ctx context.Context, q querier, id uuid.UUID) error {
	n, err := execDS(ctx, q, s.update("appointments").
		Set(goqu.Record{"payment_status": string(domain.PaymentPaid), "updated_at": s.now().UTC()}).
		Where(goqu.C("id").Eq(id)))
	if err != nil {
		return fmt.Errorf("mark paid: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
