package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

// BillingEffect is what a processed webhook event changes.
type BillingEffect struct {
	EventID   string
	EventType string
	// ActivateSubscriptionFor sets the profile's subscription to active.
	ActivateSubscriptionFor *uuid.UUID
	// MarkPaid sets the appointment's payment status to paid.
	MarkPaid *uuid.UUID
	// Payment is appended to the payer's history.
	Payment *NewPayment
}

type NewPayment struct {
	UserID        uuid.UUID
	AppointmentID *uuid.UUID
	Description   string
	AmountCents   int64
	Currency      string
}

// ApplyBillingEvent records the event id and applies its effect in one
// transaction. A replayed event id changes nothing and reports applied=false.
func (s *Store) ApplyBillingEvent(ctx context.Context, e BillingEffect) (applied bool, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		n, err := execDS(ctx, tx, s.insert("billing_events").
			Rows(goqu.Record{"id": e.EventID, "event_type": e.EventType, "processed_at": s.now().UTC()}).
			OnConflict(goqu.DoNothing()))
		if err != nil {
			return fmt.Errorf("record billing event: %w", err)
		}
		if n == 0 {
			return nil
		}
		applied = true

		if e.ActivateSubscriptionFor != nil {
			if err := s.setSubscriptionStatus(ctx, tx, *e.ActivateSubscriptionFor, domain.SubscriptionActive); err != nil {
				return err
			}
		}
		if e.MarkPaid != nil {
			if err := s.markPaid(ctx, tx, *e.MarkPaid); err != nil {
				return err
			}
		}
		if e.Payment != nil {
			if err := s.insertPayment(ctx, tx, e.EventID, *e.Payment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *Store) insertPayment(ctx context.Context, q querier, eventID string, p NewPayment) error {
	var appt any
	if p.AppointmentID != nil {
		appt = *p.AppointmentID
	}
	_, err := execDS(ctx, q, s.insert("payments").Rows(goqu.Record{
		"id":             newID(),
		"user_id":        p.UserID,
		"appointment_id": appt,
		"event_id":       eventID,
		"description":    p.Description,
		"amount_cents":   p.AmountCents,
		"currency":       p.Currency,
		"created_at":     s.now().UTC(),
	}))
	if err != nil {
		return fmt.Errorf("record payment: %w", err)
	}
	return nil
}

// ListPayments returns the user's payments, newest first.
func (s *Store) ListPayments(ctx context.Context, userID uuid.UUID, page Page) ([]domain.Payment, error) {
	limit, offset := page.limitOffset()
	rows, err := queryDS(ctx, s.db, s.from("payments").
		Select("id", "user_id", "appointment_id", "description", "amount_cents", "currency", "created_at").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).
		Limit(limit).Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		var appt uuid.NullUUID
		if err := rows.Scan(&p.ID, &p.UserID, &appt, &p.Description, &p.AmountCents, &p.Currency, &p.CreatedAt); err != nil {
			return nil, err
		}
		if appt.Valid {
			p.AppointmentID = &appt.UUID
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
