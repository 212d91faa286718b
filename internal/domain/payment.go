package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment is a completed checkout as shown in the client's billing history.
type Payment struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Description   string     `json:"description"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	CreatedAt     time.Time  `json:"created_at"`
}
