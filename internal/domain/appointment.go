package domain

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// transitions lists every allowed status change. Terminal states map to nothing.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: nil,
	StatusCompleted: nil,
}

func ParseAppointmentStatus(s string) (AppointmentStatus, error) {
	st := AppointmentStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s AppointmentStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Active statuses hold the therapist's time.
func (s AppointmentStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// ActiveStatuses is the set that blocks overlapping bookings.
func ActiveStatuses() []AppointmentStatus {
	return []AppointmentStatus{StatusPending, StatusConfirmed}
}

func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Party is the relationship of a user to an appointment.
type Party int

const (
	PartyNone Party = iota
	PartyClient
	PartyTherapist
)

// MayMoveTo reports whether the party is allowed to request the target status.
// Therapists confirm, complete and cancel; clients may only cancel.
func (p Party) MayMoveTo(to AppointmentStatus) bool {
	switch p {
	case PartyTherapist:
		return to == StatusConfirmed || to == StatusCompleted || to == StatusCancelled
	case PartyClient:
		return to == StatusCancelled
	default:
		return false
	}
}

type Appointment struct {
	ID            uuid.UUID         `json:"id"`
	ClientID      uuid.UUID         `json:"client_id"`
	TherapistID   uuid.UUID         `json:"therapist_id"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	Status        AppointmentStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
}

func (a Appointment) PartyOf(userID uuid.UUID) Party {
	switch userID {
	case a.TherapistID:
		return PartyTherapist
	case a.ClientID:
		return PartyClient
	default:
		return PartyNone
	}
}

func (a Appointment) Slot() Slot { return Slot{Start: a.StartTime, End: a.EndTime} }

// Upcoming reports whether the appointment starts after now and is not cancelled.
func (a Appointment) Upcoming(now time.Time) bool {
	return a.StartTime.After(now) && a.Status != StatusCancelled
}
