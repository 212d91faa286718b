package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

// AppointmentEvent is published on booking and on every status change.
type AppointmentEvent struct {
	AppointmentID uuid.UUID                `json:"appointment_id"`
	ClientID      uuid.UUID                `json:"client_id"`
	TherapistID   uuid.UUID                `json:"therapist_id"`
	Status        domain.AppointmentStatus `json:"status"`
	Start         time.Time                `json:"start"`
	End           time.Time                `json:"end"`
}

func NewAppointmentEvent(a domain.Appointment) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID: a.ID,
		ClientID:      a.ClientID,
		TherapistID:   a.TherapistID,
		Status:        a.Status,
		Start:         a.StartTime,
		End:           a.EndTime,
	}
}

// ContactEvent carries a stored contact form submission.
type ContactEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Message      string    `json:"message"`
}
