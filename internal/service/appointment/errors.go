package appointment

import (
	"errors"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

var (
	ErrNotFound            = errors.New("appointment not found")
	ErrNoTherapist         = errors.New("no therapist is assigned; choose a therapist before booking")
	ErrInvalidDateTime     = errors.New("date must be YYYY-MM-DD and time HH:MM")
	ErrInvalidDuration     = errors.New("duration is not one of the bookable session lengths")
	ErrInPast              = errors.New("appointment must start in the future")
	ErrOutsideAvailability = errors.New("requested time is outside the therapist's availability")
	ErrConflict            = errors.New("the therapist already has an appointment at that time")
	ErrNotParticipant      = errors.New("you are not a participant of this appointment")
	ErrForbiddenTransition = errors.New("you may not move the appointment to that status")
	ErrInvalidView         = errors.New("view must be upcoming or past")
	ErrRoleRequired        = errors.New("an account role is required")

	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrInvalidStatus     = domain.ErrInvalidStatus
)
