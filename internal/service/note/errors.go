package note

import (
	"errors"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

var (
	ErrTherapistOnly     = errors.New("only therapists can write notes")
	ErrNotAssigned       = errors.New("client is not assigned to you")
	ErrMissingFields     = errors.New("title and body are required")
	ErrRoleRequired      = errors.New("an account role is required")
	ErrInvalidType       = domain.ErrInvalidNoteType
	ErrInvalidVisibility = domain.ErrInvalidVisibility
)
