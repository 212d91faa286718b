package availability

import "errors"

var (
	ErrNotFound        = errors.New("therapist not found")
	ErrNotTherapist    = errors.New("only therapists have availability")
	ErrInvalidDuration = errors.New("duration is not one of the bookable session lengths")
	ErrInvalidDate     = errors.New("from must be a date in YYYY-MM-DD format")
)
