package domain

import "errors"

var (
	ErrInvalidTimeRange  = errors.New("time ranges must be HH:MM with start before end")
	ErrOverlappingRanges = errors.New("time ranges within a day must not overlap")
	ErrInvalidTransition = errors.New("appointment status transition is not allowed")
	ErrInvalidStatus     = errors.New("unknown appointment status")
)
