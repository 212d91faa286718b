package assignment

import "errors"

var (
	ErrNotTherapist = errors.New("selected profile is not a therapist")
	ErrNotClient    = errors.New("only clients can be assigned a therapist")
	ErrNoTherapist  = errors.New("no therapist is assigned")
)
