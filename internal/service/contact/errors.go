package contact

import "errors"

var (
	ErrMissingFields      = errors.New("first name, last name, email and message are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrMessageTooLong     = errors.New("message exceeds 5000 characters")
	ErrAlreadySubscribed  = errors.New("You are already subscribed!")
	ErrSubscriberNotFound = errors.New("subscription not found")
)
