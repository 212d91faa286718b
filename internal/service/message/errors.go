package message

import "errors"

var (
	ErrEmptyBody        = errors.New("message body must not be empty")
	ErrBodyTooLong      = errors.New("message body exceeds 4000 characters")
	ErrSelfMessage      = errors.New("cannot send a message to yourself")
	ErrReceiverNotFound = errors.New("receiver not found")
)
