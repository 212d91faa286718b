package notification

import "errors"

var (
	ErrUnknownSubject = errors.New("no handler for subject")
	ErrBadPayload     = errors.New("malformed event payload")
)
