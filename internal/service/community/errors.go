package community

import "errors"

var (
	ErrEmptyBody     = errors.New("post body must not be empty")
	ErrBodyTooLong   = errors.New("post body exceeds 2000 characters")
	ErrPostNotFound  = errors.New("post not found")
	ErrGroupNotFound = errors.New("community group not found")
)
