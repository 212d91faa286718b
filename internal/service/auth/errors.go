package auth

import "errors"

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("full name is required")
	ErrInvalidRole        = errors.New("role must be client or therapist")
	ErrInvalidTimezone    = errors.New("unknown timezone")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("email or password is incorrect")
	ErrAccountLocked      = errors.New("account temporarily locked due to repeated login failures")
	ErrSessionNotFound    = errors.New("session not found or expired")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrResetCodeInvalid   = errors.New("reset code is incorrect or expired")
	ErrResetMaxAttempts   = errors.New("too many incorrect reset code attempts")
)
