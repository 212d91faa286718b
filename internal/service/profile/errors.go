package profile

import "errors"

var (
	ErrNotFound         = errors.New("profile not found")
	ErrTherapistOnly    = errors.New("bio, specialties and hourly rate are therapist-only fields")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidTimezone  = errors.New("unknown timezone")
	ErrInvalidName      = errors.New("full name must not be empty")
	ErrInvalidRate      = errors.New("hourly rate must not be negative")
	ErrInvalidAvatar    = errors.New("avatar must be an uploaded avatar key or an https URL")
	ErrUnsupportedImage = errors.New("avatar must be image/png, image/jpeg or image/webp")
	ErrUploadsDisabled  = errors.New("avatar uploads are not configured")
	ErrNotTherapist     = errors.New("profile is not a therapist")
)
