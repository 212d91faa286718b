package billing

import (
	"errors"

	gateway "github.com/Alijeyrad/thera_backend/pkg/billing"
)

var (
	ErrNotConfigured    = gateway.ErrNotConfigured
	ErrInvalidSignature = gateway.ErrInvalidSignature
	ErrInvalidMode      = gateway.ErrInvalidMode
	ErrMissingPrice     = errors.New("price id is required")
	ErrInvalidPayload   = errors.New("webhook payload could not be decoded")
	ErrNotParticipant   = errors.New("appointment does not belong to you")
	ErrNotFound         = errors.New("appointment not found")
)
