package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Subject is what a token is minted for.
type Subject struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	// Role is carried as opaque session metadata; empty means "not set".
	Role string
}

// Claims is the app-facing token payload.
type Claims struct {
	Type TokenType

	UserID    uuid.UUID
	SessionID *uuid.UUID
	Role      string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
}

func (c *Claims) GetUserID() uuid.UUID     { return c.UserID }
func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }
func (c *Claims) GetRole() string          { return c.Role }
func (c *Claims) GetTokenType() string     { return string(c.Type) }

func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
