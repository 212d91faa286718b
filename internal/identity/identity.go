package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the request-scoped principal. It is built once by the identity
// middleware and never mutated afterwards.
type Identity struct {
	userID    uuid.UUID
	sessionID uuid.UUID
	role      Role
}

func New(userID, sessionID uuid.UUID, role Role) Identity {
	return Identity{userID: userID, sessionID: sessionID, role: role}
}

func (i Identity) UserID() uuid.UUID    { return i.userID }
func (i Identity) SessionID() uuid.UUID { return i.sessionID }
func (i Identity) Role() Role           { return i.role }

// HasRole is false for sessions minted without role metadata.
func (i Identity) HasRole() bool { return !i.role.IsZero() }

// Home is the dashboard the identity lands on. Sessions without a role are
// sent to the client home.
func (i Identity) Home() string {
	if home, err := i.role.Home(); err == nil {
		return home
	}
	return HomeClient
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
