package middleware

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/identity"
	pasetotoken "github.com/Alijeyrad/thera_backend/pkg/paseto"
	"github.com/Alijeyrad/thera_backend/pkg/redis"
	"github.com/Alijeyrad/thera_backend/pkg/reqctx"
)

const LocalsIdentity = "identity"

type TokenVerifier interface {
	Verify(token string) (*pasetotoken.Claims, error)
}

// SessionStore answers whether a session key is still live.
type SessionStore interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Identify resolves the caller from a bearer token or the session cookie.
// It never rejects: unauthenticated requests simply carry no identity.
func Identify(tokens TokenVerifier, sessions SessionStore, cookieName string) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, claims, ok := resolve(c, tokens, sessions, cookieName)
		if ok {
			c.Locals(LocalsIdentity, id)
			ctx := identity.WithContext(c.Context(), id)
			c.SetContext(reqctx.WithClaims(ctx, claims))
		}
		return c.Next()
	}
}

func resolve(c fiber.Ctx, tokens TokenVerifier, sessions SessionStore, cookieName string) (identity.Identity, *pasetotoken.Claims, bool) {
	raw := pasetotoken.TokenFromRequest(c, cookieName)
	if raw == "" {
		return identity.Identity{}, nil, false
	}

	claims, err := tokens.Verify(raw)
	if err != nil {
		return identity.Identity{}, nil, false
	}
	// Only access tokens are accepted on protected routes
	if claims.Type != pasetotoken.TokenTypeAccess || claims.SessionID == nil {
		return identity.Identity{}, nil, false
	}

	live, err := sessions.Exists(c.Context(), redis.SessionKey(claims.SessionID.String()))
	if err != nil {
		slog.WarnContext(c.Context(), "session lookup failed", "error", err)
		return identity.Identity{}, nil, false
	}
	if !live {
		return identity.Identity{}, nil, false
	}

	// An unknown or empty role claim leaves the identity without a role.
	role, _ := identity.ParseRole(claims.Role)
	return identity.New(claims.UserID, *claims.SessionID, role), claims, true
}

// IdentityFromFiber returns the identity set by Identify.
func IdentityFromFiber(c fiber.Ctx) (identity.Identity, bool) {
	id, ok := c.Locals(LocalsIdentity).(identity.Identity)
	return id, ok
}

// AuthRequired rejects requests without a resolved identity.
func AuthRequired() fiber.Handler {
	return func(c fiber.Ctx) error {
		if _, ok := IdentityFromFiber(c); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}
