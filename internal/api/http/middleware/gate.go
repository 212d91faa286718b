package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/identity"
)

const (
	PathLogin     = "/login"
	PathSignup    = "/signup"
	PathDashboard = "/dashboard"
)

// RouteGate redirects page requests that the caller may not view.
// Must run after Identify.
func RouteGate() fiber.Handler {
	return func(c fiber.Ctx) error {
		id, ok := IdentityFromFiber(c)
		if dest, redirect := GateDecision(c.Path(), id, ok); redirect {
			return c.Redirect().Status(fiber.StatusFound).To(dest)
		}
		return c.Next()
	}
}

// GateDecision returns where to send a caller visiting path, if anywhere.
func GateDecision(path string, id identity.Identity, authenticated bool) (string, bool) {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}

	switch {
	case path == PathLogin || path == PathSignup:
		if authenticated {
			return id.Home(), true
		}
		return "", false

	case path == PathDashboard:
		if !authenticated {
			return PathLogin, true
		}
		return id.Home(), true

	case under(path, PathDashboard):
		if !authenticated {
			return PathLogin, true
		}
		if !id.HasRole() {
			return "", false
		}
		if id.Role().IsClient() && under(path, identity.HomeTherapist) {
			return identity.HomeClient, true
		}
		if id.Role().IsTherapist() && under(path, identity.HomeClient) {
			return identity.HomeTherapist, true
		}
	}
	return "", false
}

// under reports whether path is prefix itself or one of its subpaths.
func under(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
