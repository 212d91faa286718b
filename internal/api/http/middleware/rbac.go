package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

// RequirePermission checks the caller's policy role in the sys domain.
// Identities without a role are refused.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, ok := IdentityFromFiber(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if !id.HasRole() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "an account role is required"})
		}

		subject := authorize.GroupSubject(id.UserID().String())
		if err := auth.MustEnforce(c.Context(), subject, authorize.DomainSys, resource, action); err != nil {
			if errors.Is(err, authorize.ErrForbidden) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
			}
			return err
		}

		return c.Next()
	}
}
