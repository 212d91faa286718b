package handler

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/thera_backend/internal/identity"
)

// caller returns the identity of an authenticated request.
func caller(c fiber.Ctx) (identity.Identity, bool) {
	return middleware.IdentityFromFiber(c)
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

func optionalUUIDQuery(c fiber.Ctx, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, false
	}
	return &id, true
}
