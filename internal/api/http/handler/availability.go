package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/service/availability"
)

type AvailabilityHandler struct {
	svc availability.Service
}

func NewAvailabilityHandler(svc availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// GET /therapists/:id/availability
func (h *AvailabilityHandler) Get(c fiber.Ctx) error {
	therapistID, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}
	rules, err := h.svc.Get(c.Context(), therapistID)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return ok(c, rules)
}

// PUT /availability
func (h *AvailabilityHandler) Set(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var rules domain.WeeklyAvailability
	if err := c.Bind().JSON(&rules); err != nil {
		return badRequest(c, "invalid request body")
	}

	saved, err := h.svc.Set(c.Context(), id.UserID(), rules)
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return ok(c, saved)
}

// GET /therapists/:id/slots?from=YYYY-MM-DD&days=7&duration=60
func (h *AvailabilityHandler) Slots(c fiber.Ctx) error {
	therapistID, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}

	var q struct {
		From     string `query:"from"`
		Days     int    `query:"days"`
		Duration int    `query:"duration"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	slots, err := h.svc.Slots(c.Context(), therapistID, availability.SlotsRequest{
		From:            q.From,
		Days:            q.Days,
		DurationMinutes: q.Duration,
	})
	if err != nil {
		return mapAvailabilityError(c, err)
	}
	return ok(c, slots)
}

func mapAvailabilityError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, availability.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, availability.ErrNotTherapist):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, availability.ErrInvalidDuration),
		errors.Is(err, availability.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrOverlappingRanges):
		return badRequest(c, err.Error())
	default:
		return serverError(c, err)
	}
}
