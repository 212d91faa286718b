package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/service/assignment"
)

type AssignmentHandler struct {
	svc assignment.Service
}

func NewAssignmentHandler(svc assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

// PUT /assignment
func (h *AssignmentHandler) Assign(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		TherapistID string `json:"therapist_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	therapistID, err := uuid.Parse(body.TherapistID)
	if err != nil {
		return badRequest(c, "invalid therapist_id")
	}

	cur, err := h.svc.Assign(c.Context(), id.UserID(), therapistID)
	if err != nil {
		return mapAssignmentError(c, err)
	}
	return ok(c, cur)
}

// GET /assignment
func (h *AssignmentHandler) Current(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	cur, err := h.svc.Current(c.Context(), id.UserID())
	if err != nil {
		return mapAssignmentError(c, err)
	}
	return ok(c, cur)
}

// DELETE /assignment
func (h *AssignmentHandler) Unassign(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	if err := h.svc.Unassign(c.Context(), id.UserID()); err != nil {
		return mapAssignmentError(c, err)
	}
	return noContent(c)
}

// GET /clients
func (h *AssignmentHandler) Clients(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	clients, err := h.svc.Clients(c.Context(), id.UserID())
	if err != nil {
		return mapAssignmentError(c, err)
	}
	return ok(c, clients)
}

func mapAssignmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, assignment.ErrNoTherapist):
		return notFound(c, err.Error())
	case errors.Is(err, assignment.ErrNotTherapist):
		return badRequest(c, err.Error())
	case errors.Is(err, assignment.ErrNotClient):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return serverError(c, err)
	}
}
