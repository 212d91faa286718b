package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/service/note"
)

type NoteHandler struct {
	svc note.Service
}

func NewNoteHandler(svc note.Service) *NoteHandler {
	return &NoteHandler{svc: svc}
}

func mapNoteError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, note.ErrMissingFields),
		errors.Is(err, note.ErrInvalidType),
		errors.Is(err, note.ErrInvalidVisibility):
		return badRequest(c, err.Error())
	case errors.Is(err, note.ErrTherapistOnly),
		errors.Is(err, note.ErrNotAssigned),
		errors.Is(err, note.ErrRoleRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return serverError(c, err)
	}
}

// POST /notes
func (h *NoteHandler) Create(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		ClientID   string `json:"client_id"`
		Title      string `json:"title"`
		Body       string `json:"body"`
		Type       string `json:"type"`
		Visibility string `json:"visibility"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	clientID, err := uuid.Parse(body.ClientID)
	if err != nil {
		return badRequest(c, "invalid client_id")
	}

	n, err := h.svc.Create(c.Context(), id, note.CreateRequest{
		ClientID:   clientID,
		Title:      body.Title,
		Body:       body.Body,
		Type:       body.Type,
		Visibility: body.Visibility,
	})
	if err != nil {
		return mapNoteError(c, err)
	}
	return created(c, n)
}

// GET /notes?client_id=
func (h *NoteHandler) List(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	clientID, valid := optionalUUIDQuery(c, "client_id")
	if !valid {
		return badRequest(c, "invalid client_id")
	}

	notes, err := h.svc.List(c.Context(), id, clientID)
	if err != nil {
		return mapNoteError(c, err)
	}
	return ok(c, notes)
}
