package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/service/contact"
)

type ContactHandler struct {
	svc contact.Service
}

func NewContactHandler(svc contact.Service) *ContactHandler {
	return &ContactHandler{svc: svc}
}

func mapContactError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, contact.ErrMissingFields),
		errors.Is(err, contact.ErrInvalidEmail),
		errors.Is(err, contact.ErrMessageTooLong):
		return badRequest(c, err.Error())
	case errors.Is(err, contact.ErrAlreadySubscribed):
		return conflict(c, err.Error())
	case errors.Is(err, contact.ErrSubscriberNotFound):
		return notFound(c, err.Error())
	default:
		return serverError(c, err)
	}
}

// POST /contact
func (h *ContactHandler) Submit(c fiber.Ctx) error {
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Message   string `json:"message"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sub, err := h.svc.SubmitContact(c.Context(), contact.SubmitRequest{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
		Message:   body.Message,
	})
	if err != nil {
		return mapContactError(c, err)
	}
	return created(c, sub)
}

// POST /newsletter
func (h *ContactHandler) Subscribe(c fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sub, err := h.svc.SubscribeNewsletter(c.Context(), body.Email)
	if err != nil {
		return mapContactError(c, err)
	}
	return created(c, sub)
}

// DELETE /newsletter/:token
func (h *ContactHandler) Unsubscribe(c fiber.Ctx) error {
	if err := h.svc.Unsubscribe(c.Context(), c.Params("token")); err != nil {
		return mapContactError(c, err)
	}
	return noContent(c)
}
