package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/service/profile"
)

type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// GET /profiles/me
func (h *ProfileHandler) Me(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	p, err := h.svc.Get(c.Context(), id.UserID())
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// PATCH /profiles/me
func (h *ProfileHandler) UpdateMe(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		FullName        *string  `json:"full_name"`
		AvatarURL       *string  `json:"avatar_url"`
		Phone           *string  `json:"phone"`
		Bio             *string  `json:"bio"`
		Specialties     []string `json:"specialties"`
		HourlyRateCents *int64   `json:"hourly_rate_cents"`
		Timezone        *string  `json:"timezone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	p, err := h.svc.Update(c.Context(), id.UserID(), profile.UpdateRequest{
		FullName:        body.FullName,
		AvatarURL:       body.AvatarURL,
		Phone:           body.Phone,
		Bio:             body.Bio,
		Specialties:     body.Specialties,
		HourlyRateCents: body.HourlyRateCents,
		Timezone:        body.Timezone,
	})
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

// POST /profiles/me/avatar
func (h *ProfileHandler) AvatarUpload(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		ContentType string `json:"content_type"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	up, err := h.svc.AvatarUploadURL(c.Context(), id.UserID(), body.ContentType)
	if err != nil {
		return mapProfileError(c, err)
	}
	return created(c, up)
}

// GET /therapists
func (h *ProfileHandler) ListTherapists(c fiber.Ctx) error {
	var q struct {
		Page    int `query:"page"`
		PerPage int `query:"per_page"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	page, err := h.svc.ListTherapists(c.Context(), q.Page, q.PerPage)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, page)
}

// GET /therapists/:id
func (h *ProfileHandler) GetTherapist(c fiber.Ctx) error {
	therapistID, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid therapist id")
	}
	p, err := h.svc.GetTherapist(c.Context(), therapistID)
	if err != nil {
		return mapProfileError(c, err)
	}
	return ok(c, p)
}

func mapProfileError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, profile.ErrNotFound),
		errors.Is(err, profile.ErrNotTherapist):
		return notFound(c, err.Error())
	case errors.Is(err, profile.ErrTherapistOnly):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, profile.ErrInvalidPhone),
		errors.Is(err, profile.ErrInvalidTimezone),
		errors.Is(err, profile.ErrInvalidName),
		errors.Is(err, profile.ErrInvalidRate),
		errors.Is(err, profile.ErrInvalidAvatar),
		errors.Is(err, profile.ErrUnsupportedImage):
		return badRequest(c, err.Error())
	case errors.Is(err, profile.ErrUploadsDisabled):
		return serviceUnavailable(c, err.Error())
	default:
		return serverError(c, err)
	}
}
