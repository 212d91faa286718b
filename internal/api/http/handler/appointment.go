package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/service/appointment"
)

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrConflict),
		errors.Is(err, appointment.ErrInvalidTransition):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrNoTherapist),
		errors.Is(err, appointment.ErrInvalidDateTime),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInPast),
		errors.Is(err, appointment.ErrOutsideAvailability),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidView):
		return badRequest(c, err.Error())
	case errors.Is(err, appointment.ErrNotParticipant),
		errors.Is(err, appointment.ErrForbiddenTransition),
		errors.Is(err, appointment.ErrRoleRequired):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return serverError(c, err)
	}
}

// GET /appointments?status=&view=upcoming|past&page=&per_page=
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var q struct {
		Status  string `query:"status"`
		View    string `query:"view"`
		Page    int    `query:"page"`
		PerPage int    `query:"per_page"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	req := appointment.ListRequest{View: q.View, Page: q.Page, PerPage: q.PerPage}
	if q.Status != "" {
		req.Status = &q.Status
	}

	appts, err := h.svc.List(c.Context(), id, req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appts)
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	apptID, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	appt, err := h.svc.Get(c.Context(), id.UserID(), apptID)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}

// POST /appointments
func (h *AppointmentHandler) Book(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		Date     string `json:"date"`
		Time     string `json:"time"`
		Duration int    `json:"duration"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Date == "" || body.Time == "" {
		return badRequest(c, "date and time are required")
	}

	appt, err := h.svc.Book(c.Context(), id.UserID(), appointment.BookRequest{
		Date:            body.Date,
		Time:            body.Time,
		DurationMinutes: body.Duration,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, appt)
}

// PATCH /appointments/:id/status
func (h *AppointmentHandler) UpdateStatus(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	apptID, valid := uuidParam(c, "id")
	if !valid {
		return badRequest(c, "invalid appointment id")
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return badRequest(c, "status is required")
	}

	appt, err := h.svc.Transition(c.Context(), id.UserID(), apptID, body.Status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, appt)
}
