package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/service/appointment"
	"github.com/Alijeyrad/thera_backend/internal/service/assignment"
	"github.com/Alijeyrad/thera_backend/internal/service/billing"
	"github.com/Alijeyrad/thera_backend/internal/service/message"
	"github.com/Alijeyrad/thera_backend/internal/service/note"
	"github.com/Alijeyrad/thera_backend/internal/service/profile"
)

// PageHandler serves the JSON payloads behind the login, signup and
// dashboard pages. Access to each page is decided by middleware.RouteGate.
type PageHandler struct {
	profiles     profile.Service
	assignments  assignment.Service
	appointments appointment.Service
	notes        note.Service
	messages     message.Service
	billing      billing.Service
}

// recentPayments is how much billing history the client dashboard shows.
const recentPayments = 3

func NewPageHandler(
	profiles profile.Service,
	assignments assignment.Service,
	appointments appointment.Service,
	notes note.Service,
	messages message.Service,
	billingSvc billing.Service,
) *PageHandler {
	return &PageHandler{
		profiles:     profiles,
		assignments:  assignments,
		appointments: appointments,
		notes:        notes,
		messages:     messages,
		billing:      billingSvc,
	}
}

type ClientDashboard struct {
	Profile   *domain.Profile      `json:"profile"`
	Therapist *assignment.Current  `json:"therapist"`
	Upcoming  []domain.Appointment `json:"upcoming"`
	Past      []domain.Appointment `json:"past"`
	Notes     []domain.Note        `json:"notes"`
	Payments  []domain.Payment     `json:"payments"`
	Unread    int                  `json:"unread"`
}

type TherapistDashboard struct {
	Profile  *domain.Profile      `json:"profile"`
	Pending  []domain.Appointment `json:"pending"`
	Upcoming []domain.Appointment `json:"upcoming"`
	Clients  []domain.Profile     `json:"clients"`
	Unread   int                  `json:"unread"`
}

// GET /login
func (h *PageHandler) Login(c fiber.Ctx) error {
	return ok(c, fiber.Map{"page": "login"})
}

// GET /signup
func (h *PageHandler) Signup(c fiber.Ctx) error {
	return ok(c, fiber.Map{"page": "signup"})
}

// GET /dashboard
//
// RouteGate redirects authenticated visitors before this runs; reaching it
// means the gate was bypassed, so fall back to the login page.
func (h *PageHandler) Dashboard(c fiber.Ctx) error {
	if id, found := caller(c); found {
		return c.Redirect().Status(fiber.StatusFound).To(id.Home())
	}
	return c.Redirect().Status(fiber.StatusFound).To("/login")
}

// GET /dashboard/client
func (h *PageHandler) ClientHome(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	ctx := c.Context()

	prof, err := h.profiles.Get(ctx, id.UserID())
	if err != nil {
		return mapProfileError(c, err)
	}

	out := ClientDashboard{
		Profile:  prof,
		Upcoming: []domain.Appointment{},
		Past:     []domain.Appointment{},
		Notes:    []domain.Note{},
		Payments: []domain.Payment{},
	}

	cur, err := h.assignments.Current(ctx, id.UserID())
	switch {
	case err == nil:
		out.Therapist = cur
	case !errors.Is(err, assignment.ErrNoTherapist):
		return serverError(c, err)
	}

	// sessions without a role see the client page without role-scoped data
	if id.HasRole() {
		overview, err := h.appointments.Overview(ctx, id)
		if err != nil {
			return mapAppointmentError(c, err)
		}
		out.Upcoming, out.Past = overview.Upcoming, overview.Past

		notes, err := h.notes.List(ctx, id, nil)
		if err != nil {
			return mapNoteError(c, err)
		}
		out.Notes = notes

		payments, err := h.billing.Payments(ctx, id.UserID(), 1, recentPayments)
		if err != nil {
			return mapBillingError(c, err)
		}
		out.Payments = payments
	}

	if out.Unread, err = h.messages.UnreadCount(ctx, id.UserID()); err != nil {
		return serverError(c, err)
	}
	return ok(c, out)
}

// GET /dashboard/therapist
func (h *PageHandler) TherapistHome(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}
	ctx := c.Context()

	prof, err := h.profiles.Get(ctx, id.UserID())
	if err != nil {
		return mapProfileError(c, err)
	}

	pending := string(domain.StatusPending)
	pendingList, err := h.appointments.List(ctx, id, appointment.ListRequest{
		Status: &pending,
		View:   appointment.ViewUpcoming,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	upcoming, err := h.appointments.List(ctx, id, appointment.ListRequest{View: appointment.ViewUpcoming})
	if err != nil {
		return mapAppointmentError(c, err)
	}

	clients, err := h.assignments.Clients(ctx, id.UserID())
	if err != nil {
		return serverError(c, err)
	}
	if clients == nil {
		clients = []domain.Profile{}
	}

	unread, err := h.messages.UnreadCount(ctx, id.UserID())
	if err != nil {
		return serverError(c, err)
	}

	return ok(c, TherapistDashboard{
		Profile:  prof,
		Pending:  pendingList,
		Upcoming: upcoming,
		Clients:  clients,
		Unread:   unread,
	})
}
