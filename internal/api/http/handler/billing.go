package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/service/billing"
)

const (
	headerStripeSignature = "Stripe-Signature"
	msgBillingNotReady    = "billing is not configured"
)

type BillingHandler struct {
	svc billing.Service
}

func NewBillingHandler(svc billing.Service) *BillingHandler {
	return &BillingHandler{svc: svc}
}

func mapBillingError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrNotConfigured):
		slog.WarnContext(c.Context(), "billing request while unconfigured", "path", c.Path())
		return serviceUnavailable(c, msgBillingNotReady)
	case errors.Is(err, billing.ErrInvalidSignature):
		slog.WarnContext(c.Context(), "billing webhook signature rejected", "error", err)
		return badRequest(c, "invalid signature")
	case errors.Is(err, billing.ErrInvalidPayload),
		errors.Is(err, billing.ErrInvalidMode),
		errors.Is(err, billing.ErrMissingPrice):
		return badRequest(c, err.Error())
	case errors.Is(err, billing.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, billing.ErrNotParticipant):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	default:
		return serverError(c, err)
	}
}

// POST /billing/checkout
func (h *BillingHandler) Checkout(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var body struct {
		PriceID       string `json:"price_id"`
		Mode          string `json:"mode"`
		AppointmentID string `json:"appointment_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	req := billing.CheckoutRequest{PriceID: body.PriceID, Mode: body.Mode}
	if body.AppointmentID != "" {
		apptID, err := uuid.Parse(body.AppointmentID)
		if err != nil {
			return badRequest(c, "invalid appointment_id")
		}
		req.AppointmentID = &apptID
	}

	res, err := h.svc.CreateCheckout(c.Context(), id.UserID(), req)
	if err != nil {
		return mapBillingError(c, err)
	}
	return created(c, res)
}

// GET /billing/payments?page=&per_page=
func (h *BillingHandler) Payments(c fiber.Ctx) error {
	id, found := caller(c)
	if !found {
		return unauthorized(c)
	}

	var q struct {
		Page    int `query:"page"`
		PerPage int `query:"per_page"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return badRequest(c, "invalid query parameters")
	}

	list, err := h.svc.Payments(c.Context(), id.UserID(), q.Page, q.PerPage)
	if err != nil {
		return mapBillingError(c, err)
	}
	return ok(c, list)
}

// POST /billing/webhook  (public; authenticated by signature)
func (h *BillingHandler) Webhook(c fiber.Ctx) error {
	// the signature covers the exact bytes received
	payload := append([]byte(nil), c.Body()...)

	res, err := h.svc.HandleWebhook(c.Context(), payload, c.Get(headerStripeSignature))
	if err != nil {
		return mapBillingError(c, err)
	}
	return ok(c, res)
}
