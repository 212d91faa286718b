package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

func (r *Router) registerBillingRoutes(
	api fiber.Router,
	h *handler.BillingHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	b := api.Group("/billing")
	b.Post("/checkout", authRequired, requirePerm(authorize.ResourceBilling, authorize.ActionCreate), h.Checkout)
	b.Get("/payments", authRequired, requirePerm(authorize.ResourceBilling, authorize.ActionRead), h.Payments)
	// public; the gateway signature authenticates the caller
	b.Post("/webhook", h.Webhook)
}
