package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
)

func (r *Router) registerContactRoutes(api fiber.Router, h *handler.ContactHandler) {
	api.Post("/contact", h.Submit)

	news := api.Group("/newsletter")
	news.Post("/", h.Subscribe)
	news.Delete("/:token", h.Unsubscribe)
}
