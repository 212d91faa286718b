package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

func (r *Router) registerMessageRoutes(
	api fiber.Router,
	h *handler.MessageHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	msgs := api.Group("/messages", authRequired)
	msgs.Post("/", requirePerm(authorize.ResourceMessage, authorize.ActionCreate), h.Send)
	// registered before /:peer so "unread" is not taken for a peer id
	msgs.Get("/unread", requirePerm(authorize.ResourceMessage, authorize.ActionRead), h.Unread)
	msgs.Get("/:peer", requirePerm(authorize.ResourceMessage, authorize.ActionRead), h.Conversation)
	msgs.Get("/:peer/stream", requirePerm(authorize.ResourceMessage, authorize.ActionRead), h.Stream)
}
