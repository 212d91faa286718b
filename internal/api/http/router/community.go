package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

func (r *Router) registerCommunityRoutes(
	api fiber.Router,
	h *handler.CommunityHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	api.Get("/groups", authRequired, requirePerm(authorize.ResourcePost, authorize.ActionList), h.Groups)

	posts := api.Group("/posts", authRequired)
	posts.Get("/", requirePerm(authorize.ResourcePost, authorize.ActionList), h.Feed)
	posts.Post("/", requirePerm(authorize.ResourcePost, authorize.ActionCreate), h.Create)
	posts.Post("/:id/gratitude", requirePerm(authorize.ResourcePost, authorize.ActionUpdate), h.ToggleGratitude)
}
