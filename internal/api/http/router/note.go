package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

func (r *Router) registerNoteRoutes(
	api fiber.Router,
	h *handler.NoteHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	notes := api.Group("/notes", authRequired)
	notes.Post("/", requirePerm(authorize.ResourceNote, authorize.ActionCreate), h.Create)
	notes.Get("/", requirePerm(authorize.ResourceNote, authorize.ActionRead), h.List)
}
