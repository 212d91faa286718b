package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

func (r *Router) registerAssignmentRoutes(
	api fiber.Router,
	h *handler.AssignmentHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	a := api.Group("/assignment", authRequired)
	a.Get("/", requirePerm(authorize.ResourceAssignment, authorize.ActionRead), h.Current)
	a.Put("/", requirePerm(authorize.ResourceAssignment, authorize.ActionUpdate), h.Assign)
	a.Delete("/", requirePerm(authorize.ResourceAssignment, authorize.ActionDelete), h.Unassign)

	api.Get("/clients", authRequired, requirePerm(authorize.ResourceClientRoster, authorize.ActionList), h.Clients)
}
