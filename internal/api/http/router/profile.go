package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
)

func (r *Router) registerProfileRoutes(
	api fiber.Router,
	ph *handler.ProfileHandler,
	avh *handler.AvailabilityHandler,
	authRequired fiber.Handler,
	requirePerm permFunc,
) {
	me := api.Group("/profiles/me", authRequired)
	me.Get("/", requirePerm(authorize.ResourceProfile, authorize.ActionRead), ph.Me)
	me.Patch("/", requirePerm(authorize.ResourceProfile, authorize.ActionUpdate), ph.UpdateMe)
	me.Post("/avatar", requirePerm(authorize.ResourceProfile, authorize.ActionUpdate), ph.AvatarUpload)

	therapists := api.Group("/therapists", authRequired)
	therapists.Get("/", requirePerm(authorize.ResourceProfile, authorize.ActionRead), ph.ListTherapists)
	therapists.Get("/:id", requirePerm(authorize.ResourceProfile, authorize.ActionRead), ph.GetTherapist)
	therapists.Get("/:id/availability", requirePerm(authorize.ResourceAvailability, authorize.ActionRead), avh.Get)
	therapists.Get("/:id/slots", requirePerm(authorize.ResourceAvailability, authorize.ActionRead), avh.Slots)

	api.Put("/availability", authRequired, requirePerm(authorize.ResourceAvailability, authorize.ActionUpdate), avh.Set)
}
