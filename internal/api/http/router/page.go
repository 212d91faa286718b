package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/internal/api/http/middleware"
)

func (r *Router) registerPageRoutes(app *fiber.App, h *handler.PageHandler) {
	gate := middleware.RouteGate()

	app.Get(middleware.PathLogin, gate, h.Login)
	app.Get(middleware.PathSignup, gate, h.Signup)

	dash := app.Group(middleware.PathDashboard, gate)
	dash.Get("/", h.Dashboard)
	dash.Get("/client", h.ClientHome)
	dash.Get("/therapist", h.TherapistHome)
}
