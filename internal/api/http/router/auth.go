package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
)

func (r *Router) registerAuthRoutes(api fiber.Router, h *handler.AuthHandler, authRequired fiber.Handler) {
	group := api.Group("/auth")
	group.Post("/register", h.Register)
	group.Post("/login", h.Login)
	group.Post("/refresh", h.Refresh)
	group.Post("/logout", authRequired, h.Logout)
	group.Post("/password/forgot", h.ForgotPassword)
	group.Post("/password/reset", h.ResetPassword)
}
