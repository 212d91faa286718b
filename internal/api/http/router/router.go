package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/Alijeyrad/thera_backend/config"
	"github.com/Alijeyrad/thera_backend/internal/api/http/handler"
	"github.com/Alijeyrad/thera_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/thera_backend/internal/service/appointment"
	"github.com/Alijeyrad/thera_backend/internal/service/assignment"
	"github.com/Alijeyrad/thera_backend/internal/service/auth"
	"github.com/Alijeyrad/thera_backend/internal/service/availability"
	"github.com/Alijeyrad/thera_backend/internal/service/billing"
	"github.com/Alijeyrad/thera_backend/internal/service/community"
	"github.com/Alijeyrad/thera_backend/internal/service/contact"
	"github.com/Alijeyrad/thera_backend/internal/service/message"
	"github.com/Alijeyrad/thera_backend/internal/service/note"
	"github.com/Alijeyrad/thera_backend/internal/service/profile"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/thera_backend/pkg/paseto"
	"github.com/Alijeyrad/thera_backend/pkg/redis"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg       *config.Config
	Auth      authorize.IAuthorization
	KV        *redis.KV
	PasetoMgr *pasetotoken.Manager

	AuthSvc         auth.Service
	ProfileSvc      profile.Service
	AvailabilitySvc availability.Service
	AssignmentSvc   assignment.Service
	AppointmentSvc  appointment.Service
	MessageSvc      message.Service
	NoteSvc         note.Service
	CommunitySvc    community.Service
	BillingSvc      billing.Service
	ContactSvc      contact.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Identity for every request below; never rejects on its own
	cookieName := r.p.Cfg.Authentication.SessionCookieName
	app.Use(middleware.Identify(r.p.PasetoMgr, r.p.KV, cookieName))

	authRequired := middleware.AuthRequired()
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Handlers
	authH := handler.NewAuthHandler(r.p.AuthSvc, handler.CookieConfig{
		Name:   cookieName,
		Secure: r.p.Cfg.Server.Environment == "production",
	})
	pageH := handler.NewPageHandler(r.p.ProfileSvc, r.p.AssignmentSvc, r.p.AppointmentSvc, r.p.NoteSvc, r.p.MessageSvc, r.p.BillingSvc)
	profileH := handler.NewProfileHandler(r.p.ProfileSvc)
	availabilityH := handler.NewAvailabilityHandler(r.p.AvailabilitySvc)
	assignmentH := handler.NewAssignmentHandler(r.p.AssignmentSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)
	messageH := handler.NewMessageHandler(r.p.MessageSvc)
	noteH := handler.NewNoteHandler(r.p.NoteSvc)
	communityH := handler.NewCommunityHandler(r.p.CommunitySvc)
	billingH := handler.NewBillingHandler(r.p.BillingSvc)
	contactH := handler.NewContactHandler(r.p.ContactSvc)

	// 4. Page tree (role-gated redirects)
	r.registerPageRoutes(app, pageH)

	api := app.Group("/api/v1")

	// 5. Delegate to sub-files
	r.registerAuthRoutes(api, authH, authRequired)
	r.registerProfileRoutes(api, profileH, availabilityH, authRequired, requirePerm)
	r.registerAssignmentRoutes(api, assignmentH, authRequired, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, authRequired, requirePerm)
	r.registerMessageRoutes(api, messageH, authRequired, requirePerm)
	r.registerNoteRoutes(api, noteH, authRequired, requirePerm)
	r.registerCommunityRoutes(api, communityH, authRequired, requirePerm)
	r.registerBillingRoutes(api, billingH, authRequired, requirePerm)
	r.registerContactRoutes(api, contactH)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
