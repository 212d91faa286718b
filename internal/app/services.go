package app

import (
	"strings"
	"time"

	"go.uber.org/fx"

	"github.com/Alijeyrad/thera_backend/config"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/service/appointment"
	"github.com/Alijeyrad/thera_backend/internal/service/assignment"
	"github.com/Alijeyrad/thera_backend/internal/service/auth"
	"github.com/Alijeyrad/thera_backend/internal/service/availability"
	"github.com/Alijeyrad/thera_backend/internal/service/billing"
	"github.com/Alijeyrad/thera_backend/internal/service/community"
	"github.com/Alijeyrad/thera_backend/internal/service/contact"
	"github.com/Alijeyrad/thera_backend/internal/service/message"
	"github.com/Alijeyrad/thera_backend/internal/service/note"
	"github.com/Alijeyrad/thera_backend/internal/service/notification"
	"github.com/Alijeyrad/thera_backend/internal/service/profile"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
	billingpkg "github.com/Alijeyrad/thera_backend/pkg/billing"
	"github.com/Alijeyrad/thera_backend/pkg/email"
	pasetotoken "github.com/Alijeyrad/thera_backend/pkg/paseto"
	redispkg "github.com/Alijeyrad/thera_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/thera_backend/pkg/s3"
	"github.com/Alijeyrad/thera_backend/pkg/sms"
	"github.com/Alijeyrad/thera_backend/pkg/util/codes"
	"github.com/Alijeyrad/thera_backend/pkg/util/password"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePasetoManager,
		ProvidePasswordHasher,
		ProvideAuthService,
		ProvideProfileService,
		ProvideAvailabilityService,
		ProvideAssignmentService,
		ProvideAppointmentService,
		ProvideMessageService,
		ProvideNoteService,
		ProvideCommunityService,
		ProvideBillingService,
		ProvideContactService,
		ProvideNotificationService,
	),
)

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

func ProvidePasswordHasher(cfg *config.Config) *password.Hasher {
	return password.NewHasher(password.FromCentralConfig(cfg.Password))
}

func ProvideAuthService(
	st *store.Store,
	kv *redispkg.KV,
	paseto *pasetotoken.Manager,
	hasher *password.Hasher,
	authz authorize.IAuthorization,
	mailer *email.Client,
	cfg *config.Config,
) auth.Service {
	return auth.New(st, kv, paseto, hasher, authz, mailer, auth.Config{
		ResetTTL:        time.Duration(cfg.Authentication.ResetTTLMinutes) * time.Minute,
		DashboardURL:    publicBaseURL(cfg),
		DefaultTimezone: cfg.Booking.DefaultTimezone,
	})
}

func ProvideProfileService(st *store.Store, s3 *s3pkg.Client) profile.Service {
	if s3 == nil {
		return profile.New(st, nil)
	}
	return profile.New(st, s3)
}

func ProvideAvailabilityService(st *store.Store, cfg *config.Config) availability.Service {
	return availability.New(st, availability.Config{
		DurationsMinutes: cfg.Booking.DurationsMinutes,
		MaxDays:          cfg.Booking.MaxSlotDays,
	})
}

func ProvideAssignmentService(st *store.Store) assignment.Service {
	return assignment.New(st)
}

func ProvideAppointmentService(st *store.Store, bus events.Bus, cfg *config.Config) appointment.Service {
	return appointment.New(st, bus, appointment.Config{
		DurationsMinutes:    cfg.Booking.DurationsMinutes,
		EnforceAvailability: cfg.Booking.EnforceAvailability,
	})
}

func ProvideMessageService(st *store.Store, bus events.Bus) message.Service {
	return message.New(st, bus)
}

func ProvideNoteService(st *store.Store, cfg *config.Config) (note.Service, error) {
	return note.New(st, cfg.Authentication.EncryptionKey)
}

func ProvideCommunityService(st *store.Store) community.Service {
	return community.New(st)
}

func ProvideBillingService(st *store.Store, gw *billingpkg.Client, cfg *config.Config) billing.Service {
	if gw == nil {
		return billing.New(st, nil, cfg.Billing)
	}
	return billing.New(st, gw, cfg.Billing)
}

func ProvideContactService(st *store.Store, bus events.Bus, cfg *config.Config) contact.Service {
	return contact.New(st, bus, codes.NewGenerator(codes.FromCentralConfig(cfg.Codes)))
}

func ProvideNotificationService(st *store.Store, mailer *email.Client, smsCli *sms.Client, cfg *config.Config) notification.Service {
	return notification.New(st, mailer, smsCli, notification.Config{
		SupportInbox: cfg.Email.SupportInbox,
		DashboardURL: publicBaseURL(cfg),
	})
}

// publicBaseURL is where links in outbound mail point.
func publicBaseURL(cfg *config.Config) string {
	if u := strings.TrimRight(cfg.Billing.PublicBaseURL, "/"); u != "" {
		return u
	}
	if cfg.Server.Domain != "" {
		return "https://" + cfg.Server.Domain
	}
	return ""
}
