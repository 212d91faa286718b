package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/thera_backend/config"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/internal/store/migrations"
	"github.com/Alijeyrad/thera_backend/pkg/authorize"
	billingpkg "github.com/Alijeyrad/thera_backend/pkg/billing"
	"github.com/Alijeyrad/thera_backend/pkg/database"
	"github.com/Alijeyrad/thera_backend/pkg/email"
	"github.com/Alijeyrad/thera_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/thera_backend/pkg/redis"
	s3pkg "github.com/Alijeyrad/thera_backend/pkg/s3"
	"github.com/Alijeyrad/thera_backend/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideDB),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideKV),
	fx.Provide(ProvideEventBus),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideBillingGateway),
)

func ProvideDB(lc fx.Lifecycle, cfg *config.Config) (*sql.DB, error) {
	dbCfg := database.FromCentralConfig(cfg.Database)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, err
	}

	if dbCfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		n, err := database.NewMigrator(db, migrations.Files).Up(ctx)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		slog.Info("database migrations applied", "count", n)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing main database connection")
			return db.Close()
		},
	})
	return db, nil
}

func ProvideStore(db *sql.DB) *store.Store {
	return store.New(db)
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideKV(rdb *redis.Client) *redispkg.KV {
	return redispkg.NewKV(rdb)
}

// ProvideEventBus selects the domain event bus from events.driver.
func ProvideEventBus(lc fx.Lifecycle, cfg *config.Config, rdb *redis.Client) (events.Bus, error) {
	var bus events.Bus
	switch cfg.Events.Driver {
	case config.EventsDriverNATS:
		nc, err := connectNATS(lc, cfg)
		if err != nil {
			return nil, err
		}
		bus = events.NewNATSBus(nc)
	case config.EventsDriverRedis:
		bus = events.NewRedisBus(rdb)
	default:
		return nil, errors.New("unknown events driver: " + cfg.Events.Driver)
	}

	slog.Info("event bus ready", "driver", cfg.Events.Driver)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing event bus")
			return bus.Close()
		},
	})
	return bus, nil
}

func connectNATS(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(cfg.Observability.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	dsn := database.NewDSN(cfg.CasbinDatabase)
	azCfg := authorize.FromCentralConfig(cfg.Authorization)
	enforcer, cleanup, err := authorize.NewEnforcer(azCfg, dsn)
	if err != nil {
		return nil, err
	}
	baseAuth, err := authorize.NewAuthorization(enforcer, azCfg.SuperadminBypass)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}

	var auth authorize.IAuthorization = baseAuth
	if azCfg.EnableAudit {
		auth = authorize.NewAuditedAuthorization(baseAuth, slog.Default())
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("cleaning up Casbin enforcer")
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

// ProvideS3Client returns nil when no bucket is configured; avatar uploads
// are then reported as unavailable.
func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	if cfg.S3.Bucket == "" {
		slog.Warn("object storage not configured; avatar uploads disabled")
		return nil, nil
	}
	return s3pkg.New(cfg.S3)
}

// ProvideBillingGateway returns nil without provider keys. Checkout and
// webhook requests then answer 503.
func ProvideBillingGateway(cfg *config.Config) (*billingpkg.Client, error) {
	gw, err := billingpkg.New(cfg.Billing)
	if errors.Is(err, billingpkg.ErrNotConfigured) {
		slog.Warn("billing not configured; checkout and webhook disabled")
		return nil, nil
	}
	return gw, err
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Observability.Tracing.OTLPEndpoint,
		OTLPInsecure:   cfg.Observability.Tracing.OTLPInsecure,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
