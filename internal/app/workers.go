package app

import (
	"context"
	"errors"
	"log/slog"

	"go.uber.org/fx"

	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/service/notification"
)

// WorkerModule registers the event consumers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Bus      events.Bus
	NotifSvc notification.Service
}

func RegisterWorkers(p WorkerParams) {
	var subs []events.Subscription

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			subs, err = startNotificationWorker(p.Bus, p.NotifSvc)
			return err
		},
		OnStop: func(ctx context.Context) error {
			slog.Debug("stopping event workers", "subscriptions", len(subs))
			var errs []error
			for _, s := range subs {
				errs = append(errs, s.Unsubscribe())
			}
			return errors.Join(errs...)
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

func startNotificationWorker(bus events.Bus, svc notification.Service) ([]events.Subscription, error) {
	handle := notificationHandler(svc)

	subs := make([]events.Subscription, 0, len(notification.Patterns))
	for _, pattern := range notification.Patterns {
		sub, err := bus.Subscribe(pattern, handle)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, err
		}
		subs = append(subs, sub)
	}

	slog.Info("notification_worker: started", "patterns", len(notification.Patterns))
	return subs, nil
}

func notificationHandler(svc notification.Service) events.Handler {
	return func(ctx context.Context, subject string, data []byte) {
		if err := svc.Handle(ctx, subject, data); err != nil {
			slog.WarnContext(ctx, "notification_worker: delivery failed", "subject", subject, "error", err)
		}
	}
}
