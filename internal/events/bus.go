// Package events carries domain events and live message fan-out over NATS
// or Redis pub/sub. Payloads are JSON.
package events

import (
	"context"
)

// Handler receives the concrete subject and the raw JSON payload.
type Handler func(ctx context.Context, subject string, data []byte)

type Subscription interface {
	Unsubscribe() error
}

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type Bus interface {
	Publisher
	Subscribe(pattern string, h Handler) (Subscription, error)
	Close() error
}
