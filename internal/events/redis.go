package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus on Redis pub/sub. Patterns with "*" use PSUBSCRIBE;
// each match is re-checked with NATS token semantics before delivery.
type RedisBus struct {
	rdb *redis.Client

	mu   sync.Mutex
	subs map[*redisSubscription]struct{}
}

func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb, subs: make(map[*redisSubscription]struct{})}
}

func (b *RedisBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, subject, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(pattern string, h Handler) (Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	var ps *redis.PubSub
	if strings.ContainsAny(pattern, "*>") {
		ps = b.rdb.PSubscribe(ctx, globPattern(pattern))
	} else {
		ps = b.rdb.Subscribe(ctx, pattern)
	}
	// Wait for the subscription confirmation so no publish is missed.
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", pattern, err)
	}

	sub := &redisSubscription{bus: b, ps: ps, cancel: cancel, done: make(chan struct{})}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer close(sub.done)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !Matches(pattern, msg.Channel) {
					continue
				}
				h(ctx, msg.Channel, []byte(msg.Payload))
			}
		}
	}()
	return sub, nil
}

// Close ends every open subscription.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	subs := make([]*redisSubscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if err := s.Unsubscribe(); err != nil {
			slog.Warn("events: closing redis subscription failed", "err", err)
		}
	}
	return nil
}

// globPattern maps NATS wildcards onto a Redis glob.
func globPattern(pattern string) string {
	return strings.ReplaceAll(pattern, ">", "*")
}

type redisSubscription struct {
	bus    *RedisBus
	ps     *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
		<-s.done
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
	return err
}
