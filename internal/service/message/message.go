package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/observability"
)

const streamBuffer = 16

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	InsertMessage(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*domain.Message, error)
	Conversation(ctx context.Context, viewer, other uuid.UUID) ([]domain.Message, error)
	UnreadCount(ctx context.Context, viewer uuid.UUID) (int, error)
}

type Service interface {
	Send(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*domain.Message, error)
	// Conversation lists the pair's messages oldest first and marks the
	// viewer's incoming ones read.
	Conversation(ctx context.Context, viewer, other uuid.UUID) ([]domain.Message, error)
	// Subscribe streams new messages of the pair until ctx is done, then
	// closes the channel.
	Subscribe(ctx context.Context, viewer, other uuid.UUID) (<-chan domain.Message, error)
	UnreadCount(ctx context.Context, viewer uuid.UUID) (int, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type messageService struct {
	store Store
	bus   events.Bus
}

func New(st Store, bus events.Bus) Service {
	return &messageService{store: st, bus: bus}
}

func (s *messageService) Send(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > domain.MaxMessageRunes {
		return nil, ErrBodyTooLong
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	if _, err := s.store.GetProfile(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	msg, err := s.store.InsertMessage(ctx, senderID, receiverID, body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	observability.RecordMessage(ctx)

	for _, subject := range []string{events.Conversation(senderID, receiverID), events.MessageNew(receiverID)} {
		if err := s.bus.Publish(ctx, subject, msg); err != nil {
			slog.WarnContext(ctx, "failed to publish message", "subject", subject, "message_id", msg.ID, "error", err)
		}
	}
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, viewer, other uuid.UUID) ([]domain.Message, error) {
	msgs, err := s.store.Conversation(ctx, viewer, other)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

func (s *messageService) UnreadCount(ctx context.Context, viewer uuid.UUID) (int, error) {
	n, err := s.store.UnreadCount(ctx, viewer)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *messageService) Subscribe(ctx context.Context, viewer, other uuid.UUID) (<-chan domain.Message, error) {
	out := make(chan domain.Message, streamBuffer)

	var (
		mu     sync.Mutex
		closed bool
		seen   = map[uuid.UUID]struct{}{}
	)

	sub, err := s.bus.Subscribe(events.Conversation(viewer, other), func(_ context.Context, subject string, data []byte) {
		var m domain.Message
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn("dropping malformed message event", "subject", subject, "error", err)
			return
		}
		if !m.Involves(viewer, other) {
			return
		}

		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		if _, dup := seen[m.ID]; dup {
			return
		}
		seen[m.ID] = struct{}{}

		select {
		case out <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		close(out)
		return nil, fmt.Errorf("subscribe conversation: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			slog.Debug("unsubscribe conversation", "error", err)
		}
		mu.Lock()
		closed = true
		close(out)
		mu.Unlock()
	}()

	return out, nil
}
