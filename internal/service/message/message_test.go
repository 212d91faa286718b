package message

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/store"
)

type fakeStore struct {
	profiles map[uuid.UUID]bool
	messages []domain.Message
}

func (f *fakeStore) GetProfile(_ context.Context, id uuid.UUID) (*domain.Profile, error) {
	if !f.profiles[id] {
		return nil, store.ErrNotFound
	}
	return &domain.Profile{ID: id}, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, from, to uuid.UUID, body string) (*domain.Message, error) {
	m := domain.Message{ID: uuid.New(), SenderID: from, ReceiverID: to, Body: body, CreatedAt: time.Now()}
	f.messages = append(f.messages, m)
	return &m, nil
}

func (f *fakeStore) Conversation(_ context.Context, viewer, other uuid.UUID) ([]domain.Message, error) {
	var out []domain.Message
	for i := range f.messages {
		m := &f.messages[i]
		if !m.Involves(viewer, other) {
			continue
		}
		if m.ReceiverID == viewer {
			m.IsRead = true
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeStore) UnreadCount(_ context.Context, viewer uuid.UUID) (int, error) {
	n := 0
	for _, m := range f.messages {
		if m.ReceiverID == viewer && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// memBus delivers synchronously to matching subscribers.
type memBus struct {
	mu        sync.Mutex
	subs      map[int]memSub
	next      int
	published []string
}

type memSub struct {
	pattern string
	h       events.Handler
}

type memSubscription struct {
	bus *memBus
	id  int
}

func (s memSubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
	return nil
}

func newMemBus() *memBus { return &memBus{subs: map[int]memSub{}} }

func (b *memBus) Publish(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.published = append(b.published, subject)
	var targets []events.Handler
	for _, s := range b.subs {
		if events.Matches(s.pattern, subject) {
			targets = append(targets, s.h)
		}
	}
	b.mu.Unlock()
	for _, h := range targets {
		h(ctx, subject, data)
	}
	return nil
}

func (b *memBus) Subscribe(pattern string, h events.Handler) (events.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.subs[b.next] = memSub{pattern: pattern, h: h}
	return memSubscription{bus: b, id: b.next}, nil
}

func (b *memBus) Close() error { return nil }

func (b *memBus) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func setup() (Service, *fakeStore, *memBus, uuid.UUID, uuid.UUID) {
	a, b := uuid.New(), uuid.New()
	st := &fakeStore{profiles: map[uuid.UUID]bool{a: true, b: true}}
	bus := newMemBus()
	return New(st, bus), st, bus, a, b
}

func TestSendValidation(t *testing.T) {
	svc, _, _, a, b := setup()
	ctx := context.Background()

	tests := []struct {
		name     string
		receiver uuid.UUID
		body     string
		want     error
	}{
		{"empty", b, "   \n", ErrEmptyBody},
		{"too long", b, strings.Repeat("é", domain.MaxMessageRunes+1), ErrBodyTooLong},
		{"self", a, "hi", ErrSelfMessage},
		{"unknown receiver", uuid.New(), "hi", ErrReceiverNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(ctx, a, tt.receiver, tt.body)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// exactly the limit counts runes, not bytes
	_, err := svc.Send(ctx, a, b, strings.Repeat("é", domain.MaxMessageRunes))
	assert.NoError(t, err)
}

func TestSendPublishesAndTrims(t *testing.T) {
	svc, st, bus, a, b := setup()

	m, err := svc.Send(context.Background(), a, b, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", m.Body)
	assert.Len(t, st.messages, 1)
	assert.Equal(t, []string{events.Conversation(a, b), events.MessageNew(b)}, bus.published)
}

func TestConversationMarksRead(t *testing.T) {
	svc, _, _, a, b := setup()
	ctx := context.Background()

	_, err := svc.Send(ctx, a, b, "one")
	require.NoError(t, err)
	_, err = svc.Send(ctx, b, a, "two")
	require.NoError(t, err)

	n, err := svc.UnreadCount(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msgs, err := svc.Conversation(ctx, b, a)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Body)

	n, err = svc.UnreadCount(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// a has not opened the conversation yet
	n, err = svc.UnreadCount(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	empty, err := svc.Conversation(ctx, a, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSubscribeStreamsBothDirectionsAndDedupes(t *testing.T) {
	svc, _, bus, a, b := setup()
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := svc.Subscribe(ctx, a, b)
	require.NoError(t, err)

	m1, err := svc.Send(context.Background(), a, b, "from a")
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), b, a, "from b")
	require.NoError(t, err)

	// at-least-once redelivery of the first message
	require.NoError(t, bus.Publish(context.Background(), events.Conversation(a, b), m1))

	got := []string{(<-stream).Body, (<-stream).Body}
	assert.Equal(t, []string{"from a", "from b"}, got)

	select {
	case extra := <-stream:
		t.Fatalf("unexpected duplicate delivery: %+v", extra)
	default:
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-stream
		return !open
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, bus.subscribers())
}

func TestSubscribeIgnoresOtherPairs(t *testing.T) {
	svc, st, _, a, b := setup()
	c := uuid.New()
	st.profiles[c] = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := svc.Subscribe(ctx, a, b)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), c, b, "not for this view")
	require.NoError(t, err)

	select {
	case m := <-stream:
		t.Fatalf("received message of another pair: %+v", m)
	default:
	}
}
