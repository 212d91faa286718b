package contact

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/crypto"
	"github.com/Alijeyrad/thera_backend/pkg/util/codes"
)

type fakeStore struct {
	contacts    []domain.ContactSubmission
	subscribers map[string]string // token hash -> email
}

func newFakeStore() *fakeStore { return &fakeStore{subscribers: map[string]string{}} }

func (f *fakeStore) InsertContact(_ context.Context, c domain.ContactSubmission) (*domain.ContactSubmission, error) {
	c.ID = uuid.New()
	f.contacts = append(f.contacts, c)
	return &c, nil
}

func (f *fakeStore) InsertSubscriber(_ context.Context, email, hash string) (*domain.NewsletterSubscriber, error) {
	for _, e := range f.subscribers {
		if e == email {
			return nil, store.ErrDuplicate
		}
	}
	f.subscribers[hash] = email
	return &domain.NewsletterSubscriber{ID: uuid.New(), Email: email, TokenHash: hash}, nil
}

func (f *fakeStore) DeleteSubscriberByToken(_ context.Context, hash string) error {
	if _, ok := f.subscribers[hash]; !ok {
		return store.ErrNotFound
	}
	delete(f.subscribers, hash)
	return nil
}

type fakeBus struct {
	subjects []string
	payloads []any
}

func (b *fakeBus) Publish(_ context.Context, subject string, payload any) error {
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, payload)
	return nil
}

func setup() (Service, *fakeStore, *fakeBus) {
	st := newFakeStore()
	bus := &fakeBus{}
	return New(st, bus, codes.NewGenerator(codes.Config{URLSafeTokens: true})), st, bus
}

func TestSubmitContact(t *testing.T) {
	svc, st, bus := setup()

	sub, err := svc.SubmitContact(context.Background(), SubmitRequest{
		FirstName: " Ada ", LastName: "Lovelace", Email: "Ada@Example.com", Message: "Do you offer evening sessions?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", sub.FirstName)
	assert.Equal(t, "ada@example.com", sub.Email)
	require.Len(t, st.contacts, 1)

	require.Equal(t, []string{events.SubjectContactSubmitted}, bus.subjects)
	ev, ok := bus.payloads[0].(events.ContactEvent)
	require.True(t, ok)
	assert.Equal(t, sub.ID, ev.SubmissionID)
}

func TestSubmitContactValidation(t *testing.T) {
	svc, st, bus := setup()
	ok := SubmitRequest{FirstName: "A", LastName: "B", Email: "a@b.co", Message: "hi"}

	tests := []struct {
		name string
		edit func(r *SubmitRequest)
		want error
	}{
		{"missing first", func(r *SubmitRequest) { r.FirstName = " " }, ErrMissingFields},
		{"missing last", func(r *SubmitRequest) { r.LastName = "" }, ErrMissingFields},
		{"missing email", func(r *SubmitRequest) { r.Email = "" }, ErrMissingFields},
		{"missing message", func(r *SubmitRequest) { r.Message = "\n" }, ErrMissingFields},
		{"bad email", func(r *SubmitRequest) { r.Email = "not-an-email" }, ErrInvalidEmail},
		{"display name", func(r *SubmitRequest) { r.Email = "Ada <a@b.co>" }, ErrInvalidEmail},
		{"no tld", func(r *SubmitRequest) { r.Email = "a@localhost" }, ErrInvalidEmail},
		{"too long", func(r *SubmitRequest) { r.Message = strings.Repeat("x", maxMessageRunes+1) }, ErrMessageTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ok
			tt.edit(&req)
			_, err := svc.SubmitContact(context.Background(), req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, st.contacts)
	assert.Empty(t, bus.subjects)
}

func TestNewsletterLifecycle(t *testing.T) {
	svc, st, _ := setup()
	ctx := context.Background()

	sub, err := svc.SubscribeNewsletter(ctx, "Reader@Example.org")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.org", sub.Email)
	require.NotEmpty(t, sub.UnsubscribeToken)

	// only the hash is stored
	_, stored := st.subscribers[crypto.Hash(sub.UnsubscribeToken)]
	assert.True(t, stored)
	_, raw := st.subscribers[sub.UnsubscribeToken]
	assert.False(t, raw)

	_, err = svc.SubscribeNewsletter(ctx, "reader@example.org")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.Equal(t, "You are already subscribed!", err.Error())

	require.NoError(t, svc.Unsubscribe(ctx, sub.UnsubscribeToken))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, sub.UnsubscribeToken), ErrSubscriberNotFound)
	assert.ErrorIs(t, svc.Unsubscribe(ctx, ""), ErrSubscriberNotFound)

	_, err = svc.SubscribeNewsletter(ctx, "reader@example.org")
	assert.NoError(t, err)
}
