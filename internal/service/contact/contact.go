package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/events"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/crypto"
)

const maxMessageRunes = 5000

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type SubmitRequest struct {
	FirstName string
	LastName  string
	Email     string
	Message   string
}

type Subscription struct {
	Email string `json:"email"`
	// UnsubscribeToken is only ever returned here; the store keeps its hash.
	UnsubscribeToken string `json:"unsubscribe_token"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	InsertContact(ctx context.Context, c domain.ContactSubmission) (*domain.ContactSubmission, error)
	InsertSubscriber(ctx context.Context, email, tokenHash string) (*domain.NewsletterSubscriber, error)
	DeleteSubscriberByToken(ctx context.Context, tokenHash string) error
}

// TokenSource issues unsubscribe tokens.
type TokenSource interface {
	Token() (string, error)
}

type Service interface {
	SubmitContact(ctx context.Context, req SubmitRequest) (*domain.ContactSubmission, error)
	SubscribeNewsletter(ctx context.Context, email string) (*Subscription, error)
	Unsubscribe(ctx context.Context, token string) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type contactService struct {
	store  Store
	bus    events.Publisher
	tokens TokenSource
}

func New(st Store, bus events.Publisher, tokens TokenSource) Service {
	return &contactService{store: st, bus: bus, tokens: tokens}
}

func (s *contactService) SubmitContact(ctx context.Context, req SubmitRequest) (*domain.ContactSubmission, error) {
	in := domain.ContactSubmission{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Message:   strings.TrimSpace(req.Message),
	}
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Message == "" {
		return nil, ErrMissingFields
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	in.Email = email
	if utf8.RuneCountInString(in.Message) > maxMessageRunes {
		return nil, ErrMessageTooLong
	}

	sub, err := s.store.InsertContact(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("store contact submission: %w", err)
	}

	ev := events.ContactEvent{
		SubmissionID: sub.ID,
		FirstName:    sub.FirstName,
		LastName:     sub.LastName,
		Email:        sub.Email,
		Message:      sub.Message,
	}
	if err := s.bus.Publish(ctx, events.SubjectContactSubmitted, ev); err != nil {
		slog.WarnContext(ctx, "failed to publish contact submission", "submission_id", sub.ID, "error", err)
	}
	return sub, nil
}

func (s *contactService) SubscribeNewsletter(ctx context.Context, email string) (*Subscription, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("generate unsubscribe token: %w", err)
	}

	sub, err := s.store.InsertSubscriber(ctx, addr, crypto.Hash(token))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("store subscriber: %w", err)
	}
	return &Subscription{Email: sub.Email, UnsubscribeToken: token}, nil
}

func (s *contactService) Unsubscribe(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrSubscriberNotFound
	}
	if err := s.store.DeleteSubscriberByToken(ctx, crypto.Hash(token)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSubscriberNotFound
		}
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}

// normalizeEmail accepts a bare address and returns it lower-cased.
func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingFields
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
