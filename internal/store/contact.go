package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

func (s *Store) InsertContact(ctx context.Context, c domain.ContactSubmission) (*domain.ContactSubmission, error) {
	c.ID = newID()
	c.CreatedAt = s.now().UTC()
	_, err := execDS(ctx, s.db, s.insert("contact_submissions").Rows(goqu.Record{
		"id":         c.ID,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"message":    c.Message,
		"created_at": c.CreatedAt,
	}))
	if err != nil {
		return nil, fmt.Errorf("insert contact submission: %w", err)
	}
	return &c, nil
}

// InsertSubscriber returns ErrDuplicate when the email is already subscribed.
func (s *Store) InsertSubscriber(ctx context.Context, email, tokenHash string) (*domain.NewsletterSubscriber, error) {
	sub := &domain.NewsletterSubscriber{
		ID:        newID(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		TokenHash: tokenHash,
		CreatedAt: s.now().UTC(),
	}
	_, err := execDS(ctx, s.db, s.insert("newsletter_subscribers").Rows(goqu.Record{
		"id":         sub.ID,
		"email":      sub.Email,
		"token_hash": sub.TokenHash,
		"created_at": sub.CreatedAt,
	}))
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) DeleteSubscriberByToken(ctx context.Context, tokenHash string) error {
	n, err := execDS(ctx, s.db, s.delete("newsletter_subscribers").Where(goqu.C("token_hash").Eq(tokenHash)))
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
