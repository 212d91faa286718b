package domain

import (
	"time"

	"github.com/google/uuid"
)

// MaxPostRunes bounds a community post body.
const MaxPostRunes = 2000

// CommunityGroup is a topic space; posts outside any group live in the main feed.
type CommunityGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID                uuid.UUID `json:"id"`
	AuthorID          uuid.UUID `json:"author_id"`
	AuthorName        string    `json:"author_name"`
	GroupID           *string   `json:"group_id,omitempty"`
	Body              string    `json:"body"`
	GratitudeCount    int       `json:"gratitude_count"`
	CreatedAt         time.Time `json:"created_at"`
	HasGivenGratitude bool      `json:"has_given_gratitude"`
}

type ContactSubmission struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type NewsletterSubscriber struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
