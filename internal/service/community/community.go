package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Body    string
	GroupID string // optional
}

type FeedRequest struct {
	GroupID string // optional; empty is the main feed
	Page    int
	PerPage int
}

type GratitudeResult struct {
	PostID         uuid.UUID `json:"post_id"`
	Given          bool      `json:"given"`
	GratitudeCount int       `json:"gratitude_count"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	ListGroups(ctx context.Context) ([]domain.CommunityGroup, error)
	GetGroup(ctx context.Context, id string) (*domain.CommunityGroup, error)
	InsertPost(ctx context.Context, authorID uuid.UUID, groupID *string, body string) (*domain.Post, error)
	Feed(ctx context.Context, viewer uuid.UUID, groupID *string, page store.Page) ([]domain.Post, error)
	ToggleGratitude(ctx context.Context, postID, viewer uuid.UUID) (bool, int, error)
}

type Service interface {
	Groups(ctx context.Context) ([]domain.CommunityGroup, error)
	Create(ctx context.Context, authorID uuid.UUID, req CreateRequest) (*domain.Post, error)
	Feed(ctx context.Context, viewer uuid.UUID, req FeedRequest) ([]domain.Post, error)
	ToggleGratitude(ctx context.Context, viewer, postID uuid.UUID) (*GratitudeResult, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type communityService struct {
	store Store
}

func New(st Store) Service {
	return &communityService{store: st}
}

func (s *communityService) Groups(ctx context.Context) ([]domain.CommunityGroup, error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if groups == nil {
		groups = []domain.CommunityGroup{}
	}
	return groups, nil
}

func (s *communityService) Create(ctx context.Context, authorID uuid.UUID, req CreateRequest) (*domain.Post, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > domain.MaxPostRunes {
		return nil, ErrBodyTooLong
	}
	p, err := s.store.InsertPost(ctx, authorID, groupRef(req.GroupID), body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

func (s *communityService) Feed(ctx context.Context, viewer uuid.UUID, req FeedRequest) ([]domain.Post, error) {
	group := groupRef(req.GroupID)
	if group != nil {
		if _, err := s.store.GetGroup(ctx, *group); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrGroupNotFound
			}
			return nil, fmt.Errorf("get group: %w", err)
		}
	}

	posts, err := s.store.Feed(ctx, viewer, group, store.Page{Page: req.Page, PerPage: req.PerPage})
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	if posts == nil {
		posts = []domain.Post{}
	}
	return posts, nil
}

func (s *communityService) ToggleGratitude(ctx context.Context, viewer, postID uuid.UUID) (*GratitudeResult, error) {
	given, count, err := s.store.ToggleGratitude(ctx, postID, viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("toggle gratitude: %w", err)
	}
	return &GratitudeResult{PostID: postID, Given: given, GratitudeCount: count}, nil
}

func groupRef(id string) *string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil
	}
	return &id
}
