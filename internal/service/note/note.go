package note

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/identity"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/crypto"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	ClientID   uuid.UUID
	Title      string
	Body       string
	Type       string
	Visibility string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	IsAssigned(ctx context.Context, clientID, therapistID uuid.UUID) (bool, error)
	InsertNote(ctx context.Context, n store.NoteRecord) (*store.NoteRecord, error)
	ListNotes(ctx context.Context, f store.NoteFilter) ([]store.NoteRecord, error)
}

type Service interface {
	Create(ctx context.Context, author identity.Identity, req CreateRequest) (*domain.Note, error)
	// ListForClient returns only notes the therapist shared with the client.
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.Note, error)
	ListForTherapist(ctx context.Context, therapistID uuid.UUID, clientID *uuid.UUID) ([]domain.Note, error)
	// List dispatches on the viewer's role.
	List(ctx context.Context, viewer identity.Identity, clientID *uuid.UUID) ([]domain.Note, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type noteService struct {
	store Store
	key   []byte // AES-256 key for note bodies
}

func New(st Store, encryptionKeyHex string) (Service, error) {
	key, err := crypto.KeyFromHex(encryptionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("note service: invalid encryption key: %w", err)
	}
	return &noteService{store: st, key: key}, nil
}

func (s *noteService) Create(ctx context.Context, author identity.Identity, req CreateRequest) (*domain.Note, error) {
	if !author.Role().IsTherapist() {
		return nil, ErrTherapistOnly
	}
	title := strings.TrimSpace(req.Title)
	body := strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		return nil, ErrMissingFields
	}
	noteType, err := domain.ParseNoteType(req.Type)
	if err != nil {
		return nil, err
	}
	visibility, err := domain.ParseVisibility(req.Visibility)
	if err != nil {
		return nil, err
	}

	ok, err := s.store.IsAssigned(ctx, req.ClientID, author.UserID())
	if err != nil {
		return nil, fmt.Errorf("check assignment: %w", err)
	}
	if !ok {
		return nil, ErrNotAssigned
	}

	enc, err := crypto.Encrypt(s.key, body)
	if err != nil {
		return nil, fmt.Errorf("encrypt note: %w", err)
	}

	rec, err := s.store.InsertNote(ctx, store.NoteRecord{
		Note: domain.Note{
			TherapistID: author.UserID(),
			ClientID:    req.ClientID,
			Title:       title,
			Type:        noteType,
			Visibility:  visibility,
		},
		BodyEncrypted: enc,
	})
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	n := rec.Note
	n.Body = body
	return &n, nil
}

func (s *noteService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.Note, error) {
	return s.list(ctx, store.NoteFilter{ClientID: &clientID, SharedOnly: true})
}

func (s *noteService) ListForTherapist(ctx context.Context, therapistID uuid.UUID, clientID *uuid.UUID) ([]domain.Note, error) {
	return s.list(ctx, store.NoteFilter{TherapistID: &therapistID, ClientID: clientID})
}

func (s *noteService) List(ctx context.Context, viewer identity.Identity, clientID *uuid.UUID) ([]domain.Note, error) {
	switch viewer.Role() {
	case identity.RoleTherapist:
		return s.ListForTherapist(ctx, viewer.UserID(), clientID)
	case identity.RoleClient:
		return s.ListForClient(ctx, viewer.UserID())
	default:
		return nil, ErrRoleRequired
	}
}

func (s *noteService) list(ctx context.Context, f store.NoteFilter) ([]domain.Note, error) {
	recs, err := s.store.ListNotes(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	out := make([]domain.Note, 0, len(recs))
	for _, r := range recs {
		if f.SharedOnly && r.Visibility != domain.VisibilityShared {
			continue
		}
		body, err := crypto.Decrypt(s.key, r.BodyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("decrypt note %s: %w", r.ID, err)
		}
		n := r.Note
		n.Body = body
		out = append(out, n)
	}
	return out, nil
}
