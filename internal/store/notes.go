package store

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

// NoteRecord is a note as stored: the body is ciphertext.
type NoteRecord struct {
	domain.Note
	BodyEncrypted string
}

func (s *Store) InsertNote(ctx context.Context, n NoteRecord) (*NoteRecord, error) {
	n.ID = newID()
	n.CreatedAt = s.now().UTC()
	_, err := execDS(ctx, s.db, s.insert("notes").Rows(goqu.Record{
		"id":             n.ID,
		"therapist_id":   n.TherapistID,
		"client_id":      n.ClientID,
		"title":          n.Title,
		"body_encrypted": n.BodyEncrypted,
		"note_type":      string(n.Type),
		"visibility":     string(n.Visibility),
		"created_at":     n.CreatedAt,
	}))
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return &n, nil
}

type NoteFilter struct {
	TherapistID *uuid.UUID
	ClientID    *uuid.UUID
	SharedOnly  bool
}

// ListNotes returns notes newest first. SharedOnly restricts to shared visibility.
func (s *Store) ListNotes(ctx context.Context, f NoteFilter) ([]NoteRecord, error) {
	var where []goqu.Expression
	if f.TherapistID != nil {
		where = append(where, goqu.C("therapist_id").Eq(*f.TherapistID))
	}
	if f.ClientID != nil {
		where = append(where, goqu.C("client_id").Eq(*f.ClientID))
	}
	if f.SharedOnly {
		where = append(where, goqu.C("visibility").Eq(string(domain.VisibilityShared)))
	}

	rows, err := queryDS(ctx, s.db, s.from("notes").
		Select("id", "therapist_id", "client_id", "title", "body_encrypted", "note_type", "visibility", "created_at").
		Where(where...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	out := []NoteRecord{}
	for rows.Next() {
		var n NoteRecord
		if err := rows.Scan(&n.ID, &n.TherapistID, &n.ClientID, &n.Title, &n.BodyEncrypted, &n.Type, &n.Visibility, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
