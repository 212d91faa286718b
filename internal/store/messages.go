package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

var messageColumns = []any{"id", "sender_id", "receiver_id", "body", "is_read", "created_at"}

func (s *Store) InsertMessage(ctx context.Context, senderID, receiverID uuid.UUID, body string) (*domain.Message, error) {
	m := &domain.Message{
		ID:         newID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  s.now().UTC(),
	}
	_, err := execDS(ctx, s.db, s.insert("messages").Rows(goqu.Record{
		"id":          m.ID,
		"sender_id":   m.SenderID,
		"receiver_id": m.ReceiverID,
		"body":        m.Body,
		"is_read":     false,
		"created_at":  m.CreatedAt,
	}))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// Conversation marks the messages sent to viewer by other as read, then
// returns the whole exchange in ascending order.
func (s *Store) Conversation(ctx context.Context, viewer, other uuid.UUID) ([]domain.Message, error) {
	var out []domain.Message
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := execDS(ctx, tx, s.update("messages").
			Set(goqu.Record{"is_read": true}).
			Where(
				goqu.C("receiver_id").Eq(viewer),
				goqu.C("sender_id").Eq(other),
				goqu.C("is_read").IsFalse(),
			)); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}

		rows, err := queryDS(ctx, tx, s.from("messages").Select(messageColumns...).
			Where(goqu.Or(
				goqu.And(goqu.C("sender_id").Eq(viewer), goqu.C("receiver_id").Eq(other)),
				goqu.And(goqu.C("sender_id").Eq(other), goqu.C("receiver_id").Eq(viewer)),
			)).
			Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()))
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		defer rows.Close()

		out = []domain.Message{}
		for rows.Next() {
			var m domain.Message
			if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UnreadCount(ctx context.Context, viewer uuid.UUID) (int, error) {
	var n int
	err := queryRowDS(ctx, s.db, s.from("messages").Select(goqu.COUNT("*")).
		Where(goqu.C("receiver_id").Eq(viewer), goqu.C("is_read").IsFalse()), &n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
