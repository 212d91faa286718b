package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

var groupColumns = []any{"id", "name", "category", "description", "created_at"}

// ListGroups returns every community group, newest first.
func (s *Store) ListGroups(ctx context.Context) ([]domain.CommunityGroup, error) {
	rows, err := queryDS(ctx, s.db, s.from("community_groups").Select(groupColumns...).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc()))
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	out := []domain.CommunityGroup{}
	for rows.Next() {
		var g domain.CommunityGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Category, &g.Description, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGroup(ctx context.Context, id string) (*domain.CommunityGroup, error) {
	var g domain.CommunityGroup
	err := queryRowDS(ctx, s.db, s.from("community_groups").Select(groupColumns...).
		Where(goqu.C("id").Eq(id)),
		&g.ID, &g.Name, &g.Category, &g.Description, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// InsertPost stores a post. A groupID that names no group yields ErrNotFound.
func (s *Store) InsertPost(ctx context.Context, authorID uuid.UUID, groupID *string, body string) (*domain.Post, error) {
	p := &domain.Post{ID: newID(), AuthorID: authorID, GroupID: groupID, Body: body, CreatedAt: s.now().UTC()}
	_, err := execDS(ctx, s.db, s.insert("posts").Rows(goqu.Record{
		"id":              p.ID,
		"author_id":       p.AuthorID,
		"group_id":        nullString(p.GroupID),
		"body":            p.Body,
		"gratitude_count": 0,
		"created_at":      p.CreatedAt,
	}))
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// Feed returns posts newest first with the author's name and whether viewer
// has given gratitude. A nil groupID is the main feed of every post.
func (s *Store) Feed(ctx context.Context, viewer uuid.UUID, groupID *string, page Page) ([]domain.Post, error) {
	limit, offset := page.limitOffset()
	var where []goqu.Expression
	if groupID != nil {
		where = append(where, goqu.I("p.group_id").Eq(*groupID))
	}
	given := s.dialect.From(goqu.T("post_gratitude").As("g")).Select(goqu.L("1")).
		Where(
			goqu.I("g.post_id").Eq(goqu.I("p.id")),
			goqu.I("g.user_id").Eq(viewer),
		)

	rows, err := queryDS(ctx, s.db, s.from(goqu.T("posts").As("p")).
		Select(
			goqu.I("p.id"), goqu.I("p.author_id"), goqu.I("a.full_name"), goqu.I("p.group_id"), goqu.I("p.body"),
			goqu.I("p.gratitude_count"), goqu.I("p.created_at"),
			goqu.L("EXISTS ?", given).As("has_given"),
		).
		Join(goqu.T("profiles").As("a"), goqu.On(goqu.I("a.id").Eq(goqu.I("p.author_id")))).
		Where(where...).
		Order(goqu.I("p.created_at").Desc(), goqu.I("p.id").Desc()).
		Limit(limit).Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := []domain.Post{}
	for rows.Next() {
		var p domain.Post
		var group sql.NullString
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &group, &p.Body, &p.GratitudeCount, &p.CreatedAt, &p.HasGivenGratitude); err != nil {
			return nil, err
		}
		if group.Valid {
			p.GroupID = &group.String
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ToggleGratitude adds the viewer's reaction or removes it if present, keeping
// gratitude_count in step. It returns the new state and count.
func (s *Store) ToggleGratitude(ctx context.Context, postID, viewer uuid.UUID) (given bool, count int, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		removed, err := execDS(ctx, tx, s.delete("post_gratitude").
			Where(goqu.C("post_id").Eq(postID), goqu.C("user_id").Eq(viewer)))
		if err != nil {
			return fmt.Errorf("remove gratitude: %w", err)
		}

		delta := -1
		if removed == 0 {
			if _, err := execDS(ctx, tx, s.insert("post_gratitude").Rows(goqu.Record{
				"post_id":    postID,
				"user_id":    viewer,
				"created_at": s.now().UTC(),
			})); err != nil {
				return fmt.Errorf("add gratitude: %w", err)
			}
			delta = 1
			given = true
		}

		return queryRowDS(ctx, tx, s.update("posts").
			Set(goqu.Record{"gratitude_count": goqu.L("gratitude_count + ?", delta)}).
			Where(goqu.C("id").Eq(postID)).
			Returning("gratitude_count"), &count)
	})
	return given, count, err
}
