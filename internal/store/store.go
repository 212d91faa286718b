// Package store is the PostgreSQL persistence layer. Queries are built with
// goqu (postgres dialect, prepared placeholders) and run on database/sql.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/pkg/database"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrOverlap   = errors.New("time range overlaps an active appointment")
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqler interface {
	ToSQL() (string, []any, error)
}

type Store struct {
	db      *sql.DB
	dialect goqu.DialectWrapper
	now     func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		dialect: goqu.Dialect("postgres"),
		now:     time.Now,
	}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) from(table any) *goqu.SelectDataset {
	return s.dialect.From(table).Prepared(true)
}

func (s *Store) insert(table string) *goqu.InsertDataset {
	return s.dialect.Insert(table).Prepared(true)
}

func (s *Store) update(table string) *goqu.UpdateDataset {
	return s.dialect.Update(table).Prepared(true)
}

func (s *Store) delete(table string) *goqu.DeleteDataset {
	return s.dialect.Delete(table).Prepared(true)
}

func newID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return translate(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func execDS(ctx context.Context, q querier, ds sqler) (int64, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func queryDS(ctx context.Context, q querier, ds sqler) (*sql.Rows, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func queryRowDS(ctx context.Context, q querier, ds sqler, dest ...any) error {
	query, args, err := ds.ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return translate(q.QueryRowContext(ctx, query, args...).Scan(dest...))
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	switch database.ErrorCode(err) {
	case database.CodeUniqueViolation:
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case database.CodeExclusionViolation:
		return fmt.Errorf("%w: %v", ErrOverlap, err)
	case database.CodeForeignKey:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// Page normalises pagination: page < 1 becomes 1, perPage outside 1..100 becomes 20.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) Normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		p.PerPage = 20
	}
	return p
}

func (p Page) limitOffset() (uint, uint) {
	n := p.Normalized()
	return uint(n.PerPage), uint((n.Page - 1) * n.PerPage)
}

func nullString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
