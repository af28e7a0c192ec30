package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/wellspring/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_items (
	id          TEXT PRIMARY KEY,
	content     TEXT NOT NULL,
	category    TEXT NOT NULL,
	author      TEXT NOT NULL DEFAULT '',
	citation    TEXT NOT NULL DEFAULT '',
	theme       TEXT NOT NULL DEFAULT '',
	is_approved INTEGER NOT NULL DEFAULT 0,
	is_used     INTEGER NOT NULL DEFAULT 0,
	is_archived INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_content_items_category ON content_items(category);
CREATE INDEX IF NOT EXISTS idx_content_items_created ON content_items(created_at);
`

// timeLayout is fixed-width so created_at sorts correctly as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore is a Store backed by a single SQLite file
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %v", model.ErrPersistence, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", model.ErrPersistence, err)
	}
	// One writer keeps batch inserts from tripping SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", model.ErrPersistence, err)
	}
	return nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FetchBaseline returns every stored item, archived ones included
func (s *SQLiteStore) FetchBaseline(ctx context.Context) ([]model.BaselineItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT content, category, author, citation, is_archived FROM content_items ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%w: query baseline: %v", model.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.BaselineItem
	for rows.Next() {
		var it model.BaselineItem
		var category string
		if err := rows.Scan(&it.Content, &category, &it.Author, &it.Citation, &it.IsArchived); err != nil {
			return nil, fmt.Errorf("%w: scan baseline: %v", model.ErrPersistence, err)
		}
		it.Category = model.Category(category)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read baseline: %v", model.ErrPersistence, err)
	}
	return items, nil
}

// InsertAccepted writes the batch in one transaction
func (s *SQLiteStore) InsertAccepted(ctx context.Context, items []model.AcceptedItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", model.ErrPersistence, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO content_items
		(id, content, category, author, citation, theme, is_approved, is_used, is_archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", model.ErrPersistence, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, it := range items {
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.Content, string(it.Category), it.Author, it.Citation, string(it.Theme),
			it.IsApproved, it.IsUsed, it.IsArchived, it.CreatedAt.UTC().Format(timeLayout),
		); err != nil {
			return fmt.Errorf("%w: insert %s: %v", model.ErrPersistence, it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", model.ErrPersistence, err)
	}
	return nil
}

// List returns stored items, newest first
func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]model.AcceptedItem, error) {
	var where []string
	var args []interface{}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(f.Category))
	}
	if !f.IncludeArchived {
		where = append(where, "is_archived = 0")
	}

	query := `SELECT id, content, category, author, citation, theme, is_approved, is_used, is_archived, created_at
		FROM content_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", model.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.AcceptedItem
	for rows.Next() {
		var it model.AcceptedItem
		var category, theme, created string
		if err := rows.Scan(&it.ID, &it.Content, &category, &it.Author, &it.Citation, &theme,
			&it.IsApproved, &it.IsUsed, &it.IsArchived, &created); err != nil {
			return nil, fmt.Errorf("%w: scan item: %v", model.ErrPersistence, err)
		}
		it.Category = model.Category(category)
		it.Theme = model.Theme(theme)
		if it.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("%w: parse created_at for %s: %v", model.ErrPersistence, it.ID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read items: %v", model.ErrPersistence, err)
	}
	return items, nil
}

// Archive marks an item archived
func (s *SQLiteStore) Archive(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE content_items SET is_archived = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: archive %s: %v", model.ErrPersistence, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: archive %s: %v", model.ErrPersistence, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
