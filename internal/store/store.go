// Package store persists admin pages and uploaded file metadata in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ozitag/tager-admin-pages/pkg/fields"
	"github.com/ozitag/tager-admin-pages/pkg/page"
)

var (
	// ErrNotFound is returned when a page or file does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidParent is returned when a parent would create a cycle.
	ErrInvalidParent = errors.New("store: invalid parent")
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	parent_id INTEGER REFERENCES pages(id),
	position INTEGER NOT NULL,
	status TEXT NOT NULL,
	title TEXT NOT NULL,
	path TEXT NOT NULL,
	template TEXT NOT NULL DEFAULT '',
	datetime TEXT,
	record JSON NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages(parent_id, position);
CREATE INDEX IF NOT EXISTS idx_pages_template ON pages(template);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	mime_type TEXT NOT NULL DEFAULT ''
);
`

// Record holds the page attributes that are stored as one JSON document.
// Template fields are kept in their incoming wire shape.
type Record struct {
	Excerpt                 *string                `json:"excerpt,omitempty"`
	Body                    *string                `json:"body,omitempty"`
	ImageID                 *int64                 `json:"imageId,omitempty"`
	PageTitle               *string                `json:"pageTitle,omitempty"`
	PageDescription         *string                `json:"pageDescription,omitempty"`
	PageKeywords            *string                `json:"pageKeywords,omitempty"`
	OpenGraphTitle          *string                `json:"openGraphTitle,omitempty"`
	OpenGraphDescription    *string                `json:"openGraphDescription,omitempty"`
	OpenGraphImageID        *int64                 `json:"openGraphImageId,omitempty"`
	SitemapPriority         *float64               `json:"sitemapPriority,omitempty"`
	SitemapFrequency        *string                `json:"sitemapFrequency,omitempty"`
	HiddenFromSeoIndexation bool                   `json:"hiddenFromSeoIndexation,omitempty"`
	TemplateFields          []fields.IncomingField `json:"templateFields"`
}

// Page is a stored page row.
type Page struct {
	ID       int64
	ParentID *int64
	Position int
	Status   page.Status
	Title    string
	Path     string
	Template string
	Datetime *string
	Record   Record
}

// Store is a SQLite-backed page repository.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the database at dsn, for example "pages.db" or
// ":memory:".
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", dsn, err)
	}
	// One connection keeps :memory: databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
