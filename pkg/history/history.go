// Package history keeps a local log of successful searches in SQLite. It
// feeds the recent searches list of the web UI and the history command.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/rubiojr/aurosearch/pkg/db"
	"github.com/rubiojr/aurosearch/pkg/filters"
)

// timeLayout is fixed width so that searched_at sorts chronologically as text.
// Rows are parsed with time.RFC3339Nano, which also accepts this layout.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded search.
type Entry struct {
	ID         int64             `json:"id"`
	Query      string            `json:"query"`
	Selection  filters.Selection `json:"selection"`
	Results    int               `json:"results"`
	SearchedAt time.Time         `json:"searched_at"`
}

// Store is a SQLite backed search history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA temp_store = memory",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if err := db.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}
	return &Store{db: conn}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a search. Blank queries are ignored.
func (s *Store) Record(ctx context.Context, query string, sel filters.Selection, results int, at time.Time) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if sel.SearchType == "" {
		sel.SearchType = filters.SearchAll
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (query, author, grp, book_title, search_type, results, searched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		query, sel.Author, sel.Group, sel.BookTitle, string(sel.SearchType), results,
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// Recent returns up to limit searches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, author, grp, book_title, search_type, results, searched_at
		 FROM searches ORDER BY searched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var searchType, at string
		if err := rows.Scan(&e.ID, &e.Query, &e.Selection.Author, &e.Selection.Group,
			&e.Selection.BookTitle, &searchType, &e.Results, &at); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Selection.SearchType = filters.SearchType(searchType)
		if e.SearchedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parsing searched_at %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all recorded searches.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM searches"); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}
