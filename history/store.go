// Package history persists evaluated runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one evaluated run.
type Entry struct {
	ID       int64         `json:"id"`
	Code     string        `json:"code"`
	Output   string        `json:"output"`
	Failed   bool          `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
	At       time.Time     `json:"at"`
}

// Store is a run log backed by one SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	code        TEXT    NOT NULL,
	output      TEXT    NOT NULL,
	failed      INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT    NOT NULL
)`

// Open opens (or creates) the database at path. ":memory:" works for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Printf("opened history database: %s", path)
	return &Store{db: db, path: path}, nil
}

// Record appends e and returns its row id. A zero At is stamped with now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (code, output, failed, duration_ms, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Code, e.Output, e.Failed, e.Duration.Milliseconds(), e.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, output, failed, duration_ms, created_at FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var (
			e     Entry
			ms    int64
			stamp string
		)
		if err := rows.Scan(&e.ID, &e.Code, &e.Output, &e.Failed, &ms, &stamp); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		e.At, err = time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return nil, fmt.Errorf("run %d: parse created_at: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return entries, nil
}

func (s *Store) Close() error {
	log.Printf("closing history database: %s", s.path)
	return s.db.Close()
}
