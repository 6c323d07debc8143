package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jeffersonwarrior/reqcore/request"
)

// Entry is one recorded call outcome. URLs are stored redacted.
type Entry struct {
	ID         string
	RequestID  string
	Method     string
	URL        string
	Status     int
	DurationMS int64
	Error      string
	CreatedAt  time.Time
}

// OK reports whether the call produced a 2xx response.
func (e Entry) OK() bool {
	return e.Error == "" && e.Status >= 200 && e.Status < 300
}

// EntryFromResponse builds an entry for a successful call.
func EntryFromResponse(d *request.Descriptor, resp *request.Response) Entry {
	r := d.Redacted()
	return Entry{
		ID:         uuid.NewString(),
		RequestID:  d.ID,
		Method:     r.Method,
		URL:        r.URL,
		Status:     resp.Status,
		DurationMS: resp.Duration.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
}

// EntryFromError builds an entry for a failed call.
func EntryFromError(d *request.Descriptor, err *request.RequestError) Entry {
	r := d.Redacted()
	return Entry{
		ID:        uuid.NewString(),
		RequestID: d.ID,
		Method:    r.Method,
		URL:       r.URL,
		Status:    err.Status,
		Error:     err.Message,
		CreatedAt: time.Now().UTC(),
	}
}

// History stores call outcomes in SQLite
type History struct {
	db *sql.DB
}

// OpenHistory opens (or creates) the history database at dbPath.
func OpenHistory(dbPath string) (*History, error) {
	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	h := &History{db: db}
	if err := h.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return h, nil
}

// createTables creates the history schema
func (h *History) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL,
			method TEXT NOT NULL,
			url TEXT NOT NULL,
			status INTEGER NOT NULL,
			duration_ms INTEGER DEFAULT 0,
			error TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := h.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// Record stores a call outcome.
func (h *History) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	_, err := h.db.ExecContext(ctx, `
		INSERT INTO calls (id, request_id, method, url, status, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.RequestID, e.Method, e.URL, e.Status, e.DurationMS, nullString(e.Error), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record call: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, request_id, method, url, status, duration_ms, error, created_at
		FROM calls
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Method, &e.URL, &e.Status, &e.DurationMS, &errMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (h *History) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, `DELETE FROM calls WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
