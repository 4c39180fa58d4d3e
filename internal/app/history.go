package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryEvent is one recorded step of a hunt: a status transition or a
// command the user confirmed.
type HistoryEvent struct {
	ID     int64
	At     time.Time
	Kind   string // "status" or "command"
	Phase  Phase
	Action ActionKind
	Detail string
}

// HistoryStore keeps a local, append-only record of hunts in SQLite. The
// backend holds no history across restarts; this is the client's own memory
// of what it asked for and what it saw.
type HistoryStore struct {
	Root   string
	dbPath string

	mu   sync.Mutex
	db   *sql.DB
	once sync.Once
	err  error
}

// DefaultHistoryRoot resolves the per-user data directory for the history
// database.
func DefaultHistoryRoot() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "hunt")
}

func NewHistoryStore(root string) (*HistoryStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultHistoryRoot()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &HistoryStore{
		Root:   root,
		dbPath: filepath.Join(root, "history.db"),
	}, nil
}

func (h *HistoryStore) open() (*sql.DB, error) {
	h.once.Do(func() {
		db, err := sql.Open("sqlite", h.dbPath)
		if err != nil {
			h.err = err
			return
		}
		// A single writer is enough; the TUI is the only client.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS events (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	at     TEXT NOT NULL,
	kind   TEXT NOT NULL,
	phase  TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL DEFAULT '',
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
`); err != nil {
			_ = db.Close()
			h.err = err
			return
		}
		h.db = db
	})
	return h.db, h.err
}

// RecordStatus appends a status transition.
func (h *HistoryStore) RecordStatus(ctx context.Context, st ProcessStatus) error {
	return h.insert(ctx, st.Timestamp, "status", string(st.Phase), "", "")
}

// RecordCommand appends a confirmed command dispatch.
func (h *HistoryStore) RecordCommand(ctx context.Context, kind ActionKind, detail string) error {
	return h.insert(ctx, time.Now(), "command", "", string(kind), detail)
}

func (h *HistoryStore) insert(ctx context.Context, at time.Time, kind, phase, action, detail string) error {
	db, err := h.open()
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = db.ExecContext(ctx,
		`INSERT INTO events (at, kind, phase, action, detail) VALUES (?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339Nano), kind, phase, action, detail)
	if err != nil {
		return fmt.Errorf("record history event: %w", err)
	}
	return nil
}

// Recent returns the newest events, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]HistoryEvent, error) {
	db, err := h.open()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := db.QueryContext(ctx,
		`SELECT id, at, kind, phase, action, detail FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []HistoryEvent
	for rows.Next() {
		var (
			ev HistoryEvent
			at string
		)
		if err := rows.Scan(&ev.ID, &at, &ev.Kind, (*string)(&ev.Phase), (*string)(&ev.Action), &ev.Detail); err != nil {
			return nil, err
		}
		ev.At, _ = time.Parse(time.RFC3339Nano, at)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close releases the database handle. Safe to call without a prior write.
func (h *HistoryStore) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}
