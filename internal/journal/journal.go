package journal

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one lifecycle occurrence worth keeping for diagnostics. The
// journal is append-only and write-mostly: it is never consulted to decide
// whether a service is alive (the OS process table is the only ground truth).
type Event struct {
	ID       int64     `json:"id"`
	At       time.Time `json:"at"`
	Service  string    `json:"service"`
	Kind     string    `json:"kind"`
	PID      int       `json:"pid,omitempty"`
	LaunchID string    `json:"launch_id,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

const (
	KindSpawned         = "spawned"
	KindSpawnFailed     = "spawn_failed"
	KindReady           = "ready"
	KindReadyTimeout    = "ready_timeout"
	KindTerminated      = "terminated"
	KindTerminateFailed = "terminate_failed"
	KindSwept           = "swept"
)

// Journal stores events in a local SQLite file (modernc.org/sqlite, CGO-free).
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path. ":memory:" works for
// tests.
func Open(path string) (*Journal, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty journal path")
	}
	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = db.Exec("PRAGMA busy_timeout=3000;")
	j := &Journal{db: db}
	if err := j.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at TIMESTAMP NOT NULL,
			service TEXT NOT NULL,
			kind TEXT NOT NULL,
			pid INTEGER NOT NULL DEFAULT 0,
			launch_id TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);`)
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_events_service ON events(service);`)
	return err
}

func (j *Journal) Close() error { return j.db.Close() }

// Record appends one event. Best-effort callers may ignore the error; a full
// disk must not block a stop request.
func (j *Journal) Record(ctx context.Context, ev Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events(at, service, kind, pid, launch_id, detail)
		VALUES(?, ?, ?, ?, ?, ?);`,
		at.UTC(), ev.Service, ev.Kind, ev.PID, ev.LaunchID, ev.Detail)
	return err
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, at, service, kind, pid, launch_id, detail
		FROM events ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.At, &ev.Service, &ev.Kind, &ev.PID, &ev.LaunchID, &ev.Detail); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
