// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/llmchat/internal/model"
	"github.com/jeranaias/llmchat/internal/util"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("history store is closed")
	// ErrSessionNotFound is returned when no session matches an ID prefix.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAmbiguousSession is returned when an ID prefix matches several sessions.
	ErrAmbiguousSession = errors.New("session prefix is ambiguous")
)

// PreviewWidth is the display width of session previews.
const PreviewWidth = 50

// =============================================================================
// RECORD TYPES
// =============================================================================

// Record is one stored transcript entry.
type Record struct {
	ID        string
	SessionID string
	TurnID    string
	Role      string
	Label     string
	Content   string
	IsError   bool
	CreatedAt time.Time
}

// SessionMeta summarizes one program run for listing.
type SessionMeta struct {
	ID         string
	StartedAt  time.Time
	UpdatedAt  time.Time
	EntryCount int
	Preview    string // First user entry, truncated
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore persists transcript entries to SQLite. Every store belongs
// to one session; reads span all sessions.
type HistoryStore struct {
	mu        sync.Mutex
	db        *sql.DB
	sessionID string
}

// Open opens (creating if needed) the history database at path and starts
// a new session.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &HistoryStore{db: db, sessionID: uuid.NewString()}, nil
}

// SessionID returns the current session's ID.
func (s *HistoryStore) SessionID() string {
	return s.sessionID
}

// Record stores a transcript entry under the current session. It
// satisfies surface.Recorder.
func (s *HistoryStore) Record(e model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO entries (id, session_id, turn_id, role, label, content, is_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.sessionID, e.TurnID, e.Kind.String(), e.Label, e.Text,
		e.Kind == model.EntryError, at.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record entry: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent entries across all sessions,
// oldest first. A limit of zero or less returns everything.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, COALESCE(turn_id, ''), role, label, content, is_error, created_at
		 FROM (SELECT * FROM entries ORDER BY seq DESC LIMIT ?)
		 ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SessionRecords returns every entry of the session whose ID starts with
// prefix, oldest first, together with the full session ID. An empty
// prefix selects the most recently updated session.
func (s *HistoryStore) SessionRecords(ctx context.Context, prefix string) (string, []Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return "", nil, ErrClosed
	}

	id, err := s.resolveSession(ctx, prefix)
	if err != nil {
		return "", nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, COALESCE(turn_id, ''), role, label, content, is_error, created_at
		 FROM entries WHERE session_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return "", nil, fmt.Errorf("failed to query session: %w", err)
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	if err != nil {
		return "", nil, err
	}
	return id, out, nil
}

// resolveSession maps an ID prefix to one session ID. Callers hold s.mu.
func (s *HistoryStore) resolveSession(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		var id string
		err := s.db.QueryRowContext(ctx,
			`SELECT session_id FROM entries ORDER BY seq DESC LIMIT 1`).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		if err != nil {
			return "", fmt.Errorf("failed to find latest session: %w", err)
		}
		return id, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT session_id FROM entries WHERE substr(session_id, 1, ?) = ? LIMIT 2`,
		len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousSession, prefix)
	}
}

// Sessions lists sessions, most recently updated first.
func (s *HistoryStore) Sessions(ctx context.Context, limit int) ([]SessionMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, MIN(created_at), MAX(created_at), COUNT(*),
		        COALESCE((SELECT content FROM entries f
		                  WHERE f.session_id = e.session_id AND f.role = 'user'
		                  ORDER BY f.seq LIMIT 1), '')
		 FROM entries e
		 GROUP BY session_id
		 ORDER BY MAX(seq) DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionMeta
	for rows.Next() {
		var m SessionMeta
		var started, updated int64
		var first string
		if err := rows.Scan(&m.ID, &started, &updated, &m.EntryCount, &first); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		m.StartedAt = time.Unix(0, started)
		m.UpdatedAt = time.Unix(0, updated)
		m.Preview = preview(first)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Prune deletes all but the newest keep entries and returns how many were
// removed.
func (s *HistoryStore) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE seq NOT IN (SELECT seq FROM entries ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database. Later calls return ErrClosed.
func (s *HistoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var r Record
		var nanos int64
		if err := rows.Scan(&r.ID, &r.SessionID, &r.TurnID, &r.Role, &r.Label, &r.Content, &r.IsError, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		r.CreatedAt = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

func preview(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return "(empty)"
	}
	return util.TruncateWidth(content, PreviewWidth)
}
