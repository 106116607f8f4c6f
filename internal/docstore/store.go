package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cocreator/internal/config"
	"cocreator/internal/services"
)

// Store persists per-session summary documents in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry describes one indexed session as listed by List.
type Entry struct {
	SessionID string
	CreatedAt time.Time
	UpdatedAt time.Time
	Document  map[string]any
}

// Open initializes or connects to the session index database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.WorkspaceDir, "sessions.db")
	return OpenPath(dbPath)
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Merge folds the partial document into the stored document for the session.
// Top-level fields present in partial replace stored fields; fields absent
// from partial are preserved, so sequential stages can each contribute their
// slice of the summary without clobbering earlier contributions.
func (s *Store) Merge(ctx context.Context, sessionID string, partial map[string]any) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return services.Wrap(services.ErrWorkspace, "", "persist index", "session id is required", nil)
	}
	if len(partial) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	document := make(map[string]any)
	var createdAt string
	err = tx.QueryRowContext(ctx,
		`SELECT document_json, created_at FROM session_documents WHERE session_id = ?`,
		sessionID,
	).Scan(&raw{&document}, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		createdAt = time.Now().UTC().Format(time.RFC3339Nano)
	case err != nil:
		return fmt.Errorf("read session document: %w", err)
	}

	for key, value := range partial {
		document[key] = value
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode session document: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_documents (session_id, document_json, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(session_id) DO UPDATE SET
             document_json = excluded.document_json,
             updated_at = excluded.updated_at`,
		sessionID, string(encoded), createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("write session document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// Get returns the merged document for the session.
func (s *Store) Get(ctx context.Context, sessionID string) (map[string]any, error) {
	document := make(map[string]any)
	err := s.db.QueryRowContext(ctx,
		`SELECT document_json FROM session_documents WHERE session_id = ?`,
		strings.TrimSpace(sessionID),
	).Scan(&raw{&document})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "", "read index", fmt.Sprintf("no document for session %s", sessionID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read session document: %w", err)
	}
	return document, nil
}

// List returns every indexed session ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, document_json, created_at, updated_at
         FROM session_documents ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list session documents: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var createdAt, updatedAt string
		entry.Document = make(map[string]any)
		if err := rows.Scan(&entry.SessionID, &raw{&entry.Document}, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session document: %w", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entry.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session documents: %w", err)
	}
	return entries, nil
}

// raw scans a JSON text column into a map.
type raw struct {
	target *map[string]any
}

func (r *raw) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		return nil
	default:
		return fmt.Errorf("unexpected document column type %T", src)
	}
	return json.Unmarshal(data, r.target)
}
