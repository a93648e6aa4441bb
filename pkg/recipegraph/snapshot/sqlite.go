package snapshot

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS graph_snapshots (
	project        TEXT    NOT NULL,
	label          TEXT    NOT NULL,
	sequence       INTEGER NOT NULL,
	saved_at       TEXT    NOT NULL,
	format_version INTEGER NOT NULL,
	node_count     INTEGER NOT NULL,
	link_count     INTEGER NOT NULL,
	next_id        INTEGER NOT NULL,
	document       BLOB    NOT NULL,
	PRIMARY KEY (project, label)
)`, `
CREATE INDEX IF NOT EXISTS idx_graph_snapshots_sequence
	ON graph_snapshots(project, sequence)`,
}

// SQLiteStore persists snapshots to a SQLite database file. Node and link
// counts are kept in their own columns so List never reads documents.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) a snapshot database.
// The path should be a file path (e.g., "./snapshots.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRow(
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM graph_snapshots WHERE project = ?`,
		snap.Project,
	).Scan(&seq); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	savedAt := time.Now().UTC()

	if _, err := tx.Exec(`
		INSERT INTO graph_snapshots
			(project, label, sequence, saved_at, format_version, node_count, link_count, next_id, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project, label) DO UPDATE SET
			sequence       = excluded.sequence,
			saved_at       = excluded.saved_at,
			format_version = excluded.format_version,
			node_count     = excluded.node_count,
			link_count     = excluded.link_count,
			next_id        = excluded.next_id,
			document       = excluded.document
	`, snap.Project, snap.Label, seq, savedAt.Format(time.RFC3339Nano),
		snap.Version, snap.Nodes, snap.Links, snap.NextID, snap.Document); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	snap.Sequence = seq
	snap.SavedAt = savedAt
	return nil
}

// Load implements Store. Snapshots of another format version fail with
// ErrUnsupportedVersion.
func (s *SQLiteStore) Load(project, label string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	snap := Snapshot{Project: project, Label: label}
	var savedAt string
	err := s.db.QueryRow(`
		SELECT sequence, saved_at, format_version, node_count, link_count, next_id, document
		FROM graph_snapshots
		WHERE project = ? AND label = ?
	`, project, label).Scan(&snap.Sequence, &savedAt, &snap.Version,
		&snap.Nodes, &snap.Links, &snap.NextID, &snap.Document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := checkVersion(snap.Version); err != nil {
		return nil, err
	}
	snap.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	return &snap, nil
}

// List implements Store.
func (s *SQLiteStore) List(project string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT label, sequence, saved_at, node_count, link_count, next_id, LENGTH(document)
		FROM graph_snapshots
		WHERE project = ?
		ORDER BY sequence
	`, project)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		info := Info{Project: project}
		var savedAt string
		if err := rows.Scan(&info.Label, &info.Sequence, &savedAt,
			&info.Nodes, &info.Links, &info.NextID, &info.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot info: %w", err)
		}
		info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(project string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.db.Exec(`
		DELETE FROM graph_snapshots
		WHERE project = ? AND sequence NOT IN (
			SELECT sequence FROM graph_snapshots
			WHERE project = ?
			ORDER BY sequence DESC
			LIMIT ?
		)
	`, project, project, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return int(n), nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(project, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(
		`DELETE FROM graph_snapshots WHERE project = ? AND label = ?`, project, label,
	); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// DeleteProject implements Store.
func (s *SQLiteStore) DeleteProject(project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM graph_snapshots WHERE project = ?`, project); err != nil {
		return fmt.Errorf("delete project snapshots: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
