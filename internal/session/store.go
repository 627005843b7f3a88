// Package session makes unsynced shield edits survive a reload or crash
// without contacting the server. One snapshot row per case id; writes
// are best-effort and never block or fail the caller.
package session

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/scanline-ai/shieldrev/internal/model"
)

// Snapshot is the durability record for one case.
type Snapshot struct {
	CaseID        string         `json:"caseId"`
	Shields       []model.Shield `json:"shields"`
	LastModified  time.Time      `json:"lastModified"`
	PendingAction string         `json:"pendingAction,omitempty"`
}

// Store persists session snapshots in a local SQLite database. It is an
// explicit object injected into the review engine, not ambient state;
// two stores pointed at different paths are fully independent.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// Open initializes the snapshot database at the given path, creating
// parent directories and the schema as needed.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating session dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS session_snapshots (
		case_id       TEXT PRIMARY KEY,
		payload       TEXT NOT NULL,
		last_modified DATETIME NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes the snapshot for a case. Fire and forget: storage errors
// are logged and swallowed — durability is an optimization the user
// should never have to reason about.
func (s *Store) Save(caseID string, overrides []model.Shield, pendingAction string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		CaseID:        caseID,
		Shields:       overrides,
		LastModified:  time.Now().UTC(),
		PendingAction: pendingAction,
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Warn("session snapshot marshal failed", zap.String("case_id", caseID), zap.Error(err))
		return
	}

	_, err = s.db.Exec(
		`INSERT INTO session_snapshots (case_id, payload, last_modified) VALUES (?, ?, ?)
		 ON CONFLICT(case_id) DO UPDATE SET payload = excluded.payload, last_modified = excluded.last_modified`,
		caseID, string(payload), snap.LastModified,
	)
	if err != nil {
		s.log.Warn("session snapshot write failed", zap.String("case_id", caseID), zap.Error(err))
	}
}

// Load reads the snapshot for a case. Returns nil, false when absent,
// unparsable, or when the stored caseId does not match the key (a
// defensive check against row collisions).
func (s *Store) Load(caseID string) (*Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM session_snapshots WHERE case_id = ?", caseID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.log.Warn("session snapshot read failed", zap.String("case_id", caseID), zap.Error(err))
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		s.log.Warn("session snapshot unparsable, ignoring", zap.String("case_id", caseID), zap.Error(err))
		return nil, false
	}
	if snap.CaseID != caseID {
		s.log.Warn("session snapshot case mismatch, ignoring",
			zap.String("key", caseID), zap.String("stored", snap.CaseID))
		return nil, false
	}
	return &snap, true
}

// Clear removes the snapshot for a case. Called whenever everything has
// been confirmed synced upstream. Best-effort like Save.
func (s *Store) Clear(caseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM session_snapshots WHERE case_id = ?", caseID); err != nil {
		s.log.Warn("session snapshot clear failed", zap.String("case_id", caseID), zap.Error(err))
	}
}
