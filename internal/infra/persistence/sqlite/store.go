// Package sqlite persists the in-memory state to a single SQLite table as a
// JSON snapshot document keyed by namespace.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"rentledger/internal/infra/persistence/memory"
	"rentledger/pkg/domain"
)

// DefaultNamespace is the storage key the snapshot document is filed under.
const DefaultNamespace = "rent-manager-storage"

var _ domain.PersistentStore = (*Store)(nil)

// Store snapshots the full state after every successful transaction. A
// failed snapshot write surfaces as a PersistenceWarning alongside the
// committed result; the in-memory state is already applied.
type Store struct {
	*memory.Store
	db        *sql.DB
	mu        sync.Mutex
	path      string
	namespace string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path, namespace string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "rentledger.db"
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		namespace TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path, namespace: namespace}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load hydrates the in-memory state from the stored snapshot. A missing or
// unreadable payload leaves the store empty with default settings rather
// than failing startup.
func (s *Store) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE namespace = ?`, s.namespace).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil
	}
	return s.Store.ImportState(snapshot)
}

func (s *Store) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.Exec(
		`INSERT INTO state(namespace,payload) VALUES(?,?) ON CONFLICT(namespace) DO UPDATE SET payload=excluded.payload`,
		s.namespace, payload,
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// RunInTransaction applies fn in memory, then snapshots the committed state
// to SQLite. A snapshot failure returns the committed result together with a
// PersistenceWarning; callers decide how loudly to surface it.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, []domain.Change, error) {
	res, changes, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, changes, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, changes, domain.PersistenceWarning{Cause: pErr}
	}
	return res, changes, nil
}

// ImportState replaces the state and snapshots it immediately. A snapshot
// write failure is returned as a PersistenceWarning; the in-memory state is
// already replaced when it fires.
func (s *Store) ImportState(snapshot domain.Snapshot) error {
	if err := s.Store.ImportState(snapshot); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		return domain.PersistenceWarning{Cause: err}
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Namespace returns the storage key the snapshot is filed under.
func (s *Store) Namespace() string { return s.namespace }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
