// Package postgres provides a Postgres-backed persistent store that mirrors
// the in-memory semantics, snapshotting state as a JSONB document keyed by
// namespace.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"rentledger/internal/infra/persistence/memory"
	"rentledger/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultNamespace is the storage key the snapshot document is filed under.
const DefaultNamespace = "rent-manager-storage"

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/rentledger?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory
// implementation for transactions.
type Store struct {
	*memory.Store
	db        *sql.DB
	mu        sync.Mutex
	namespace string
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN). It ensures the snapshot table exists and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn, namespace string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db, namespace)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	if err := mem.ImportState(snapshot); err != nil {
		return nil, err
	}
	return &Store{Store: mem, db: db, namespace: namespace}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		namespace TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

// loadSnapshot reads the namespaced document. A missing row or unreadable
// payload yields an empty snapshot so startup always succeeds against a
// reachable database.
func loadSnapshot(ctx context.Context, db *sql.DB, namespace string) (domain.Snapshot, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, `SELECT payload FROM state WHERE namespace = $1`, namespace).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, nil
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(s.ExportState())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state(namespace,payload) VALUES($1,$2) ON CONFLICT(namespace) DO UPDATE SET payload=EXCLUDED.payload`,
		s.namespace, payload,
	); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// RunInTransaction applies fn in memory, then snapshots to Postgres. A
// snapshot failure returns the committed result with a PersistenceWarning.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, []domain.Change, error) {
	res, changes, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, changes, err
	}
	if pErr := s.persist(ctx); pErr != nil {
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
	if err := s.persist(context.Background()); err != nil {
		return domain.PersistenceWarning{Cause: err}
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Namespace returns the storage key the snapshot is filed under.
func (s *Store) Namespace() string { return s.namespace }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
