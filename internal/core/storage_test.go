package core

import (
	"path/filepath"
	"testing"

	"rentledger/internal/infra/persistence/memory"
	"rentledger/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("RENTLEDGER_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("RENTLEDGER_STORAGE_DRIVER", "")
	t.Setenv("RENTLEDGER_SQLITE_PATH", filepath.Join(t.TempDir(), "rentledger.db"))
	t.Setenv("RENTLEDGER_NAMESPACE", "test-namespace")

	store, err := OpenPersistentStore(nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ss, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	defer func() { _ = ss.Close() }()
	if ss.Namespace() != "test-namespace" {
		t.Fatalf("namespace = %q", ss.Namespace())
	}
}

func TestOpenPersistentStoreRejectsUnknownDriver(t *testing.T) {
	t.Setenv("RENTLEDGER_STORAGE_DRIVER", "etcd")

	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
