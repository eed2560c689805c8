package core

import (
	"fmt"
	"os"

	"rentledger/internal/infra/persistence/memory"
	"rentledger/internal/infra/persistence/postgres"
	"rentledger/internal/infra/persistence/sqlite"
	"rentledger/pkg/domain"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	RENTLEDGER_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	RENTLEDGER_SQLITE_PATH: path to sqlite file (default ./rentledger.db)
//	RENTLEDGER_POSTGRES_DSN: postgres DSN when driver=postgres
//	RENTLEDGER_NAMESPACE: snapshot storage key (default rent-manager-storage)
func OpenPersistentStore(engine *domain.RulesEngine) (domain.PersistentStore, error) {
	driver := os.Getenv("RENTLEDGER_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	namespace := os.Getenv("RENTLEDGER_NAMESPACE")
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("RENTLEDGER_SQLITE_PATH")
		return sqlite.NewStore(path, namespace, engine)
	case StoragePostgres:
		dsn := os.Getenv("RENTLEDGER_POSTGRES_DSN")
		return postgres.NewStore(dsn, namespace, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
