package core

import (
	"fmt"
	"os"

	"collabcore/internal/storage"
	"collabcore/internal/storage/memory"
	"collabcore/internal/storage/postgres"
	"collabcore/internal/storage/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenBackend selects a storage backend using environment variables.
// Defaults to sqlite when unset.
//
//	COLLABCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	COLLABCORE_SQLITE_PATH: path to sqlite file (default ./collabcore.db)
//	COLLABCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenBackend() (storage.Backend, error) {
	driver := os.Getenv("COLLABCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("COLLABCORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("COLLABCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
