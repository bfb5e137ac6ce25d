package backend

import (
	"context"
	"time"

	"fintrack/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and optional cleanup function
type BackendResult struct {
	Store   store.KeyValueStore
	Cleanup CleanupFunc
	// Cached is set when the store is wrapped in a read-through cache.
	Cached *store.Cached
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a store instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory
	DataDirectory string

	// SQLite
	SQLiteDBPath string

	// Postgres
	PostgresURL string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Azure Storage
	AzureBlobServiceURL  string
	AzureBlobContainer   string
	AzureTableServiceURL string
	AzureTableName       string

	// Read-through cache in front of remote backends
	CacheSize int
	CacheTTL  time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	SheetsBackend   BackendType = "sheets"
	BlobBackend     BackendType = "azblob"
	TableBackend    BackendType = "aztables"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, SheetsBackend, BlobBackend, TableBackend:
		return true
	default:
		return false
	}
}

// IsRemote reports whether every load goes over the network.
func (bt BackendType) IsRemote() bool {
	switch bt {
	case PostgresBackend, SheetsBackend, BlobBackend, TableBackend:
		return true
	default:
		return false
	}
}
