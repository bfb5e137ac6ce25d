package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/store"
	"fintrack/internal/store/azure"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/postgres"
	"fintrack/internal/store/sheets"
	"fintrack/internal/store/sqlite"
)

const defaultCacheSize = 16

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case PostgresBackend:
		result, err = f.createPostgresBackend(ctx, config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	case BlobBackend:
		result, err = f.createBlobBackend(ctx, config)
	case TableBackend:
		result, err = f.createTableBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.Type.IsRemote() {
		size := config.CacheSize
		if size < 1 {
			size = defaultCacheSize
		}
		result.Cached = store.NewCached(result.Store, size, config.CacheTTL)
		result.Store = result.Cached
		f.logger.Debug("Wrapped backend in read-through cache", "size", size, "ttl", config.CacheTTL)
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	var s *memory.Store
	if config.DataDirectory != "" {
		s = memory.NewFromDir(config.DataDirectory)
	} else {
		s = memory.New()
	}

	f.logger.Info("Initialized memory backend", "data_directory", config.DataDirectory)

	return &BackendResult{Store: s}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	s, err := sqlite.New(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{Store: s, Cleanup: s.Close}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := postgres.New(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{Store: s, Cleanup: s.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	return &BackendResult{Store: s}, nil
}

func (f *DefaultFactory) createBlobBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := azure.NewBlobStore(ctx, config.AzureBlobServiceURL, config.AzureBlobContainer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}

	f.logger.Info("Initialized Azure Blob backend", "container", config.AzureBlobContainer)

	return &BackendResult{Store: s}, nil
}

func (f *DefaultFactory) createTableBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := azure.NewTableStore(ctx, config.AzureTableServiceURL, config.AzureTableName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize table store: %w", err)
	}

	f.logger.Info("Initialized Azure Table backend", "table", config.AzureTableName)

	return &BackendResult{Store: s}, nil
}
