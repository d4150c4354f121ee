package backend

import (
	"context"
	"fmt"
	"log/slog"

	"budgetly/internal/storage/memory"
	"budgetly/internal/storage/mongo"
	"budgetly/internal/storage/sqldb"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend builds the configured store. Stores connect lazily, so a
// database that is down at startup does not prevent the server from starting.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		store := sqldb.New(sqldb.DialectSQLite, config.SQLiteDBPath)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case PostgresBackend:
		store := sqldb.New(sqldb.DialectPostgres, config.PostgresDSN)
		f.logger.InfoContext(ctx, "Initialized PostgreSQL backend")
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case MongoBackend:
		store := mongo.New(config.MongoURI, config.MongoDatabase)
		f.logger.InfoContext(ctx, "Initialized MongoDB backend", "database", config.MongoDatabase)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store := memory.NewFromFiles(dataDir)
		f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)
		return &BackendResult{Store: store, Cleanup: store.Close}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
