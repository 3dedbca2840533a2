package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/storage"
	"github.com/DukeRupert/equipcheck/internal/store"
	"github.com/DukeRupert/equipcheck/internal/store/postgres"
	"github.com/DukeRupert/equipcheck/internal/store/sqlite"
)

// OpenStore connects the configured record store. Postgres is migrated
// with goose before it is returned; SQLite migrates itself.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case store.DriverPostgres:
		pg, err := postgres.Open(ctx, cfg.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := RunMigrations(pg.DB()); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Database ready", "driver", cfg.StoreDriver)
		return pg, nil

	case store.DriverSQLite:
		lite, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("database open failed: %w", err)
		}
		logger.Info("Database ready", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return lite, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// OpenStorage creates the configured blob storage.
func OpenStorage(cfg *Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageProvider == storage.ProviderR2 {
		s, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("r2 storage initialization failed: %w", err)
		}
		logger.Info("Storage ready", "provider", "r2", "bucket", cfg.R2BucketName)
		return s, nil
	}

	s, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: cfg.LocalStoragePath,
		BaseURL:  cfg.LocalStorageURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("local storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", "local", "path", cfg.LocalStoragePath)
	return s, nil
}

// LoadCatalog returns the catalog at CATALOG_PATH, or the embedded one.
func LoadCatalog(cfg *Config) (*domain.Catalog, error) {
	if cfg.CatalogPath != "" {
		return domain.LoadCatalogFile(cfg.CatalogPath)
	}
	return domain.DefaultCatalog()
}
