package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/borehole-survey/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	dbPath, err := databasePath(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}

	opts := []storage.StoreOption{storage.WithLogger(logger)}
	if config.Storage.MaxBatchSize > 0 {
		opts = append(opts, storage.WithMaxBatchSize(config.Storage.MaxBatchSize))
	}
	store := storage.NewSqliteStore(dbPath, opts...)
	defer store.Close()

	logger.Info("importing surveys",
		slog.String("database", dbPath),
		slog.Int("boreholes", len(config.Boreholes)),
		slog.Int("workers", config.Import.Workers))

	orchestrator := NewOrchestrator(store, logger,
		WithWorkers(config.Import.Workers),
		WithImportConfig(config.Import))

	ids, err := orchestrator.Run(ctx, config.Boreholes)
	if err != nil {
		return err
	}

	logger.Info("import finished", slog.String("database", dbPath), slog.Any("boreholeIDs", ids))
	return nil
}

func databasePath(config *StorageConfig) (string, error) {
	stat, err := os.Stat(config.DataDirectory)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("storage directory '%s' does not exist: %w", config.DataDirectory, err)
		}
		return "", err
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("invalid storage directory '%s'", config.DataDirectory)
	}

	name := config.Database
	if name == "" {
		name = fmt.Sprintf("survey_%s.sqlite", time.Now().UTC().Format("20060102_150405"))
	}
	return filepath.Join(config.DataDirectory, name), nil
}
