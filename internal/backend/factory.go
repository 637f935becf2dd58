package backend

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dietario/internal/core"
	"dietario/internal/storage"
	"dietario/internal/storage/sqlite"
)

// Factory creates record stores based on configuration.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) CreateBackend(cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}
	switch cfg.Type {
	case SQLiteBackend:
		return f.createSQLite(cfg)
	default:
		return f.createJSONL(cfg)
	}
}

func (f *Factory) createJSONL(cfg Config) (*Result, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dataDir, err)
	}

	f.logger.Info("Initialized JSONL backend", "data_dir", dataDir)
	return &Result{
		Meals:        storage.NewLog[core.Meal](filepath.Join(dataDir, "pasti.json")),
		Measurements: storage.NewLog[core.Measurement](filepath.Join(dataDir, "pesate.json")),
		Cleanup:      nil,
	}, nil
}

func (f *Factory) createSQLite(cfg Config) (*Result, error) {
	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Result{
		Meals:        repo.Meals(),
		Measurements: repo.Measurements(),
		Cleanup:      repo.Close,
	}, nil
}
