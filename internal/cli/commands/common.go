// Package commands implements the nutripipe subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/nutripipe/internal/cli/config"
	"github.com/leapstack-labs/nutripipe/internal/pipeline"
	"github.com/leapstack-labs/nutripipe/internal/state"
	"github.com/leapstack-labs/nutripipe/pkg/adapter"
	"github.com/leapstack-labs/nutripipe/pkg/table"
)

// pipelineConfig converts the CLI configuration into a pipeline configuration.
func pipelineConfig(cfg *config.Config, logger *slog.Logger) (pipeline.Config, error) {
	delim, err := cfg.DelimiterRune()
	if err != nil {
		return pipeline.Config{}, err
	}
	limit, err := cfg.MemoryLimitBytes()
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		MeasurementsPath: cfg.Measurements,
		NutrientsPath:    cfg.Nutrients,
		FoodsPath:        cfg.Foods,
		OutputPath:       cfg.Output,
		Delimiter:        delim,
		MemoryLimit:      limit,
		Logger:           logger,
	}, nil
}

// openStore opens the run history database and brings its schema up to date.
func openStore(ctx context.Context, path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// exportTable writes t into the configured export database.
func exportTable(ctx context.Context, e *config.ExportConfig, t *table.Table, logger *slog.Logger) error {
	cfg := e.AdapterConfig()
	a, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return err
	}
	if err := a.Connect(ctx, cfg); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Type, err)
	}
	defer func() { _ = a.Close() }()

	logger.Info("exporting table",
		slog.String("type", cfg.Type),
		slog.String("table", e.Table),
		slog.Int("rows", t.NumRows()))

	if err := a.WriteTable(ctx, e.Table, t); err != nil {
		return fmt.Errorf("export to %s failed: %w", cfg.Type, err)
	}
	return nil
}
