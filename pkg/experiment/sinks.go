package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/vendorbench/pkg/config"
	"github.com/rhuss/vendorbench/pkg/storage"
	"github.com/rhuss/vendorbench/pkg/storage/jsonl"
	"github.com/rhuss/vendorbench/pkg/storage/memory"
	"github.com/rhuss/vendorbench/pkg/storage/postgres"
	"github.com/rhuss/vendorbench/pkg/storage/snapshot"
	"github.com/rhuss/vendorbench/pkg/storage/sqlite"
	"github.com/rhuss/vendorbench/pkg/storage/tabular"
)

// OpenSink creates the configured primary sink, plus the snapshot sink
// when enabled. The caller owns the result and must Close it.
func OpenSink(ctx context.Context, cfg *config.Config) (storage.Sink, error) {
	var primary storage.Sink

	switch cfg.Experiment.Sink {
	case "jsonl":
		var opts []jsonl.Option
		if cfg.Experiment.Sync {
			opts = append(opts, jsonl.WithSync())
		}
		primary = jsonl.New(cfg.Experiment.OutputDir, opts...)
		slog.Info("sink enabled", "type", "jsonl", "dir", cfg.Experiment.OutputDir)

	case "csv":
		primary = tabular.New(cfg.Experiment.OutputDir)
		slog.Info("sink enabled", "type", "csv", "dir", cfg.Experiment.OutputDir)

	case "postgres":
		pg := cfg.Storage.Postgres
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            pg.DSN,
			MaxConns:       pg.MaxConns,
			MigrateOnStart: pg.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres sink: %w", err)
		}
		primary = store
		slog.Info("sink enabled", "type", "postgres", "max_conns", pg.MaxConns)

	case "sqlite":
		store, err := sqlite.New(ctx, cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite sink: %w", err)
		}
		primary = store
		slog.Info("sink enabled", "type", "sqlite", "path", cfg.Storage.SQLite.Path)

	case "memory":
		primary = memory.New(cfg.Storage.MaxSize)
		slog.Info("sink enabled", "type", "memory", "max_size", cfg.Storage.MaxSize)

	default:
		return nil, fmt.Errorf("unknown sink %q", cfg.Experiment.Sink)
	}

	if !cfg.Experiment.Snapshot {
		return primary, nil
	}
	slog.Info("snapshots enabled", "dir", cfg.Experiment.OutputDir)
	return storage.Multi{primary, snapshot.New(cfg.Experiment.OutputDir)}, nil
}
