// Command batch runs one prompt over numbered data folders. Each folder
// contributes its first image and is run num_runs times across the
// roster; the folder name becomes the subject id and the run index the
// item id of every CallLog.
//
// Usage:
//
//	batch -data-dir data/mls-data -prompts prompts/user.yaml \
//	      -systems prompts/system.yaml -json-template schemas/mls.json \
//	      -start-from 12 -num-runs 3
//
// Flags left unset fall back to the batch section of the config file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/config"
	"github.com/rhuss/vendorbench/pkg/debug"
	"github.com/rhuss/vendorbench/pkg/experiment"
	"github.com/rhuss/vendorbench/pkg/observability"
	"github.com/rhuss/vendorbench/pkg/prompts"
)

func main() {
	if err := run(); err != nil {
		slog.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", "", "config file (default: $VENDORBENCH_CONFIG or ./vendorbench.yaml)")
		envFile      = flag.String("env", ".env", "dotenv file with vendor credentials")
		dataDir      = flag.String("data-dir", "", "directory of numbered data folders")
		startFrom    = flag.Int("start-from", -1, "first folder number to process")
		numRuns      = flag.Int("num-runs", 0, "runs per folder")
		promptsPath  = flag.String("prompts", "", "YAML with user prompts (required)")
		systemsPath  = flag.String("systems", "", "YAML with system prompts (required)")
		schemaPath   = flag.String("json-template", "", "optional JSON schema for structured output")
		promptID     = flag.String("prompt-id", "", "prompt id")
		promptVer    = flag.String("prompt-ver", "", "prompt version")
		systemID     = flag.String("system-id", "", "system prompt id")
		systemVer    = flag.String("system-ver", "", "system prompt version")
		experimentID = flag.String("experiment-id", "", "experiment label (default: generated)")
		overrides    = flag.String("model-overrides", "", "JSON object of configuration overrides")
	)
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", *envFile, err)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	b := cfg.Batch
	opts := experiment.BatchOptions{
		DataDir:   or(*dataDir, b.DataDir),
		StartFrom: b.StartFrom,
		NumRuns:   b.NumRuns,
	}
	if *startFrom >= 0 {
		opts.StartFrom = *startFrom
	}
	if *numRuns > 0 {
		opts.NumRuns = *numRuns
	}
	if opts.DataDir == "" {
		return fmt.Errorf("-data-dir or batch.data_dir is required")
	}

	sel := prompts.Selection{
		PromptsPath:   *promptsPath,
		SystemsPath:   *systemsPath,
		SchemaPath:    *schemaPath,
		PromptID:      or(*promptID, b.PromptID),
		PromptVersion: or(*promptVer, b.PromptVersion),
		SystemID:      or(*systemID, b.SystemID),
		SystemVersion: or(*systemVer, b.SystemVersion),
		Overrides:     *overrides,
	}
	req, err := sel.Request()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Metrics.Enabled {
		if _, err := observability.Serve(ctx, cfg.Observability.Metrics.Addr, cfg.Observability.Metrics.Path); err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
	}

	orch, sink, err := experiment.FromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	base := api.Task{
		ExperimentID:  or(*experimentID, api.NewExperimentID(time.Now())),
		PromptID:      sel.PromptID,
		PromptVersion: sel.PromptVersion,
		SystemID:      sel.SystemID,
		SystemVersion: sel.SystemVersion,
		Request:       req,
	}

	_, err = orch.RunBatch(ctx, base, opts)
	if errors.Is(err, context.Canceled) {
		slog.Warn("batch interrupted; records written so far are kept")
		return nil
	}
	return err
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
