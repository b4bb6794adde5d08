// Command bench runs one task across the configured model roster and
// records one CallLog per model.
//
// Usage:
//
//	bench -prompts prompts/user.yaml -systems prompts/system.yaml \
//	      -prompt-id structured_findings_extraction -prompt-ver mls_v1 \
//	      -system-id general -system-ver default \
//	      -image data/1/scan.png -experiment-id exp1 \
//	      -model-overrides '{"temperature": 0.2}'
//
// Vendor credentials are read from the environment, after loading .env
// when present. See pkg/config for the config file and VENDORBENCH_*
// variables.
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

type flags struct {
	configPath     string
	envFile        string
	promptsPath    string
	systemsPath    string
	schemaPath     string
	promptID       string
	promptVersion  string
	systemID       string
	systemVersion  string
	imagePath      string
	experimentID   string
	modelOverrides string
}

func main() {
	if err := run(); err != nil {
		slog.Error("bench failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "config file (default: $VENDORBENCH_CONFIG or ./vendorbench.yaml)")
	flag.StringVar(&f.envFile, "env", ".env", "dotenv file with vendor credentials")
	flag.StringVar(&f.promptsPath, "prompts", "", "YAML with user prompts {id: {version: text}} (required)")
	flag.StringVar(&f.systemsPath, "systems", "", "YAML with system prompts {id: {version: text}} (required)")
	flag.StringVar(&f.schemaPath, "json-template", "", "optional JSON schema for structured output")
	flag.StringVar(&f.promptID, "prompt-id", "", "prompt id (required)")
	flag.StringVar(&f.promptVersion, "prompt-ver", "", "prompt version (required)")
	flag.StringVar(&f.systemID, "system-id", "", "system prompt id (required)")
	flag.StringVar(&f.systemVersion, "system-ver", "", "system prompt version (required)")
	flag.StringVar(&f.imagePath, "image", "", "optional image path")
	flag.StringVar(&f.experimentID, "experiment-id", "", "experiment label (default: generated)")
	flag.StringVar(&f.modelOverrides, "model-overrides", "", "JSON object of configuration overrides")
	flag.Parse()

	if err := loadEnv(f.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	debug.Init(debug.Options{
		Categories: cfg.Logging.Debug,
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
	})

	task, err := buildTask(&f)
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

	slog.Info("running task",
		"experiment_id", task.ExperimentID, "prompt_id", task.PromptID,
		"models", len(orch.Roster()), "image", task.Request.ImagePath)

	logs, err := orch.Run(ctx, task)

	var failed int
	for _, l := range logs {
		if l.Failed() {
			failed++
		}
	}
	slog.Info("task finished", "experiment_id", task.ExperimentID, "calls", len(logs), "failed", failed)
	return err
}

// buildTask resolves templates and inputs. Any problem here aborts the
// run before a vendor is called.
func buildTask(f *flags) (*api.Task, error) {
	req, err := prompts.Selection{
		PromptsPath:   f.promptsPath,
		SystemsPath:   f.systemsPath,
		SchemaPath:    f.schemaPath,
		PromptID:      f.promptID,
		PromptVersion: f.promptVersion,
		SystemID:      f.systemID,
		SystemVersion: f.systemVersion,
		Overrides:     f.modelOverrides,
	}.Request()
	if err != nil {
		return nil, err
	}
	req.ImagePath = f.imagePath

	id := f.experimentID
	if id == "" {
		id = api.NewExperimentID(time.Now())
	}
	return &api.Task{
		ExperimentID:  id,
		PromptID:      f.promptID,
		PromptVersion: f.promptVersion,
		SystemID:      f.systemID,
		SystemVersion: f.systemVersion,
		Request:       req,
	}, nil
}

// loadEnv loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
