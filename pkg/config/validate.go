package config

import (
	"errors"
	"fmt"
	"slices"
)

// Providers lists the vendor identifiers a roster may name.
var Providers = []string{"openai", "anthropic", "grok", "gemini"}

// Sinks lists the primary sink types.
var Sinks = []string{"jsonl", "csv", "postgres", "sqlite", "memory"}

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(Sinks, c.Experiment.Sink) {
		errs = append(errs, fmt.Errorf("experiment.sink must be one of %v, got %q", Sinks, c.Experiment.Sink))
	}
	if c.Experiment.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("experiment.concurrency must be >= 1, got %d", c.Experiment.Concurrency))
	}
	if c.Experiment.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("experiment.call_timeout must be > 0, got %s", c.Experiment.CallTimeout))
	}
	if c.Experiment.RetryCount < 0 {
		errs = append(errs, fmt.Errorf("experiment.retry_count must be >= 0, got %d", c.Experiment.RetryCount))
	}
	if c.Experiment.OutputDir == "" && (c.Experiment.Sink == "jsonl" || c.Experiment.Sink == "csv" || c.Experiment.Snapshot) {
		errs = append(errs, fmt.Errorf("experiment.output_dir is required for file sinks"))
	}

	if len(c.Roster) == 0 {
		errs = append(errs, fmt.Errorf("roster must list at least one model"))
	}
	seen := make(map[string]int, len(c.Roster))
	for i, e := range c.Roster {
		key := e.Provider + ":" + e.Model
		if j, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("roster[%d] repeats roster[%d] %s; per-model output files would mix their rows", i, j, key))
		} else {
			seen[key] = i
		}
		if !slices.Contains(Providers, e.Provider) {
			errs = append(errs, fmt.Errorf("roster[%d].provider must be one of %v, got %q", i, Providers, e.Provider))
		}
		if e.Model == "" {
			errs = append(errs, fmt.Errorf("roster[%d].model is required", i))
		}
	}
	for name := range c.Vendors {
		if !slices.Contains(Providers, name) {
			errs = append(errs, fmt.Errorf("vendors.%s is not a known provider", name))
		}
	}

	if c.Batch.NumRuns < 1 {
		errs = append(errs, fmt.Errorf("batch.num_runs must be >= 1, got %d", c.Batch.NumRuns))
	}

	switch c.Experiment.Sink {
	case "postgres":
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when experiment.sink is \"postgres\""))
		}
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("storage.sqlite.path is required when experiment.sink is \"sqlite\""))
		}
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Addr == "" {
		errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
	}

	switch c.Logging.Format {
	case "text", "json", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
