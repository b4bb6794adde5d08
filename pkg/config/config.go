// Package config provides the run configuration for vendorbench.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (VENDORBENCH_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// Vendor credentials never live in the config file. Each adapter reads its
// key from the environment when it is constructed.
package config

import "time"

// Config holds all configuration for one benchmark run.
type Config struct {
	Experiment    ExperimentConfig        `yaml:"experiment"`
	Roster        []RosterEntry           `yaml:"roster"`
	Vendors       map[string]VendorConfig `yaml:"vendors"`
	Batch         BatchConfig             `yaml:"batch"`
	Storage       StorageConfig           `yaml:"storage"`
	Observability ObservabilityConfig     `yaml:"observability"`
	Logging       LoggingConfig           `yaml:"logging"`
}

// ExperimentConfig holds orchestration settings.
type ExperimentConfig struct {
	OutputDir   string        `yaml:"output_dir"`   // default: "output"
	Sink        string        `yaml:"sink"`         // jsonl, csv, postgres, sqlite, memory; default: "jsonl"
	Snapshot    bool          `yaml:"snapshot"`     // also write per-model JSON snapshots
	Sync        bool          `yaml:"sync"`         // fsync the jsonl stream after every record
	Concurrency int           `yaml:"concurrency"`  // models called in parallel per task, default: 1
	CallTimeout time.Duration `yaml:"call_timeout"` // per vendor call, default: 5m
	RetryCount  int           `yaml:"retry_count"`  // recorded on every CallLog, default: 0
}

// RosterEntry is one (provider, model) pair. Overrides apply to every task
// sent to this model; task-level overrides take precedence.
type RosterEntry struct {
	Provider  string         `yaml:"provider"`
	Model     string         `yaml:"model"`
	Overrides map[string]any `yaml:"overrides,omitempty"`
}

// VendorConfig holds per-vendor endpoint settings.
type VendorConfig struct {
	BaseURL   string `yaml:"base_url"`    // beats the vendor's *_BASE_URL env default
	APIKeyEnv string `yaml:"api_key_env"` // env var to read the key from instead of the vendor default
	MaxTokens int    `yaml:"max_tokens"`  // anthropic only, default: 4096
}

// BatchConfig holds defaults for batch runs over data folders.
type BatchConfig struct {
	DataDir       string `yaml:"data_dir"`
	StartFrom     int    `yaml:"start_from"`
	NumRuns       int    `yaml:"num_runs"` // default: 3
	PromptID      string `yaml:"prompt_id"`
	PromptVersion string `yaml:"prompt_version"`
	SystemID      string `yaml:"system_id"`
	SystemVersion string `yaml:"system_version"`
}

// StorageConfig holds database sink settings.
type StorageConfig struct {
	MaxSize  int            `yaml:"max_size"` // for the memory sink, 0 = unlimited
	Postgres PostgresConfig `yaml:"postgres"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 4
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `yaml:"path"` // default: "output/vendorbench.db"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: ":9464"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds log output settings. VENDORBENCH_DEBUG and
// VENDORBENCH_LOG_LEVEL take precedence.
type LoggingConfig struct {
	Debug  string `yaml:"debug"`  // comma-separated categories
	Level  string `yaml:"level"`  // TRACE, DEBUG, INFO, WARN, ERROR; default: INFO
	Format string `yaml:"format"` // text or json; default: text
}

// DefaultRoster returns the roster every task runs against unless the
// config file lists its own.
func DefaultRoster() []RosterEntry {
	return []RosterEntry{
		{Provider: "openai", Model: "gpt-4.1"},
		{Provider: "openai", Model: "gpt-4o"},
		{Provider: "openai", Model: "o1"},
		{Provider: "anthropic", Model: "claude-opus-4-1-20250805"},
		{Provider: "anthropic", Model: "claude-opus-4-20250514"},
		{Provider: "anthropic", Model: "claude-3-7-sonnet-latest"},
		{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
	}
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Experiment: ExperimentConfig{
			OutputDir:   "output",
			Sink:        "jsonl",
			Concurrency: 1,
			CallTimeout: 5 * time.Minute,
		},
		Roster:  DefaultRoster(),
		Vendors: map[string]VendorConfig{},
		Batch: BatchConfig{
			NumRuns:       3,
			PromptID:      "structured_findings_extraction",
			PromptVersion: "mls_v1",
			SystemID:      "general",
			SystemVersion: "default",
		},
		Storage: StorageConfig{
			Postgres: PostgresConfig{
				MaxConns:       4,
				MigrateOnStart: true,
			},
			SQLite: SQLiteConfig{
				Path: "output/vendorbench.db",
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Addr: ":9464",
				Path: "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
