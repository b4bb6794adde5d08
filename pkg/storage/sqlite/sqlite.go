// Package sqlite provides a CallLog sink in a local SQLite database using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS call_logs (
    id                TEXT PRIMARY KEY,
    experiment_id     TEXT NOT NULL,
    subject_id        TEXT NOT NULL DEFAULT '',
    item_id           TEXT NOT NULL DEFAULT '',
    prompt_id         TEXT NOT NULL DEFAULT '',
    prompt_version    TEXT NOT NULL DEFAULT '',
    system_id         TEXT NOT NULL DEFAULT '',
    system_version    TEXT NOT NULL DEFAULT '',
    input_image_path  TEXT,
    user_prompt       TEXT NOT NULL DEFAULT '',
    model_provider    TEXT NOT NULL,
    model_name        TEXT NOT NULL,
    config_used       TEXT,
    temperature       REAL,
    top_p             REAL,
    input_chars       INTEGER,
    input_tokens      INTEGER,
    output_chars      INTEGER,
    output_tokens     INTEGER,
    ttft_ms           REAL,
    total_latency_ms  REAL NOT NULL,
    response_text     TEXT,
    retry_count       INTEGER NOT NULL DEFAULT 0,
    http_status       INTEGER,
    error_category    TEXT,
    error_message     TEXT,
    response_params   TEXT,
    created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_logs_experiment ON call_logs (experiment_id, created_at);
`

const columns = `
	id, experiment_id, subject_id, item_id,
	prompt_id, prompt_version, system_id, system_version,
	input_image_path, user_prompt, model_provider, model_name,
	config_used, temperature, top_p,
	input_chars, input_tokens, output_chars, output_tokens,
	ttft_ms, total_latency_ms, response_text, retry_count,
	http_status, error_category, error_message, response_params, created_at`

// timeFormat has fixed width so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed Sink.
type Store struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

var _ storage.Sink = (*Store)(nil)

// New opens (or creates) the database at path, applies pragmas for WAL
// mode and creates the call_logs table.
func New(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// modernc.org/sqlite requires pragmas as statements, not DSN params.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Write inserts one CallLog.
func (s *Store) Write(ctx context.Context, log *api.CallLog) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return storage.ErrClosed
	}

	configJSON, err := marshalMap(log.Config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	paramsJSON, err := marshalMap(log.ResponseParams)
	if err != nil {
		return fmt.Errorf("marshaling response params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO call_logs (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, log.ExperimentID, log.SubjectID, log.ItemID,
		log.PromptID, log.PromptVersion, log.SystemID, log.SystemVersion,
		log.ImagePath, log.UserPrompt, log.Provider, log.Model,
		configJSON, log.Temperature, log.TopP,
		log.InputChars, log.InputTokens, log.OutputChars, log.OutputTokens,
		log.TTFTMillis, log.TotalLatencyMillis, log.ResponseText, log.RetryCount,
		log.HTTPStatus, log.ErrorCategory, log.ErrorMessage, paramsJSON,
		log.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting call log: %w", err)
	}
	return nil
}

// Get retrieves a CallLog by ID.
func (s *Store) Get(ctx context.Context, id string) (*api.CallLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM call_logs WHERE id = ?`, id)
	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying call log: %w", err)
	}
	return log, nil
}

// ListByExperiment returns the CallLogs of one experiment, oldest first.
func (s *Store) ListByExperiment(ctx context.Context, experimentID string) ([]*api.CallLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM call_logs WHERE experiment_id = ? ORDER BY created_at, id`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing call logs: %w", err)
	}
	defer rows.Close()

	var logs []*api.CallLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning call log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (*api.CallLog, error) {
	var l api.CallLog
	var configJSON, paramsJSON sql.NullString
	var createdAt string
	err := row.Scan(
		&l.ID, &l.ExperimentID, &l.SubjectID, &l.ItemID,
		&l.PromptID, &l.PromptVersion, &l.SystemID, &l.SystemVersion,
		&l.ImagePath, &l.UserPrompt, &l.Provider, &l.Model,
		&configJSON, &l.Temperature, &l.TopP,
		&l.InputChars, &l.InputTokens, &l.OutputChars, &l.OutputTokens,
		&l.TTFTMillis, &l.TotalLatencyMillis, &l.ResponseText, &l.RetryCount,
		&l.HTTPStatus, &l.ErrorCategory, &l.ErrorMessage, &paramsJSON, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if configJSON.Valid {
		if err := json.Unmarshal([]byte(configJSON.String), &l.Config); err != nil {
			return nil, fmt.Errorf("unmarshaling config: %w", err)
		}
	}
	if paramsJSON.Valid {
		if err := json.Unmarshal([]byte(paramsJSON.String), &l.ResponseParams); err != nil {
			return nil, fmt.Errorf("unmarshaling response params: %w", err)
		}
	}
	if l.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &l, nil
}

// marshalMap encodes m for a nullable TEXT column.
func marshalMap(m map[string]any) (*string, error) {
	if len(m) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
