// Package postgres provides a PostgreSQL CallLog sink. It uses pgx/v5 for
// connection pooling and JSONB for the configuration and reported
// parameter maps.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/vendorbench/pkg/api"
	"github.com/rhuss/vendorbench/pkg/storage"
)

// Store is a PostgreSQL-backed Sink.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Sink = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const columns = `
	id, experiment_id, subject_id, item_id,
	prompt_id, prompt_version, system_id, system_version,
	input_image_path, user_prompt, model_provider, model_name,
	config_used, temperature, top_p,
	input_chars, input_tokens, output_chars, output_tokens,
	ttft_ms, total_latency_ms, response_text, retry_count,
	http_status, error_category, error_message, response_params, created_at`

// Write inserts one CallLog. The insert commits before Write returns.
func (s *Store) Write(ctx context.Context, log *api.CallLog) error {
	configJSON, err := marshalMap(log.Config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	paramsJSON, err := marshalMap(log.ResponseParams)
	if err != nil {
		return fmt.Errorf("marshaling response params: %w", err)
	}

	_, err = s.pool.Exec(ctx, `INSERT INTO call_logs (`+columns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`,
		log.ID, log.ExperimentID, log.SubjectID, log.ItemID,
		log.PromptID, log.PromptVersion, log.SystemID, log.SystemVersion,
		log.ImagePath, log.UserPrompt, log.Provider, log.Model,
		nullJSON(configJSON), log.Temperature, log.TopP,
		log.InputChars, log.InputTokens, log.OutputChars, log.OutputTokens,
		log.TTFTMillis, log.TotalLatencyMillis, log.ResponseText, log.RetryCount,
		log.HTTPStatus, log.ErrorCategory, log.ErrorMessage, nullJSON(paramsJSON), log.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting call log: %w", err)
	}
	return nil
}

// Get retrieves a CallLog by ID.
func (s *Store) Get(ctx context.Context, id string) (*api.CallLog, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM call_logs WHERE id = $1`, id)
	log, err := scanLog(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying call log: %w", err)
	}
	return log, nil
}

// ListByExperiment returns the CallLogs of one experiment, oldest first.
func (s *Store) ListByExperiment(ctx context.Context, experimentID string) ([]*api.CallLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+columns+` FROM call_logs WHERE experiment_id = $1 ORDER BY created_at, id`,
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

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanLog(row pgx.Row) (*api.CallLog, error) {
	var l api.CallLog
	var configJSON, paramsJSON []byte
	err := row.Scan(
		&l.ID, &l.ExperimentID, &l.SubjectID, &l.ItemID,
		&l.PromptID, &l.PromptVersion, &l.SystemID, &l.SystemVersion,
		&l.ImagePath, &l.UserPrompt, &l.Provider, &l.Model,
		&configJSON, &l.Temperature, &l.TopP,
		&l.InputChars, &l.InputTokens, &l.OutputChars, &l.OutputTokens,
		&l.TTFTMillis, &l.TotalLatencyMillis, &l.ResponseText, &l.RetryCount,
		&l.HTTPStatus, &l.ErrorCategory, &l.ErrorMessage, &paramsJSON, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalMap(configJSON, &l.Config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := unmarshalMap(paramsJSON, &l.ResponseParams); err != nil {
		return nil, fmt.Errorf("unmarshaling response params: %w", err)
	}
	return &l, nil
}

// marshalMap encodes m for a nullable JSONB column.
func marshalMap(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

// nullJSON converts nil/empty byte slices to nil for nullable JSONB columns.
func nullJSON(b []byte) *[]byte {
	if len(b) == 0 {
		return nil
	}
	return &b
}

func unmarshalMap(data []byte, dst *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// isDuplicateKey checks if the error is a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
