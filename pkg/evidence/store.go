package evidence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"llmobs-hq/copilot/pkg/config"
)

// schemaVersion guards against opening a database written by an
// incompatible build.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS evaluations (
	id                    TEXT PRIMARY KEY,
	request_id            TEXT NOT NULL,
	created_at            TIMESTAMP NOT NULL,
	model                 TEXT NOT NULL,
	safe_mode             INTEGER NOT NULL,

	blocked               INTEGER NOT NULL,
	category              TEXT NOT NULL DEFAULT '',
	matched_pattern       TEXT NOT NULL DEFAULT '',
	catalogue_version     TEXT NOT NULL DEFAULT '',

	prompt_tokens         INTEGER NOT NULL,
	completion_tokens     INTEGER NOT NULL,
	latency_ms            INTEGER NOT NULL,

	prompt_cost_micro     INTEGER NOT NULL,
	completion_cost_micro INTEGER NOT NULL,
	total_cost_micro      INTEGER NOT NULL,

	hallucination_risk    REAL NOT NULL,
	performance_score     REAL NOT NULL,
	response_quality      REAL NOT NULL,
	abuse_detected        REAL NOT NULL,
	composite_health      REAL NOT NULL,
	degraded              INTEGER NOT NULL,

	error                 TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
CREATE INDEX IF NOT EXISTS idx_evaluations_request_id ON evaluations(request_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_model ON evaluations(model);
`

// Store persists evaluation records in SQLite. The store is safe for
// concurrent use; database/sql serializes access through its pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the evaluation store at the configured path and
// initializes the schema.
func Open(cfg *config.EvidenceConfig) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open evidence store: %w", err)
	}

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "evidence"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("evidence store opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion,
	); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("evidence store schema version %d, this build expects %d", version, schemaVersion)
	}

	return nil
}

// Insert writes one evaluation record.
func (s *Store) Insert(ctx context.Context, r *Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			id, request_id, created_at, model, safe_mode,
			blocked, category, matched_pattern, catalogue_version,
			prompt_tokens, completion_tokens, latency_ms,
			prompt_cost_micro, completion_cost_micro, total_cost_micro,
			hallucination_risk, performance_score, response_quality,
			abuse_detected, composite_health, degraded,
			error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RequestID, r.CreatedAt, r.Model, r.SafeMode,
		r.Blocked, r.Category, r.MatchedPattern, r.CatalogueVersion,
		r.PromptTokens, r.CompletionTokens, r.LatencyMs,
		r.PromptCostMicro, r.CompletionCostMicro, r.TotalCostMicro,
		r.HallucinationRisk, r.PerformanceScore, r.ResponseQuality,
		r.AbuseDetected, r.CompositeHealth, r.Degraded,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation record: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, created_at, model, safe_mode,
			blocked, category, matched_pattern, catalogue_version,
			prompt_tokens, completion_tokens, latency_ms,
			prompt_cost_micro, completion_cost_micro, total_cost_micro,
			hallucination_risk, performance_score, response_quality,
			abuse_detected, composite_health, degraded,
			error
		FROM evaluations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.RequestID, &r.CreatedAt, &r.Model, &r.SafeMode,
			&r.Blocked, &r.Category, &r.MatchedPattern, &r.CatalogueVersion,
			&r.PromptTokens, &r.CompletionTokens, &r.LatencyMs,
			&r.PromptCostMicro, &r.CompletionCostMicro, &r.TotalCostMicro,
			&r.HallucinationRisk, &r.PerformanceScore, &r.ResponseQuality,
			&r.AbuseDetected, &r.CompositeHealth, &r.Degraded,
			&r.Error,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation record: %w", err)
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}

	return records, nil
}

// Count returns the total number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&count); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes records created before the cutoff and returns
// how many were deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM evaluations WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete by age: %w", err)
	}
	return res.RowsAffected()
}

// TrimToCap deletes the oldest records until at most maxRecords remain
// and returns how many were deleted.
func (s *Store) TrimToCap(ctx context.Context, maxRecords int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM evaluations WHERE id IN (
			SELECT id FROM evaluations
			ORDER BY created_at DESC
			LIMIT -1 OFFSET ?
		)`, maxRecords)
	if err != nil {
		return 0, fmt.Errorf("trim to cap: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
