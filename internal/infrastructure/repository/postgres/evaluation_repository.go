package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

const (
	schemaLockKey      = int64(2026101901)
	maxListRecentLimit = 200
)

// EvaluationRepository is the Postgres evaluation journal.
type EvaluationRepository struct {
	db *sql.DB
}

func NewEvaluationRepository(db *sql.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *EvaluationRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across web/tui/mcp startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS evaluations (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	company_query TEXT NOT NULL,
	status TEXT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_evaluations_session ON evaluations(session_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) Record(ctx context.Context, record domain.EvaluationRecord) error {
	if record.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "record evaluation", fmt.Errorf("id is empty"))
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO evaluations (
	id, session_id, company_query, status, overall_score, error_message, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		record.ID, record.SessionID, record.CompanyQuery, string(record.Status),
		record.OverallScore, record.Error, record.Duration.Milliseconds(), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) ListRecent(ctx context.Context, limit int) ([]domain.EvaluationRecord, error) {
	if limit <= 0 || limit > maxListRecentLimit {
		limit = maxListRecentLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, company_query, status, overall_score, error_message, duration_ms, created_at
FROM evaluations
ORDER BY created_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.EvaluationRecord, 0, limit)
	for rows.Next() {
		var record domain.EvaluationRecord
		var status string
		var durationMS int64
		if err := rows.Scan(
			&record.ID, &record.SessionID, &record.CompanyQuery, &status,
			&record.OverallScore, &record.Error, &durationMS, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		record.Status = domain.EvaluationStatus(status)
		record.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return out, nil
}
