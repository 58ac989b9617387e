package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/TalFeiny/Dilla-sub007/internal/db"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"save_report": `INSERT INTO reports (run_id, company, stage, recommendation, expected_moic, report, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 ON CONFLICT (run_id) DO UPDATE SET
	   company = $2, stage = $3, recommendation = $4, expected_moic = $5, report = $6`,
	"get_report": `SELECT report FROM reports WHERE run_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	run_id         TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	stage          TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	expected_moic  DOUBLE PRECISION NOT NULL DEFAULT 0,
	report         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_company ON reports(company);
CREATE INDEX IF NOT EXISTS idx_reports_recommendation ON reports(recommendation);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, report *model.AnalysisReport) error {
	if report == nil || report.RunID == "" {
		return eris.New("postgres: report has no run id")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reports (run_id, company, stage, recommendation, expected_moic, report, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (run_id) DO UPDATE SET
		   company = $2, stage = $3, recommendation = $4, expected_moic = $5, report = $6`,
		report.RunID, report.Company, string(report.Facts.Stage),
		string(report.FundFit.Recommendation), report.Valuation.ExpectedMOIC,
		reportJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: save report %s", report.RunID)
}

func (s *PostgresStore) GetReport(ctx context.Context, runID string) (*model.AnalysisReport, error) {
	var reportJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT report FROM reports WHERE run_id = $1`,
		runID,
	).Scan(&reportJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get report %s", runID)
	}

	var report model.AnalysisReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &report, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.ReportSummary, error) {
	query := `SELECT run_id, company, stage, recommendation, expected_moic, created_at FROM reports WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Company != "" {
		query += fmt.Sprintf(` AND company = $%d`, argIdx)
		args = append(args, filter.Company)
		argIdx++
	}
	if filter.Recommendation != "" {
		query += fmt.Sprintf(` AND recommendation = $%d`, argIdx)
		args = append(args, string(filter.Recommendation))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var summaries []model.ReportSummary
	for rows.Next() {
		var sum model.ReportSummary
		var stage, rec string
		if err := rows.Scan(&sum.RunID, &sum.Company, &stage, &rec, &sum.ExpectedMOIC, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report summary")
		}
		sum.Stage = model.Stage(stage)
		sum.Recommendation = model.Recommendation(rec)
		summaries = append(summaries, sum)
	}
	return summaries, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}
