package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	run_id         TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	stage          TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	expected_moic  REAL NOT NULL DEFAULT 0,
	report         TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reports_company ON reports(company);
CREATE INDEX IF NOT EXISTS idx_reports_recommendation ON reports(recommendation);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, report *model.AnalysisReport) error {
	if report == nil || report.RunID == "" {
		return eris.New("sqlite: report has no run id")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (run_id, company, stage, recommendation, expected_moic, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id) DO UPDATE SET
		   company = excluded.company, stage = excluded.stage,
		   recommendation = excluded.recommendation,
		   expected_moic = excluded.expected_moic, report = excluded.report`,
		report.RunID, report.Company, string(report.Facts.Stage),
		string(report.FundFit.Recommendation), report.Valuation.ExpectedMOIC,
		string(reportJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: save report %s", report.RunID)
}

func (s *SQLiteStore) GetReport(ctx context.Context, runID string) (*model.AnalysisReport, error) {
	var reportJSON string

	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM reports WHERE run_id = ?`,
		runID,
	).Scan(&reportJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get report %s", runID)
	}

	var report model.AnalysisReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &report, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.ReportSummary, error) {
	query := `SELECT run_id, company, stage, recommendation, expected_moic, created_at FROM reports WHERE 1=1`
	var args []any

	if filter.Company != "" {
		query += ` AND company = ?`
		args = append(args, filter.Company)
	}
	if filter.Recommendation != "" {
		query += ` AND recommendation = ?`
		args = append(args, string(filter.Recommendation))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var summaries []model.ReportSummary
	for rows.Next() {
		var sum model.ReportSummary
		var stage, rec string
		if err := rows.Scan(&sum.RunID, &sum.Company, &stage, &rec, &sum.ExpectedMOIC, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report summary")
		}
		sum.Stage = model.Stage(stage)
		sum.Recommendation = model.Recommendation(rec)
		summaries = append(summaries, sum)
	}
	return summaries, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

// Open selects a backend from the configured driver. An empty driver
// returns nil: persistence is optional.
func Open(ctx context.Context, driver, databaseURL, path string) (Store, error) {
	switch driver {
	case "":
		return nil, nil
	case "postgres":
		return NewPostgres(ctx, databaseURL, nil)
	case "sqlite":
		if path == "" {
			path = "dilla.db"
		}
		return NewSQLite(path)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
