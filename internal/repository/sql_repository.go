package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go-script-evaluator/pkg/models"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type sqlReportRepository struct {
	db     *sql.DB
	driver string
}

// Open connects to the report database and ensures the schema exists.
// An empty DSN selects a local SQLite file or a localhost Postgres database.
func Open(ctx context.Context, driver, dsn string) (ReportRepository, error) {
	var drvName string
	switch strings.ToLower(driver) {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "file:evaluations.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres, "pgx":
		driver = DriverPostgres
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/evaluations?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if drvName == "sqlite" {
		// A single connection keeps in-memory databases shared.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}

	schema := schemaSQLite
	if driver == DriverPostgres {
		schema = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &sqlReportRepository{db: db, driver: driver}, nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS evaluation_reports (
  id TEXT PRIMARY KEY,
  student_source TEXT NOT NULL,
  strategy TEXT NOT NULL,
  mean_score REAL NOT NULL DEFAULT 0,
  mean_neatness REAL NOT NULL DEFAULT 0,
  questions_evaluated INTEGER NOT NULL DEFAULT 0,
  report_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_student ON evaluation_reports(student_source, created_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS evaluation_reports (
  id TEXT PRIMARY KEY,
  student_source TEXT NOT NULL,
  strategy TEXT NOT NULL,
  mean_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  mean_neatness DOUBLE PRECISION NOT NULL DEFAULT 0,
  questions_evaluated INTEGER NOT NULL DEFAULT 0,
  report_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reports_student ON evaluation_reports(student_source, created_at);
`

func (r *sqlReportRepository) SaveReport(ctx context.Context, report *models.EvaluationReport) error {
	buf, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO evaluation_reports
		(id,student_source,strategy,mean_score,mean_neatness,questions_evaluated,report_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
		  strategy=EXCLUDED.strategy,
		  mean_score=EXCLUDED.mean_score,
		  mean_neatness=EXCLUDED.mean_neatness,
		  questions_evaluated=EXCLUDED.questions_evaluated,
		  report_json=EXCLUDED.report_json`,
		report.ID,
		report.StudentSource,
		report.Strategy,
		report.Scorecard.MeanScore,
		report.Scorecard.MeanNeatness,
		report.Scorecard.QuestionsEvaluated,
		string(buf),
		report.CreatedAt.Unix(),
	)
	return err
}

func (r *sqlReportRepository) GetReport(ctx context.Context, id string) (*models.EvaluationReport, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT report_json FROM evaluation_reports WHERE id=$1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	var report models.EvaluationReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &report, nil
}

func (r *sqlReportRepository) ListReports(ctx context.Context, studentSource string, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id,student_source,strategy,mean_score,mean_neatness,questions_evaluated,created_at
		FROM evaluation_reports WHERE student_source=$1
		ORDER BY created_at DESC, id DESC LIMIT $2`, studentSource, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReportSummary{}
	for rows.Next() {
		var s ReportSummary
		if err := rows.Scan(&s.ID, &s.StudentSource, &s.Strategy, &s.MeanScore, &s.MeanNeatness, &s.QuestionsEvaluated, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqlReportRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
