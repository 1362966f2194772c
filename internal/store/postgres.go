package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/spigell/interview-analyzer/internal/analysis"
)

const reportsTable = "interview_reports"

const schema = `CREATE TABLE IF NOT EXISTS interview_reports (
    interview_id  TEXT PRIMARY KEY,
    candidate_id  TEXT NOT NULL,
    hr_id         TEXT NOT NULL,
    overall_score DOUBLE PRECISION NOT NULL,
    report        JSONB NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore keeps reports in the interview_reports table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects with the lib/pq driver and makes sure the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is not configured")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresStore(db)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create %s: %w", reportsTable, err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, report *analysis.Report) error {
	if report == nil {
		return errors.New("nil report")
	}
	if err := validateID(report.InterviewID); err != nil {
		return err
	}

	query, args, err := upsertQuery(report)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, interviewID string) (*analysis.Report, error) {
	query, args, err := selectQuery(interviewID)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, interviewID)
	}
	if err != nil {
		return nil, fmt.Errorf("query report: %w", err)
	}

	var report analysis.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", interviewID, err)
	}
	return &report, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func upsertQuery(report *analysis.Report) (string, []any, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", nil, fmt.Errorf("encode report: %w", err)
	}

	query, args, err := psql.Insert(reportsTable).
		Columns("interview_id", "candidate_id", "hr_id", "overall_score", "report").
		Values(report.InterviewID, report.CandidateID, report.HRID, report.OverallScore, string(data)).
		Suffix(`ON CONFLICT (interview_id) DO UPDATE SET
    candidate_id = EXCLUDED.candidate_id,
    hr_id = EXCLUDED.hr_id,
    overall_score = EXCLUDED.overall_score,
    report = EXCLUDED.report,
    updated_at = NOW()`).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return query, args, nil
}

func selectQuery(interviewID string) (string, []any, error) {
	query, args, err := psql.Select("report").
		From(reportsTable).
		Where(sq.Eq{"interview_id": interviewID}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build select: %w", err)
	}
	return query, args, nil
}
