package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vcf-dpfilter/internal/pipeline"
)

// RunRecord is one completed filtering run.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Input      FileFingerprint
	OutputPath string
	MinDepth   int64
	MaxDepth   int64
	Total      int64
	Passed     int64
	Failed     int64
	Truncated  bool
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewRunRecord builds a record for a finished run with a fresh ID.
// A missing input file leaves only the input path set.
func NewRunRecord(cfg pipeline.Config, s pipeline.Summary, started, finished time.Time) RunRecord {
	input, _ := StatFile(cfg.InputPath)
	return RunRecord{
		ID:         uuid.NewString(),
		StartedAt:  started,
		FinishedAt: finished,
		Input:      input,
		OutputPath: cfg.Output(),
		MinDepth:   int64(cfg.Depth.MinDepth),
		MaxDepth:   int64(cfg.Depth.MaxDepth),
		Total:      int64(s.Total),
		Passed:     int64(s.Passed),
		Failed:     int64(s.Failed()),
		Truncated:  s.Truncated,
	}
}

// WriteRuns batch-inserts run records using the Appender API.
func (s *Store) WriteRuns(runs []RunRecord) error {
	if len(runs) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "filter_runs")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range runs {
		if err := appender.AppendRow(
			r.ID, r.StartedAt.UTC(), r.FinishedAt.UTC(),
			r.Input.Path, r.Input.Size, r.Input.ModTime.UTC(),
			r.OutputPath, r.MinDepth, r.MaxDepth,
			r.Total, r.Passed, r.Failed, r.Truncated,
		); err != nil {
			return fmt.Errorf("append run: %w", err)
		}
	}

	return appender.Flush()
}

// WriteRun inserts a single run record.
func (s *Store) WriteRun(r RunRecord) error {
	return s.WriteRuns([]RunRecord{r})
}

// ListRuns returns the most recent runs first. A limit of 0 or less returns all runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	query := `SELECT
		run_id, started_at, finished_at,
		input_path, input_size, input_modtime,
		output_path, min_depth, max_depth,
		total, passed, failed, truncated
		FROM filter_runs
		ORDER BY started_at DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.Input.Path, &r.Input.Size, &r.Input.ModTime,
			&r.OutputPath, &r.MinDepth, &r.MaxDepth,
			&r.Total, &r.Passed, &r.Failed, &r.Truncated,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunCount returns the number of recorded runs.
func (s *Store) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM filter_runs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// ClearRuns removes all recorded runs.
func (s *Store) ClearRuns() error {
	_, err := s.db.Exec("DELETE FROM filter_runs")
	return err
}
