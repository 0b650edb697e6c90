package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned when a run id has no ledger row.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, started_at, finished_at, status, csv_path, split_filter, dry_run, resume, groups_total, groups_done, groups_empty, groups_skipped, groups_failed, error_message"

// StartRun inserts a running row for run.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, started_at, status, csv_path, split_filter, dry_run, resume, groups_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, s.timestamp(), string(RunRunning), run.CSVPath, nullString(run.SplitFilter),
		boolToInt(run.DryRun), boolToInt(run.Resume), run.Counts.Total,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stamps the final status, counters and error of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, counts Counts, runErr error) error {
	var message sql.NullString
	if runErr != nil {
		message = sql.NullString{String: runErr.Error(), Valid: true}
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, groups_total = ?, groups_done = ?, groups_empty = ?,
		 groups_skipped = ?, groups_failed = ?, error_message = ? WHERE id = ?`,
		s.timestamp(), string(status), counts.Total, counts.Done, counts.Empty,
		counts.Skipped, counts.Failed, message, id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LatestRun returns the most recently started run, or nil when the ledger is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.RecentRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// RecentRuns lists up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// MarkInterrupted flips runs left in the running state by a killed process to cancelled.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, finished_at = COALESCE(finished_at, ?), error_message = COALESCE(error_message, ?)
		 WHERE status = ?`,
		string(RunCancelled), s.timestamp(), "interrupted before completion", string(RunRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		startedRaw  sql.NullString
		finishedRaw sql.NullString
		status      string
		splitFilter sql.NullString
		dryRun      int
		resume      int
		message     sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishedRaw,
		&status,
		&run.CSVPath,
		&splitFilter,
		&dryRun,
		&resume,
		&run.Counts.Total,
		&run.Counts.Done,
		&run.Counts.Empty,
		&run.Counts.Skipped,
		&run.Counts.Failed,
		&message,
	); err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	run.Status = RunStatus(status)
	run.SplitFilter = splitFilter.String
	run.DryRun = dryRun != 0
	run.Resume = resume != 0
	run.ErrorMessage = message.String
	return &run, nil
}

func nullString(v string) sql.NullString {
	v = strings.TrimSpace(v)
	return sql.NullString{String: v, Valid: v != ""}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
