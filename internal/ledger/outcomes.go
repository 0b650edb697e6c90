package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const outcomeColumns = "id, run_id, split, dialogue_id, utterance_id, outcome, output_path, segments, fps, expected_seconds, actual_seconds, duration_mismatch, error_kind, error_message, recorded_at"

// RecordGroup appends the outcome of one clip.
func (s *Store) RecordGroup(ctx context.Context, rec GroupRecord) (int64, error) {
	if rec.RunID == "" {
		return 0, fmt.Errorf("run id is required")
	}
	if rec.Outcome == "" {
		return 0, fmt.Errorf("outcome is required")
	}
	var actual sql.NullFloat64
	if rec.ActualSeconds > 0 {
		actual = sql.NullFloat64{Float64: rec.ActualSeconds, Valid: true}
	}
	res, err := s.exec(ctx,
		`INSERT INTO outcomes (run_id, split, dialogue_id, utterance_id, outcome, output_path, segments, fps,
		 expected_seconds, actual_seconds, duration_mismatch, error_kind, error_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Split, rec.DialogueID, rec.UtteranceID, string(rec.Outcome),
		nullString(rec.OutputPath), rec.Segments, rec.FPS, rec.ExpectedSeconds, actual,
		boolToInt(rec.DurationMismatch), nullString(rec.ErrorKind), nullString(rec.ErrorMessage), s.timestamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("record %s/dia%d_utt%d: %w", rec.Split, rec.DialogueID, rec.UtteranceID, err)
	}
	return res.LastInsertId()
}

// LastOutcome returns the most recent non-planned outcome for a clip, or nil when none exists.
func (s *Store) LastOutcome(ctx context.Context, split string, dialogueID, utteranceID int) (*GroupRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+outcomeColumns+` FROM outcomes
		 WHERE split = ? AND dialogue_id = ? AND utterance_id = ? AND outcome != ?
		 ORDER BY id DESC LIMIT 1`,
		split, dialogueID, utteranceID, string(OutcomePlanned),
	)
	rec, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// RunOutcomes lists a run's outcomes in the order they were recorded.
func (s *Store) RunOutcomes(ctx context.Context, runID string) ([]GroupRecord, error) {
	return s.queryOutcomes(ctx, "SELECT "+outcomeColumns+" FROM outcomes WHERE run_id = ? ORDER BY id", runID)
}

// Failures lists a run's failed outcomes.
func (s *Store) Failures(ctx context.Context, runID string) ([]GroupRecord, error) {
	return s.queryOutcomes(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes WHERE run_id = ? AND outcome = ? ORDER BY id",
		runID, string(OutcomeFailed))
}

// SplitSummaries aggregates the latest real outcome per clip, grouped by split.
func (s *Store) SplitSummaries(ctx context.Context) ([]SplitSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
		WITH latest AS (
			SELECT o.split, o.outcome, o.duration_mismatch
			FROM outcomes o
			JOIN (
				SELECT MAX(id) AS id FROM outcomes WHERE outcome != ?
				GROUP BY split, dialogue_id, utterance_id
			) m ON m.id = o.id
		)
		SELECT split,
			SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
			SUM(CASE WHEN outcome = ? AND duration_mismatch = 1 THEN 1 ELSE 0 END)
		FROM latest
		GROUP BY split
		ORDER BY split`,
		string(OutcomePlanned), string(OutcomeDone), string(OutcomeEmpty), string(OutcomeFailed), string(OutcomeDone),
	)
	if err != nil {
		return nil, fmt.Errorf("summarize splits: %w", err)
	}
	defer rows.Close()

	var summaries []SplitSummary
	for rows.Next() {
		var sum SplitSummary
		if err := rows.Scan(&sum.Split, &sum.Done, &sum.Empty, &sum.Failed, &sum.Mismatched); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *Store) queryOutcomes(ctx context.Context, query string, args ...any) ([]GroupRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var records []GroupRecord
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanOutcome(scanner interface{ Scan(dest ...any) error }) (*GroupRecord, error) {
	var (
		rec         GroupRecord
		outcome     string
		outputPath  sql.NullString
		fps         sql.NullFloat64
		expected    sql.NullFloat64
		actual      sql.NullFloat64
		mismatch    int
		errorKind   sql.NullString
		errorMsg    sql.NullString
		recordedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Split,
		&rec.DialogueID,
		&rec.UtteranceID,
		&outcome,
		&outputPath,
		&rec.Segments,
		&fps,
		&expected,
		&actual,
		&mismatch,
		&errorKind,
		&errorMsg,
		&recordedRaw,
	); err != nil {
		return nil, err
	}
	rec.Outcome = Outcome(outcome)
	rec.OutputPath = outputPath.String
	rec.FPS = fps.Float64
	rec.ExpectedSeconds = expected.Float64
	rec.ActualSeconds = actual.Float64
	rec.DurationMismatch = mismatch != 0
	rec.ErrorKind = errorKind.String
	rec.ErrorMessage = errorMsg.String
	rec.RecordedAt = parseTime(recordedRaw)
	return &rec, nil
}
