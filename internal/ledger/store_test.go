package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"realigner/internal/ledger"
	"realigner/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if store.Path() != filepath.Join(cfg.Paths.LogDir, "realign.db") {
		t.Fatalf("unexpected ledger path %s", store.Path())
	}
	run, err := store.LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if run != nil {
		t.Fatalf("expected empty ledger, got %+v", run)
	}

	// Reopening an initialized database must pass the version check.
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	again, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	again.Close()
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	err := store.StartRun(ctx, ledger.Run{ID: "run-1", CSVPath: "/data/realign.csv", SplitFilter: "train", Resume: true, Counts: ledger.Counts{Total: 4}})
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != ledger.RunRunning || run.SplitFilter != "train" || !run.Resume || run.DryRun {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.StartedAt.IsZero() || !run.FinishedAt.IsZero() {
		t.Fatalf("unexpected timestamps %+v", run)
	}

	counts := ledger.Counts{Total: 4, Done: 2, Empty: 1, Failed: 1}
	if err := store.FinishRun(ctx, "run-1", ledger.RunFailed, counts, errors.New("extraction failure")); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}
	run, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != ledger.RunFailed || run.Counts != counts || run.ErrorMessage != "extraction failure" {
		t.Fatalf("unexpected finished run %+v", run)
	}
	if run.FinishedAt.IsZero() {
		t.Fatal("finished_at should be set")
	}
}

func TestGetRunMissing(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	if _, err := store.GetRun(context.Background(), "nope"); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(context.Background(), "nope", ledger.RunCompleted, ledger.Counts{}, nil); !errors.Is(err, ledger.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		ledger.SetClock(store, func() time.Time { return at })
		testsupport.StartRun(t, store, id)
	}
	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order %+v", runs)
	}
	latest, err := store.LatestRun(ctx)
	if err != nil || latest == nil || latest.ID != "c" {
		t.Fatalf("LatestRun = %+v, %v", latest, err)
	}
}

func TestMarkInterrupted(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.StartRun(t, store, "stale")
	testsupport.StartRun(t, store, "finished")
	if err := store.FinishRun(ctx, "finished", ledger.RunCompleted, ledger.Counts{}, nil); err != nil {
		t.Fatal(err)
	}

	n, err := store.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 interrupted run, got %d", n)
	}
	run, _ := store.GetRun(ctx, "stale")
	if run.Status != ledger.RunCancelled || run.ErrorMessage == "" {
		t.Fatalf("unexpected stale run %+v", run)
	}
	run, _ = store.GetRun(ctx, "finished")
	if run.Status != ledger.RunCompleted {
		t.Fatalf("completed run should be untouched, got %s", run.Status)
	}
}

func TestRecordGroupAndLastOutcome(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.StartRun(t, store, "run-1")

	records := []ledger.GroupRecord{
		{RunID: "run-1", Split: "train", DialogueID: 5, UtteranceID: 2, Outcome: ledger.OutcomeFailed, ErrorKind: "extraction", ErrorMessage: "boom"},
		{RunID: "run-1", Split: "train", DialogueID: 5, UtteranceID: 2, Outcome: ledger.OutcomeDone, OutputPath: "/out/dia5_utt2.mp4", Segments: 2, FPS: 23.976, ExpectedSeconds: 4.3, ActualSeconds: 4.31},
		{RunID: "run-1", Split: "train", DialogueID: 5, UtteranceID: 2, Outcome: ledger.OutcomePlanned},
	}
	for _, rec := range records {
		if _, err := store.RecordGroup(ctx, rec); err != nil {
			t.Fatalf("RecordGroup failed: %v", err)
		}
	}

	last, err := store.LastOutcome(ctx, "train", 5, 2)
	if err != nil {
		t.Fatalf("LastOutcome failed: %v", err)
	}
	if last == nil || last.Outcome != ledger.OutcomeDone {
		t.Fatalf("planned outcomes must not shadow real ones, got %+v", last)
	}
	if last.OutputPath != "/out/dia5_utt2.mp4" || last.Segments != 2 || last.ActualSeconds != 4.31 {
		t.Fatalf("unexpected record %+v", last)
	}

	none, err := store.LastOutcome(ctx, "train", 6, 0)
	if err != nil || none != nil {
		t.Fatalf("expected no outcome, got %+v, %v", none, err)
	}

	all, err := store.RunOutcomes(ctx, "run-1")
	if err != nil || len(all) != 3 {
		t.Fatalf("RunOutcomes = %d records, %v", len(all), err)
	}
	failures, err := store.Failures(ctx, "run-1")
	if err != nil || len(failures) != 1 || failures[0].ErrorKind != "extraction" {
		t.Fatalf("Failures = %+v, %v", failures, err)
	}
}

func TestRecordGroupValidation(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := store.RecordGroup(ctx, ledger.GroupRecord{Outcome: ledger.OutcomeDone}); err == nil {
		t.Fatal("expected error without run id")
	}
	if _, err := store.RecordGroup(ctx, ledger.GroupRecord{RunID: "x"}); err == nil {
		t.Fatal("expected error without outcome")
	}
	// Foreign key enforcement rejects unknown runs.
	if _, err := store.RecordGroup(ctx, ledger.GroupRecord{RunID: "unknown", Outcome: ledger.OutcomeDone}); err == nil {
		t.Fatal("expected foreign key error for unknown run")
	}
}

func TestSplitSummariesUseLatestOutcome(t *testing.T) {
	store := testsupport.MustOpenLedger(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.StartRun(t, store, "run-1")

	records := []ledger.GroupRecord{
		{Split: "train", DialogueID: 0, UtteranceID: 0, Outcome: ledger.OutcomeFailed},
		{Split: "train", DialogueID: 0, UtteranceID: 0, Outcome: ledger.OutcomeDone},
		{Split: "train", DialogueID: 0, UtteranceID: 1, Outcome: ledger.OutcomeDone, DurationMismatch: true},
		{Split: "train", DialogueID: 1, UtteranceID: 0, Outcome: ledger.OutcomeEmpty},
		{Split: "dev", DialogueID: 0, UtteranceID: 0, Outcome: ledger.OutcomeFailed},
		{Split: "dev", DialogueID: 1, UtteranceID: 0, Outcome: ledger.OutcomePlanned},
	}
	for _, rec := range records {
		rec.RunID = "run-1"
		if _, err := store.RecordGroup(ctx, rec); err != nil {
			t.Fatalf("RecordGroup failed: %v", err)
		}
	}

	summaries, err := store.SplitSummaries(ctx)
	if err != nil {
		t.Fatalf("SplitSummaries failed: %v", err)
	}
	want := []ledger.SplitSummary{
		{Split: "dev", Failed: 1},
		{Split: "train", Done: 2, Empty: 1, Mismatched: 1},
	}
	if len(summaries) != len(want) {
		t.Fatalf("expected %d summaries, got %+v", len(want), summaries)
	}
	for i := range want {
		if summaries[i] != want[i] {
			t.Errorf("summary %d = %+v, want %+v", i, summaries[i], want[i])
		}
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realign.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	db.Close()

	if _, err := ledger.OpenPath(path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
