package realignrun

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"realigner/internal/config"
	"realigner/internal/ledger"
	"realigner/internal/realign"
	"realigner/internal/services"
	"realigner/internal/testsupport"
)

func writeOutput(_ context.Context, _ string, args ...string) error {
	return os.WriteFile(args[len(args)-1], []byte("clip"), 0o644)
}

func TestRunProcessesTableAndWritesRunLog(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVerification(false))
	testsupport.WriteCSV(t, cfg,
		"train,5,2,5,2,0.0,3.2",
		"train,5,2,5,3,0.0,1.1",
	)
	testsupport.WriteOriginal(t, cfg, "train", 5, 2)
	testsupport.WriteOriginal(t, cfg, "train", 5, 3)

	session, err := Run(context.Background(), cfg, Options{
		SkipPreflight: true,
		Configure: func(r *realign.Runner) {
			r.Processor().WithCommandRunner(writeOutput)
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if session.Summary.Status != ledger.RunCompleted || session.Summary.Counts.Done != 1 {
		t.Fatalf("unexpected summary: %+v", session.Summary)
	}
	if _, err := os.Stat(filepath.Join(cfg.Splits["train"].RealignedDir, "dia5_utt2.mp4")); err != nil {
		t.Fatalf("expected output clip: %v", err)
	}
	if _, err := os.Stat(session.LogPath); err != nil {
		t.Fatalf("expected run log: %v", err)
	}
	pointer, err := filepath.EvalSymlinks(filepath.Join(cfg.Paths.LogDir, "realigner.log"))
	if err != nil {
		t.Fatalf("resolve log pointer: %v", err)
	}
	want, _ := filepath.EvalSymlinks(session.LogPath)
	if pointer != want {
		t.Fatalf("log pointer = %s, want %s", pointer, want)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	run, err := store.LatestRun(context.Background())
	if err != nil || run == nil {
		t.Fatalf("LatestRun: %v %v", run, err)
	}
	if run.ID != session.Summary.RunID {
		t.Fatalf("ledger run id = %s, want %s", run.ID, session.Summary.RunID)
	}
}

func TestRunRequiresRunnableConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.RealignmentCSV = ""
	if _, err := Run(context.Background(), cfg, Options{SkipPreflight: true}); err == nil {
		t.Fatal("expected error for missing realignment_csv")
	}
	if _, err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunStopsOnPreflightFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	testsupport.WriteCSV(t, cfg, "train,1,0,1,0,0,1")

	_, err := Run(context.Background(), cfg, Options{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error from preflight, got %v", err)
	}
	if _, statErr := os.Stat(cfg.LedgerPath()); !os.IsNotExist(statErr) {
		t.Fatalf("ledger should not be opened when preflight fails: %v", statErr)
	}
}

func TestEnsureCurrentLogPointerReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "realigner-a.log")
	second := filepath.Join(dir, "realigner-b.log")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := ensureCurrentLogPointer(dir, first); err != nil {
		t.Fatalf("first pointer: %v", err)
	}
	if err := ensureCurrentLogPointer(dir, second); err != nil {
		t.Fatalf("second pointer: %v", err)
	}
	target, err := os.Readlink(filepath.Join(dir, "realigner.log"))
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != second {
		t.Fatalf("pointer target = %s, want %s", target, second)
	}
}

func TestLogDependencySnapshotToleratesNil(t *testing.T) {
	logDependencySnapshot(nil, nil)
	logDependencySnapshot(nil, &config.Config{})
}
