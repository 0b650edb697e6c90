package main

import (
	"strings"
	"testing"

	"realigner/internal/ledger"
	"realigner/internal/testsupport"
)

func TestStatusCommandEmptyLedger(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")
}

func TestStatusCommandAfterRuns(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithVerification(false))
	fakeFFmpeg(t)
	testsupport.WriteCSV(t, env.cfg,
		"train,1,0,1,0,0.0,1.0",
		"train,2,0,2,0,0.0,1.0",
	)
	testsupport.WriteOriginal(t, env.cfg, "train", 1, 0)

	if _, _, err := runCLI(t, []string{"run", "--skip-checks"}, env.configPath); err == nil {
		t.Fatal("expected the second clip to fail")
	}
	testsupport.WriteOriginal(t, env.cfg, "train", 2, 0)
	if _, _, err := runCLI(t, []string{"run", "--skip-checks", "--resume"}, env.configPath); err != nil {
		t.Fatalf("resume run: %v", err)
	}

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[OK] Completed")
	requireContains(t, out, "2 total, 1 done, 0 empty, 1 skipped, 0 failed")
	requireContainsFold(t, out, "Recent runs")
	requireContainsFold(t, out, "Clips by split")
	requireContains(t, out, "Train")

	store := testsupport.MustOpenLedger(t, env.cfg)
	runs, err := store.RecentRuns(t.Context(), 5)
	if err != nil || len(runs) != 2 {
		t.Fatalf("RecentRuns = %d, %v", len(runs), err)
	}
	failedRun := runs[1]
	if failedRun.Status != ledger.RunFailed {
		t.Fatalf("expected older run to have failed, got %s", failedRun.Status)
	}
	store.Close()

	out, _, err = runCLI(t, []string{"status", "--run", failedRun.ID}, env.configPath)
	if err != nil {
		t.Fatalf("status --run: %v", err)
	}
	requireContains(t, out, "[ERROR] Failed")
	requireContainsFold(t, out, "Failed clips")
	requireContains(t, out, "train/dia2_utt0")
}

func TestStatusCommandUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"status", "--run", "missing"}, env.configPath); err == nil {
		t.Fatal("expected an error for an unknown run id")
	}
}

func TestSplitsTableTotals(t *testing.T) {
	rendered := splitsTable([]ledger.SplitSummary{
		{Split: "dev", Done: 1200, Empty: 1, Failed: 0, Mismatched: 2},
		{Split: "train", Done: 9000, Empty: 3, Failed: 1},
	})
	for _, want := range []string{"Dev", "Train", "1,200", "10,200", "DURATION DRIFT"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, rendered)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short\nmessage", 20); got != "short message" {
		t.Fatalf("truncate collapsed whitespace wrong: %q", got)
	}
	got := truncate(strings.Repeat("x", 30), 10)
	if got != "xxxxxxx..." {
		t.Fatalf("truncate = %q", got)
	}
}
