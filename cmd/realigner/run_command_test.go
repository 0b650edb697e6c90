package main

import (
	"os"
	"path/filepath"
	"testing"

	"realigner/internal/testsupport"
)

func TestRunCommandAssemblesClips(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithVerification(false))
	fakeFFmpeg(t)
	testsupport.WriteCSV(t, env.cfg,
		"train,5,2,5,2,0.0,3.2",
		"train,5,2,5,3,0.0,1.1",
		"train,5,3,5,4,1.0,2.0",
	)
	for _, utt := range []int{2, 3, 4} {
		testsupport.WriteOriginal(t, env.cfg, "train", 5, utt)
	}

	out, _, err := runCLI(t, []string{"run", "--skip-checks"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Run summary")
	requireContains(t, out, "[OK] Completed")
	requireContains(t, out, "2 total, 2 done, 0 empty, 0 skipped, 0 failed")

	realigned := env.cfg.Splits["train"].RealignedDir
	for _, name := range []string{"dia5_utt2.mp4", "dia5_utt3.mp4"} {
		if _, err := os.Stat(filepath.Join(realigned, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	out, _, err = runCLI(t, []string{"run", "--skip-checks", "--resume"}, env.configPath)
	if err != nil {
		t.Fatalf("resume run: %v", err)
	}
	requireContains(t, out, "2 total, 0 done, 0 empty, 2 skipped, 0 failed")
}

func TestRunCommandDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCSV(t, env.cfg, "train,1,0,1,0,0.0,1.0")
	testsupport.WriteOriginal(t, env.cfg, "train", 1, 0)

	out, _, err := runCLI(t, []string{"run", "--dry-run", "--skip-checks"}, env.configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	requireContains(t, out, "Completed (dry run)")
	if _, err := os.Stat(filepath.Join(env.cfg.Splits["train"].RealignedDir, "dia1_utt0.mp4")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not write output: %v", err)
	}
}

func TestRunCommandReportsFailedClip(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithVerification(false))
	fakeFFmpeg(t)
	testsupport.WriteCSV(t, env.cfg, "train,1,0,1,0,0.0,1.0")

	out, stderr, err := runCLI(t, []string{"run", "--skip-checks"}, env.configPath)
	if err == nil {
		t.Fatal("expected run to fail for a missing original clip")
	}
	requireContains(t, out, "[ERROR] Failed")
	requireContains(t, out, "train/dia1_utt0")
	requireContains(t, stderr, "Hint: check the original clip exists")
}

func TestRunCommandRunsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteCSV(t, env.cfg, "train,1,0,1,0,0.0,1.0")
	t.Setenv("PATH", t.TempDir())

	_, stderr, err := runCLI(t, []string{"run"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight to stop the run")
	}
	requireContains(t, stderr, "Hint: run 'realigner check'")
}
