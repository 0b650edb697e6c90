package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"realigner/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// A "train" split is configured by default and the CSV path points at
// <base>/realign.csv, which is not created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.RealignmentCSV = filepath.Join(base, "realign.csv")
	cfgVal.Splits = map[string]config.Split{
		"train": splitDirs(base, "train"),
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

func splitDirs(base, name string) config.Split {
	return config.Split{
		OriginalDir:  filepath.Join(base, "original", name),
		RealignedDir: filepath.Join(base, "realigned", name),
	}
}

// WithSplit adds (or replaces) a split whose directories live under the test base dir.
func WithSplit(name string, altFPSDialogues ...int) ConfigOption {
	return func(b *configBuilder) {
		split := splitDirs(b.baseDir, name)
		split.AltFPSDialogues = append([]int(nil), altFPSDialogues...)
		b.cfg.Splits[name] = split
	}
}

// WithVerification toggles the post-assembly duration check.
func WithVerification(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Verification.Enabled = enabled
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
