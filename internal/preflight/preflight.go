package preflight

import (
	"context"
	"fmt"
	"strings"

	"realigner/internal/config"
	"realigner/internal/services"
)

// minFreeBytes is the free space required under each realigned directory.
var minFreeBytes uint64 = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Binary marks results produced by the external tool checks.
	Binary bool
}

// RunAll executes all preflight checks for the given config. When split is
// set only that split's directories are checked.
func RunAll(ctx context.Context, cfg *config.Config, split string) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(ctx, cfg) {
		detail := status.Path
		if status.Version != "" {
			detail = status.Version
		}
		if !status.Available {
			detail = status.Detail
		}
		results = append(results, Result{
			Name:   status.Name,
			Passed: status.Available || status.Optional,
			Detail: detail,
			Binary: true,
		})
	}

	results = append(results, CheckRealignmentTable("Realignment table", cfg))
	results = append(results, CheckDirectoryCreatable("Log directory", cfg.Paths.LogDir))

	for _, name := range cfg.SplitNames() {
		if split != "" && name != split {
			continue
		}
		s := cfg.Splits[name]
		results = append(results,
			CheckDirectoryReadable(fmt.Sprintf("Originals (%s)", name), s.OriginalDir),
			CheckDirectoryCreatable(fmt.Sprintf("Realigned (%s)", name), s.RealignedDir),
			CheckFreeSpace(fmt.Sprintf("Free space (%s)", name), s.RealignedDir, minFreeBytes),
		)
	}
	return results
}

// Failed returns the failing results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// WithoutBinaries drops the external tool results, for runs that never invoke them.
func WithoutBinaries(results []Result) []Result {
	kept := make([]Result, 0, len(results))
	for _, r := range results {
		if !r.Binary {
			kept = append(kept, r)
		}
	}
	return kept
}

// Err summarizes failing results as a configuration error, or nil when all passed.
func Err(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "readiness checks", strings.Join(parts, "; "), nil)
}
