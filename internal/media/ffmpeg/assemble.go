package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"realigner/internal/fileutil"
	"realigner/internal/logging"
	"realigner/internal/services"
)

// AssembleRequest describes how to build one output clip from ordered segments.
type AssembleRequest struct {
	Segments []string
	Output   string
	// ListFile is where the concat demuxer list is written when more than one segment exists.
	ListFile string
	FPS      float64
}

// AssembleMode reports how an output was produced.
type AssembleMode string

const (
	AssembleNone     AssembleMode = "none"
	AssembleRelocate AssembleMode = "relocate"
	AssembleConcat   AssembleMode = "concat"
)

// Assembler splices segments into the final clip.
type Assembler struct {
	binary  string
	profile Profile
	logger  *slog.Logger
	run     commandRunner
}

// NewAssembler constructs a segment assembler for the given ffmpeg binary and profile.
func NewAssembler(binary string, profile Profile, logger *slog.Logger) *Assembler {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Assembler{
		binary:  binary,
		profile: profile,
		logger:  logging.NewComponentLogger(logger, "assembler"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (a *Assembler) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if a != nil && r != nil {
		a.run = r
	}
}

// Assemble produces req.Output from req.Segments. No segments yields no output,
// one segment is moved into place untouched, and several are re-encoded through
// ffmpeg's concat demuxer in order. Failures are tagged with services.ErrAssembly,
// name the output path, and leave no partial output behind.
func (a *Assembler) Assemble(ctx context.Context, req AssembleRequest) (AssembleMode, error) {
	fail := func(message string, err error) error {
		return services.Wrap(services.ErrAssembly, "assemble", "compose output",
			fmt.Sprintf("%s: %s", req.Output, message), err)
	}
	if strings.TrimSpace(req.Output) == "" {
		return AssembleNone, fail("output path is required", nil)
	}

	switch len(req.Segments) {
	case 0:
		return AssembleNone, nil
	case 1:
		if err := fileutil.MoveFile(req.Segments[0], req.Output); err != nil {
			_ = os.Remove(req.Output)
			return AssembleNone, fail("relocate segment", err)
		}
		return AssembleRelocate, nil
	}

	if err := a.profile.validate(); err != nil {
		return AssembleNone, fail("invalid profile", err)
	}
	if req.FPS <= 0 {
		return AssembleNone, fail(fmt.Sprintf("invalid frame rate %v", req.FPS), nil)
	}
	if strings.TrimSpace(req.ListFile) == "" {
		return AssembleNone, fail("concat list path is required", nil)
	}
	if err := WriteConcatList(req.ListFile, req.Segments); err != nil {
		return AssembleNone, fail("write concat list", err)
	}

	args := BuildConcatArgs(req.ListFile, req.Output, req.FPS, a.profile)
	a.logger.Debug("concatenating segments",
		logging.Int("segments", len(req.Segments)),
		logging.String("output", req.Output),
		logging.String("list_file", req.ListFile),
		logging.String("args", strings.Join(args, " ")),
	)
	if err := a.run(ctx, a.binary, args...); err != nil {
		_ = fileutil.RemoveIfExists(req.Output)
		return AssembleNone, fail("ffmpeg concat failed", err)
	}
	if _, err := os.Stat(req.Output); err != nil {
		return AssembleNone, fail("ffmpeg produced no output", err)
	}
	return AssembleConcat, nil
}

// BuildConcatArgs returns the ffmpeg arguments that re-encode a concat list into output.
func BuildConcatArgs(listFile, output string, fps float64, profile Profile) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	args = append(args, profile.outputArgs(fps)...)
	return append(args, output)
}

// WriteConcatList writes an ffmpeg concat demuxer list with one `file` line per segment.
func WriteConcatList(path string, segments []string) error {
	var b strings.Builder
	for _, segment := range segments {
		abs, err := filepath.Abs(segment)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", segment, err)
		}
		b.WriteString("file '")
		b.WriteString(escapeConcatPath(abs))
		b.WriteString("'\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// escapeConcatPath closes the quote, emits an escaped quote, and reopens it.
func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}
