package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"realigner/internal/logging"
	"realigner/internal/services"
)

// SegmentRequest describes one [Start, End) cut of a source clip.
type SegmentRequest struct {
	Source      string
	Destination string
	Start       float64
	End         float64
	FPS         float64
}

// Extractor cuts segments out of original clips.
type Extractor struct {
	binary  string
	profile Profile
	logger  *slog.Logger
	run     commandRunner
}

// NewExtractor constructs a segment extractor for the given ffmpeg binary and profile.
func NewExtractor(binary string, profile Profile, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Extractor{
		binary:  binary,
		profile: profile,
		logger:  logging.NewComponentLogger(logger, "extractor"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (e *Extractor) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if e != nil && r != nil {
		e.run = r
	}
}

// Extract re-encodes req.Source between req.Start and req.End into req.Destination.
// Every failure is tagged with services.ErrExtraction and names both paths.
func (e *Extractor) Extract(ctx context.Context, req SegmentRequest) error {
	fail := func(message string, err error) error {
		return services.Wrap(services.ErrExtraction, "collect", "cut segment",
			fmt.Sprintf("%s out of %s: %s", req.Destination, req.Source, message), err)
	}
	if err := e.profile.validate(); err != nil {
		return fail("invalid profile", err)
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Destination) == "" {
		return fail("source and destination are required", nil)
	}
	if req.FPS <= 0 {
		return fail(fmt.Sprintf("invalid frame rate %v", req.FPS), nil)
	}
	if req.Start < 0 || req.End <= req.Start {
		return fail(fmt.Sprintf("invalid range [%v, %v)", req.Start, req.End), nil)
	}
	info, err := os.Stat(req.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fail("source clip not found", err)
		}
		return fail("stat source", err)
	}
	if info.IsDir() {
		return fail("source is a directory", nil)
	}

	args := BuildExtractArgs(req, e.profile)
	e.logger.Debug("cutting segment",
		logging.String("source", req.Source),
		logging.String("destination", req.Destination),
		logging.Float64("start", req.Start),
		logging.Float64("end", req.End),
		logging.Float64("fps", req.FPS),
		logging.String("args", strings.Join(args, " ")),
	)
	if err := e.run(ctx, e.binary, args...); err != nil {
		_ = os.Remove(req.Destination)
		return fail("ffmpeg failed", err)
	}
	if _, err := os.Stat(req.Destination); err != nil {
		return fail("ffmpeg produced no output", err)
	}
	return nil
}

// BuildExtractArgs returns the ffmpeg arguments for a segment cut. Seeking is
// done after -i so the cut is frame accurate.
func BuildExtractArgs(req SegmentRequest, profile Profile) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", req.Source,
		"-ss", FormatTimestamp(req.Start),
		"-to", FormatTimestamp(req.End),
	}
	args = append(args, profile.outputArgs(req.FPS)...)
	return append(args, req.Destination)
}
