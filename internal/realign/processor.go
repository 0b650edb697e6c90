package realign

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"realigner/internal/config"
	"realigner/internal/logging"
	"realigner/internal/media/ffmpeg"
	"realigner/internal/services"
	"realigner/internal/timestamps"
	"realigner/internal/workspace"
)

// State is a step of the per-group state machine.
type State string

const (
	StateCollect  State = "collect"
	StateAssemble State = "assemble"
	StateCleanup  State = "cleanup"
	StateDone     State = "done"
)

// Result describes what happened to one group.
type Result struct {
	Key          timestamps.Key
	Output       string
	FPS          float64
	Segments     int
	Mode         ffmpeg.AssembleMode
	Verification Verification
	States       []State
	Elapsed      time.Duration
}

// Written reports whether an output clip was produced.
func (r Result) Written() bool {
	return r.Mode == ffmpeg.AssembleRelocate || r.Mode == ffmpeg.AssembleConcat
}

// Plan is the dry-run view of a group.
type Plan struct {
	Key            timestamps.Key
	Output         string
	FPS            float64
	Sources        []string
	MissingSources []string
	Expected       float64
}

// Processor builds one output clip per group.
type Processor struct {
	cfg       *config.Config
	layout    Layout
	extractor *ffmpeg.Extractor
	assembler *ffmpeg.Assembler
	audio     AudioExtractor
	logger    *slog.Logger
}

// NewProcessor constructs a processor using the ffmpeg profile from cfg.
func NewProcessor(cfg *config.Config, logger *slog.Logger) *Processor {
	profile := ffmpeg.ProfileFromConfig(cfg)
	return &Processor{
		cfg:       cfg,
		layout:    NewLayout(cfg),
		extractor: ffmpeg.NewExtractor(cfg.FFmpegBinary(), profile, logger),
		assembler: ffmpeg.NewAssembler(cfg.FFmpegBinary(), profile, logger),
		audio:     DisabledAudioExtractor{Logger: logger},
		logger:    logging.NewComponentLogger(logger, "processor"),
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (p *Processor) WithCommandRunner(r func(ctx context.Context, name string, args ...string) error) {
	if p == nil || r == nil {
		return
	}
	p.extractor.WithCommandRunner(r)
	p.assembler.WithCommandRunner(r)
}

// WithAudioExtractor replaces the post-assembly audio step.
func (p *Processor) WithAudioExtractor(a AudioExtractor) {
	if p != nil && a != nil {
		p.audio = a
	}
}

// Layout returns the path layout used by the processor.
func (p *Processor) Layout() Layout {
	return p.layout
}

// Process runs COLLECT, ASSEMBLE and CLEANUP for one group. The workspace is
// removed on every path. Extraction and assembly failures are returned tagged
// with services.ErrExtraction or services.ErrAssembly.
func (p *Processor) Process(ctx context.Context, group timestamps.Group) (result Result, err error) {
	started := time.Now()
	ctx = services.WithGroup(ctx, services.GroupRef{Split: group.Split, DialogueID: group.DialogueID, UtteranceID: group.UtteranceID})
	result = Result{
		Key:  group.Key,
		FPS:  p.cfg.FrameRateFor(group.Split, group.DialogueID),
		Mode: ffmpeg.AssembleNone,
	}

	result.Output, err = p.layout.OutputPath(group.Split, group.DialogueID, group.UtteranceID)
	if err != nil {
		return result, err
	}
	parent, err := p.layout.RealignedDir(group.Split)
	if err != nil {
		return result, err
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "collect", "create output directory", parent, err)
	}
	ws, err := workspace.Create(parent, group.DialogueID, group.UtteranceID, p.logger)
	if err != nil {
		return result, services.Wrap(services.ErrExtraction, "collect", "create workspace", result.Output, err)
	}
	defer func() {
		result.States = append(result.States, StateCleanup)
		// Close logs its own warning; a leftover workspace does not fail the group.
		_ = ws.Close()
		result.Elapsed = time.Since(started)
		if err == nil {
			result.States = append(result.States, StateDone)
		}
	}()

	result.States = append(result.States, StateCollect)
	collectCtx := services.WithStage(ctx, string(StateCollect))
	for _, row := range group.Rows {
		source, err := p.layout.OriginalPath(group.Split, row.OriginalDialogueID, row.OriginalUtteranceID)
		if err != nil {
			return result, err
		}
		segment := ws.NextSegment()
		req := ffmpeg.SegmentRequest{
			Source:      source,
			Destination: segment,
			Start:       row.Start,
			End:         row.End,
			FPS:         result.FPS,
		}
		if err := p.extractor.Extract(collectCtx, req); err != nil {
			return result, err
		}
		ws.Commit(segment)
	}
	result.Segments = len(ws.Segments())

	result.States = append(result.States, StateAssemble)
	assembleCtx := services.WithStage(ctx, string(StateAssemble))
	result.Mode, err = p.assembler.Assemble(assembleCtx, ffmpeg.AssembleRequest{
		Segments: ws.Segments(),
		Output:   result.Output,
		ListFile: ws.ListFile(),
		FPS:      result.FPS,
	})
	if err != nil {
		return result, err
	}
	if !result.Written() {
		return result, nil
	}

	if err := p.audio.ExtractAudio(assembleCtx, Clip{
		Split:       group.Split,
		DialogueID:  group.DialogueID,
		UtteranceID: group.UtteranceID,
		Path:        result.Output,
	}); err != nil {
		logging.WarnWithContext(logging.WithContext(assembleCtx, p.logger), "audio extraction failed", "audio_extraction_failed",
			logging.String("output", result.Output),
			logging.Error(err),
			logging.String(logging.FieldImpact, "clip written without extracted audio"),
		)
	}

	result.Verification = p.verify(assembleCtx, group, result)
	return result, nil
}

// verify measures the output with ffprobe. Probe problems, duration and stream layout
// mismatches are logged; none of them fails the group.
func (p *Processor) verify(ctx context.Context, group timestamps.Group, result Result) Verification {
	if !p.cfg.Verification.Enabled {
		return Verification{}
	}
	logger := logging.WithContext(ctx, p.logger)
	probe, err := probeOutput(ctx, p.cfg.FFprobeBinary(), result.Output)
	if err != nil {
		logging.WarnWithContext(logger, "duration check skipped", "verification_skipped",
			logging.String("output", result.Output),
			logging.Error(err),
			logging.String(logging.FieldImpact, "output duration not verified"),
			logging.String(logging.FieldErrorHint, "check ffprobe_binary"),
		)
		return Verification{}
	}
	actual, ok := probe.DurationSeconds()
	if !ok {
		logging.WarnWithContext(logger, "duration check skipped", "verification_skipped",
			logging.String("output", result.Output),
			logging.String("reported_duration", probe.Format.Duration),
			logging.String(logging.FieldImpact, "output duration not verified"),
			logging.String(logging.FieldErrorHint, "probe the output manually with ffprobe"),
		)
		return Verification{}
	}
	v := compareDurations(group.ExpectedDuration(), actual, result.Segments, result.FPS, p.cfg.Verification.ToleranceSeconds)
	v.FrameRate = probe.FrameRate()
	v.ProfileMismatch = !profileMatches(probe, result.FPS, p.cfg.Encoding.AudioChannels)
	if v.Mismatch {
		logging.WarnWithContext(logger, "output duration differs from realignment table", "duration_mismatch",
			logging.String("output", result.Output),
			logging.Float64("expected_seconds", v.Expected),
			logging.Float64("actual_seconds", v.Actual),
			logging.Float64("allowed_seconds", v.Allowed),
			logging.Alert("duration_drift"),
			logging.String(logging.FieldImpact, "clip kept but may be misaligned"),
			logging.String(logging.FieldErrorHint, "inspect the source clip and row timestamps"),
		)
	}
	if v.ProfileMismatch {
		logging.WarnWithContext(logger, "output stream layout differs from encoding profile", "profile_mismatch",
			logging.String("output", result.Output),
			logging.Float64("fps", result.FPS),
			logging.Float64("probed_fps", v.FrameRate),
			logging.Int("audio_channels", probe.AudioChannels()),
			logging.Alert("profile_drift"),
			logging.String(logging.FieldImpact, "clip kept with an unexpected stream layout"),
			logging.String(logging.FieldErrorHint, "check encoding.main_fps, alt_fps_dialogues and audio_channels"),
		)
	}
	if !v.Mismatch && !v.ProfileMismatch {
		logger.Debug("output verified",
			logging.Float64("expected_seconds", v.Expected),
			logging.Float64("actual_seconds", v.Actual),
			logging.Float64("probed_fps", v.FrameRate),
		)
	}
	return v
}

// Plan resolves paths and frame rate for a group without touching ffmpeg.
func (p *Processor) Plan(group timestamps.Group) (Plan, error) {
	plan := Plan{
		Key:      group.Key,
		FPS:      p.cfg.FrameRateFor(group.Split, group.DialogueID),
		Expected: group.ExpectedDuration(),
	}
	var err error
	if plan.Output, err = p.layout.OutputPath(group.Split, group.DialogueID, group.UtteranceID); err != nil {
		return plan, err
	}
	for _, row := range group.Rows {
		source, err := p.layout.OriginalPath(group.Split, row.OriginalDialogueID, row.OriginalUtteranceID)
		if err != nil {
			return plan, err
		}
		plan.Sources = append(plan.Sources, source)
		if _, statErr := os.Stat(source); statErr != nil {
			plan.MissingSources = append(plan.MissingSources, source)
		}
	}
	return plan, nil
}

func (r Result) String() string {
	return fmt.Sprintf("%s → %s (%d segments, %s)", r.Key, r.Output, r.Segments, r.Mode)
}
