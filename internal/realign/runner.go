package realign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"realigner/internal/config"
	"realigner/internal/ledger"
	"realigner/internal/logging"
	"realigner/internal/services"
	"realigner/internal/timestamps"
	"realigner/internal/workspace"
)

// ErrRunLocked is returned when another process holds the run lock.
var ErrRunLocked = errors.New("another realignment run is in progress")

// progressEvery is the dialogue interval of progress log lines.
const progressEvery = 20

// Options narrows or alters a run.
type Options struct {
	// Split limits the run to one split when set.
	Split string
	// Resume skips clips whose last ledger outcome is done and whose output still exists.
	Resume bool
	// DryRun logs the plan for each clip without invoking ffmpeg.
	DryRun bool
}

// Summary reports how a run ended.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Status    ledger.RunStatus
	Counts    ledger.Counts
	Elapsed   time.Duration
	// Failed is the clip that stopped the run, if any.
	Failed *timestamps.Key
}

// Runner processes every group of the realignment table in order.
type Runner struct {
	cfg       *config.Config
	store     *ledger.Store
	processor *Processor
	logger    *slog.Logger
	lockPath  string
	newRunID  func() string
}

// NewRunner wires a runner. store may be nil, which disables the ledger and --resume.
func NewRunner(cfg *config.Config, store *ledger.Store, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     store,
		processor: NewProcessor(cfg, logger),
		logger:    logging.NewComponentLogger(logger, "runner"),
		lockPath:  cfg.LockPath(),
		newRunID:  uuid.NewString,
	}
}

// Processor exposes the group processor for customization.
func (r *Runner) Processor() *Processor {
	return r.processor
}

// Run loads the realignment table and processes its groups sequentially,
// stopping at the first failure.
func (r *Runner) Run(ctx context.Context, opts Options) (summary Summary, err error) {
	summary = Summary{RunID: r.newRunID(), StartedAt: time.Now(), Status: ledger.RunRunning}
	defer func() {
		if summary.Elapsed == 0 {
			summary.Elapsed = time.Since(summary.StartedAt)
		}
		if err != nil && summary.Status == ledger.RunRunning {
			summary.Status = ledger.RunFailed
		}
	}()

	if opts.Resume && r.store == nil {
		return summary, services.Wrap(services.ErrConfiguration, "run", "resume", "resume requires the ledger", nil)
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "run", "prepare directories", "", err)
	}

	lock := flock.New(r.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire lock %s: %w", r.lockPath, err)
	}
	if !ok {
		return summary, fmt.Errorf("%w (lock %s)", ErrRunLocked, r.lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, r.logger)

	groups, err := r.selectGroups(opts)
	if err != nil {
		return summary, err
	}
	summary.Counts.Total = len(groups)

	if !opts.DryRun {
		r.sweepWorkspaces(ctx, logger, groups)
	}
	r.startLedger(ctx, logger, opts, summary.Counts)

	logger.Info("realignment started",
		logging.String("csv", r.cfg.Paths.RealignmentCSV),
		logging.Int("groups_total", len(groups)),
		logging.String("split_filter", opts.Split),
		logging.Bool("resume", opts.Resume),
		logging.Bool("dry_run", opts.DryRun),
		logging.String(logging.FieldEventType, "run_started"),
	)

	for _, group := range groups {
		if ctx.Err() != nil {
			return r.finish(ctx, logger, summary, ledger.RunCancelled, ctx.Err())
		}
		if group.DialogueID > 0 && group.DialogueID%progressEvery == 0 && group.UtteranceID == 0 {
			logger.Info(fmt.Sprintf("realigned clips for the first %d dialogues of %s assembled", group.DialogueID, group.Split),
				logging.String(logging.FieldSplit, group.Split),
				logging.Int("groups_done", summary.Counts.Done),
				logging.Int("groups_total", summary.Counts.Total),
				logging.String(logging.FieldEventType, "run_progress"),
			)
		}

		if opts.Resume && r.alreadyDone(ctx, logger, group) {
			summary.Counts.Skipped++
			continue
		}
		if opts.DryRun {
			if err := r.plan(ctx, logger, summary.RunID, group); err != nil {
				return r.fail(ctx, logger, summary, group, err)
			}
			continue
		}

		result, err := r.processor.Process(ctx, group)
		if err != nil {
			r.record(ctx, logger, ledger.GroupRecord{
				RunID:           summary.RunID,
				Split:           group.Split,
				DialogueID:      group.DialogueID,
				UtteranceID:     group.UtteranceID,
				Outcome:         ledger.OutcomeFailed,
				OutputPath:      result.Output,
				Segments:        result.Segments,
				FPS:             result.FPS,
				ExpectedSeconds: group.ExpectedDuration(),
				ErrorKind:       services.FailureKind(err),
				ErrorMessage:    err.Error(),
			})
			if ctx.Err() != nil {
				return r.finish(ctx, logger, summary, ledger.RunCancelled, ctx.Err())
			}
			return r.fail(ctx, logger, summary, group, err)
		}

		outcome := ledger.OutcomeDone
		if result.Written() {
			summary.Counts.Done++
		} else {
			outcome = ledger.OutcomeEmpty
			summary.Counts.Empty++
		}
		r.record(ctx, logger, ledger.GroupRecord{
			RunID:            summary.RunID,
			Split:            group.Split,
			DialogueID:       group.DialogueID,
			UtteranceID:      group.UtteranceID,
			Outcome:          outcome,
			OutputPath:       result.Output,
			Segments:         result.Segments,
			FPS:              result.FPS,
			ExpectedSeconds:  group.ExpectedDuration(),
			ActualSeconds:    result.Verification.Actual,
			DurationMismatch: result.Verification.Mismatch,
		})
		logger.Debug("clip assembled",
			logging.String(logging.FieldSplit, group.Split),
			logging.Int(logging.FieldDialogueID, group.DialogueID),
			logging.Int(logging.FieldUtteranceID, group.UtteranceID),
			logging.String("output", result.Output),
			logging.Int("segments", result.Segments),
			logging.String("mode", string(result.Mode)),
			logging.Duration("elapsed", result.Elapsed),
		)
	}

	return r.finish(ctx, logger, summary, ledger.RunCompleted, nil)
}

// selectGroups applies the split filter and rejects splits missing from the configuration.
func (r *Runner) selectGroups(opts Options) ([]timestamps.Group, error) {
	split := strings.TrimSpace(opts.Split)
	if split != "" {
		if _, ok := r.cfg.Split(split); !ok {
			return nil, services.Wrap(services.ErrConfiguration, "run", "select split",
				fmt.Sprintf("split %q is not configured", split), nil)
		}
	}

	table, err := timestamps.Load(r.cfg.Paths.RealignmentCSV)
	if err != nil {
		return nil, err
	}
	groups := table.Groups
	if split != "" {
		groups = table.FilterSplit(split)
	}

	var unknown []string
	seen := make(map[string]bool)
	for _, g := range groups {
		if _, ok := r.cfg.Split(g.Split); !ok && !seen[g.Split] {
			seen[g.Split] = true
			unknown = append(unknown, g.Split)
		}
	}
	if len(unknown) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "run", "select split",
			"realignment table references unconfigured splits: "+strings.Join(unknown, ", "), nil)
	}
	return groups, nil
}

// sweepWorkspaces removes workspaces left by a killed run. The run lock is held,
// so every tmp_dia directory in a realigned dir is stale.
func (r *Runner) sweepWorkspaces(ctx context.Context, logger *slog.Logger, groups []timestamps.Group) {
	seen := make(map[string]bool)
	for _, g := range groups {
		if seen[g.Split] {
			continue
		}
		seen[g.Split] = true
		dir, err := r.processor.Layout().RealignedDir(g.Split)
		if err != nil {
			continue
		}
		result := workspace.CleanStale(ctx, dir, 0, logger)
		for _, failure := range result.Errors {
			logging.WarnWithContext(logger, "stale workspace not removed", "workspace_cleanup_failed",
				logging.String("path", failure.Path),
				logging.Error(failure.Error),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}
}

func (r *Runner) alreadyDone(ctx context.Context, logger *slog.Logger, group timestamps.Group) bool {
	last, err := r.store.LastOutcome(ctx, group.Split, group.DialogueID, group.UtteranceID)
	if err != nil {
		logging.WarnWithContext(logger, "ledger lookup failed; reprocessing clip", "ledger_read_failed",
			logging.String(logging.FieldSplit, group.Split),
			logging.Int(logging.FieldDialogueID, group.DialogueID),
			logging.Int(logging.FieldUtteranceID, group.UtteranceID),
			logging.Error(err),
		)
		return false
	}
	if last == nil {
		return false
	}
	switch last.Outcome {
	case ledger.OutcomeEmpty:
		return true
	case ledger.OutcomeDone:
		if last.OutputPath == "" {
			return false
		}
		_, statErr := os.Stat(last.OutputPath)
		return statErr == nil
	default:
		return false
	}
}

func (r *Runner) plan(ctx context.Context, logger *slog.Logger, runID string, group timestamps.Group) error {
	plan, err := r.processor.Plan(group)
	if err != nil {
		return err
	}
	groupLogger := logging.WithContext(services.WithGroup(ctx, services.GroupRef{
		Split: group.Split, DialogueID: group.DialogueID, UtteranceID: group.UtteranceID,
	}), r.logger)
	groupLogger.Info("planned clip",
		logging.String("output", plan.Output),
		logging.Int("segments", len(plan.Sources)),
		logging.Float64("fps", plan.FPS),
		logging.Float64("expected_seconds", plan.Expected),
		logging.String("sources", strings.Join(plan.Sources, ", ")),
		logging.String(logging.FieldEventType, "clip_planned"),
	)
	if len(plan.MissingSources) > 0 {
		logging.WarnWithContext(groupLogger, "planned clip references missing sources", "source_missing",
			logging.String("missing", strings.Join(plan.MissingSources, ", ")),
			logging.String(logging.FieldImpact, "a real run would stop at this clip"),
			logging.String(logging.FieldErrorHint, "check original_dir for the split"),
		)
	}
	r.record(ctx, logger, ledger.GroupRecord{
		RunID:           runID,
		Split:           group.Split,
		DialogueID:      group.DialogueID,
		UtteranceID:     group.UtteranceID,
		Outcome:         ledger.OutcomePlanned,
		OutputPath:      plan.Output,
		Segments:        len(plan.Sources),
		FPS:             plan.FPS,
		ExpectedSeconds: plan.Expected,
	})
	return nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, summary Summary, group timestamps.Group, err error) (Summary, error) {
	summary.Counts.Failed++
	key := group.Key
	summary.Failed = &key
	logging.ErrorWithContext(logger, "realignment stopped", "run_failed",
		logging.String(logging.FieldSplit, group.Split),
		logging.Int(logging.FieldDialogueID, group.DialogueID),
		logging.Int(logging.FieldUtteranceID, group.UtteranceID),
		logging.String("failure", services.FailureKind(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "fix the clip and rerun with --resume"),
	)
	return r.finish(ctx, logger, summary, ledger.RunFailed, err)
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, summary Summary, status ledger.RunStatus, runErr error) (Summary, error) {
	summary.Status = status
	summary.Elapsed = time.Since(summary.StartedAt)
	if r.store != nil {
		// The run context may already be cancelled; the final status must still land.
		if err := r.store.FinishRun(context.WithoutCancel(ctx), summary.RunID, status, summary.Counts, runErr); err != nil {
			logging.WarnWithContext(logger, "ledger update failed", "ledger_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "status output may be stale"),
			)
		}
	}
	if status == ledger.RunCompleted {
		logger.Info("realignment finished",
			logging.Int("groups_total", summary.Counts.Total),
			logging.Int("groups_done", summary.Counts.Done),
			logging.Int("groups_empty", summary.Counts.Empty),
			logging.Int("groups_skipped", summary.Counts.Skipped),
			logging.Duration("elapsed", summary.Elapsed),
			logging.String(logging.FieldEventType, "run_completed"),
		)
	}
	return summary, runErr
}

func (r *Runner) startLedger(ctx context.Context, logger *slog.Logger, opts Options, counts ledger.Counts) {
	if r.store == nil {
		return
	}
	runID, _ := services.RunIDFromContext(ctx)
	ctx = context.WithoutCancel(ctx)
	if n, err := r.store.MarkInterrupted(ctx); err == nil && n > 0 {
		logger.Info("marked interrupted runs as cancelled", logging.Int64("runs", n))
	}
	if err := r.store.StartRun(ctx, ledger.Run{
		ID:          runID,
		CSVPath:     r.cfg.Paths.RealignmentCSV,
		SplitFilter: opts.Split,
		DryRun:      opts.DryRun,
		Resume:      opts.Resume,
		Counts:      counts,
	}); err != nil {
		logging.WarnWithContext(logger, "ledger unavailable for this run", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "outcomes will not be recorded"),
		)
	}
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, rec ledger.GroupRecord) {
	if r.store == nil {
		return
	}
	if _, err := r.store.RecordGroup(context.WithoutCancel(ctx), rec); err != nil {
		logging.WarnWithContext(logger, "ledger update failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "resume may reprocess this clip"),
		)
	}
}
