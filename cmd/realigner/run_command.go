package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"realigner/internal/ledger"
	"realigner/internal/realign"
	"realigner/internal/realignrun"
	"realigner/internal/services"
)

// configureRunner lets tests substitute the ffmpeg command runner.
var configureRunner func(*realign.Runner)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts realignrun.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cut and assemble every clip of the realignment table",
		Long: `Process the realignment table one clip at a time in (split, dialogue,
utterance) order. The run stops at the first clip that fails; rerun with
--resume to skip clips already completed by earlier runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts.Configure = configureRunner

			session, err := realignrun.Run(cmd.Context(), cfg, opts)
			if session.Summary.RunID != "" {
				out := cmd.OutOrStdout()
				writeLines(out, summaryLines(session, opts.DryRun, shouldColorize(out))...)
			}
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				fmt.Fprintln(cmd.ErrOrStderr(), "Run cancelled; rerun with --resume to continue")
			default:
				failureHint(cmd.ErrOrStderr(), err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.Split, "split", "", "Only process clips of this split")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Skip clips completed by earlier runs")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log the plan for each clip without invoking ffmpeg")
	cmd.Flags().BoolVar(&opts.SkipPreflight, "skip-checks", false, "Skip readiness checks before the run")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level for this run")
	return cmd
}

func summaryLines(session realignrun.Session, dryRun bool, colorize bool) []string {
	summary := session.Summary
	lines := renderSectionHeader("Run summary", colorize)

	kind := statusOK
	switch summary.Status {
	case ledger.RunFailed:
		kind = statusError
	case ledger.RunCancelled, ledger.RunRunning:
		kind = statusWarn
	}
	status := titleLabel(string(summary.Status))
	if dryRun {
		status += " (dry run)"
	}
	lines = append(lines,
		renderStatusLine("Status", kind, status, colorize),
		renderField("Run ID", summary.RunID),
		renderField("Clips", clipCountsLine(summary.Counts)),
		renderField("Elapsed", formatElapsed(summary.Elapsed)),
	)
	if summary.Failed != nil {
		lines = append(lines, renderStatusLine("Stopped at", statusError, summary.Failed.String(), colorize))
	}
	if session.LogPath != "" {
		lines = append(lines, renderField("Log", session.LogPath))
	}
	return lines
}

func clipCountsLine(c ledger.Counts) string {
	return fmt.Sprintf("%s total, %s done, %s empty, %s skipped, %s failed",
		humanize.Comma(int64(c.Total)),
		humanize.Comma(int64(c.Done)),
		humanize.Comma(int64(c.Empty)),
		humanize.Comma(int64(c.Skipped)),
		humanize.Comma(int64(c.Failed)),
	)
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}

// failureHint renders the user-facing remedy for a failed run error.
func failureHint(w io.Writer, err error) {
	switch services.FailureKind(err) {
	case "extraction":
		fmt.Fprintln(w, "Hint: check the original clip exists and the timestamps fall within it")
	case "assembly":
		fmt.Fprintln(w, "Hint: check ffmpeg can decode every segment of the clip, then rerun with --resume")
	case "configuration":
		fmt.Fprintln(w, "Hint: run 'realigner check' to review the configuration")
	}
}
