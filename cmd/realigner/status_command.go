package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"realigner/internal/config"
	"realigner/internal/ledger"
	"realigner/internal/timestamps"
)

const maxErrorWidth = 80

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var runs int
	var runID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize recent runs and per-split progress from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(_ *config.Config, store *ledger.Store) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				var run *ledger.Run
				var err error
				if id := strings.TrimSpace(runID); id != "" {
					run, err = store.GetRun(cmd.Context(), id)
				} else {
					run, err = store.LatestRun(cmd.Context())
				}
				if err != nil {
					return err
				}
				if run == nil {
					fmt.Fprintln(out, "No runs recorded yet")
					return nil
				}
				writeLines(out, runLines(*run, colorize)...)

				failures, err := store.Failures(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if len(failures) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, failuresTable(failures))
				}

				recent, err := store.RecentRuns(cmd.Context(), runs)
				if err != nil {
					return err
				}
				if len(recent) > 1 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, recentRunsTable(recent))
				}

				splits, err := store.SplitSummaries(cmd.Context())
				if err != nil {
					return err
				}
				if len(splits) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintln(out, splitsTable(splits))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&runs, "runs", "n", 5, "Number of recent runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "Show a specific run instead of the latest")
	return cmd
}

func runLines(run ledger.Run, colorize bool) []string {
	lines := renderSectionHeader("Run "+shortID(run.ID), colorize)

	kind := statusOK
	switch run.Status {
	case ledger.RunFailed:
		kind = statusError
	case ledger.RunCancelled:
		kind = statusWarn
	case ledger.RunRunning:
		kind = statusInfo
	}
	lines = append(lines,
		renderStatusLine("Status", kind, titleLabel(string(run.Status)), colorize),
		renderField("Started", fmt.Sprintf("%s (%s)", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))),
		renderField("Elapsed", formatElapsed(run.Elapsed())),
		renderField("Table", run.CSVPath),
		renderField("Clips", clipCountsLine(run.Counts)),
	)
	if run.SplitFilter != "" {
		lines = append(lines, renderField("Split", titleLabel(run.SplitFilter)))
	}
	lines = append(lines,
		renderField("Resume", yesNo(run.Resume)),
		renderField("Dry run", yesNo(run.DryRun)),
	)
	if run.ErrorMessage != "" {
		lines = append(lines, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
	}
	return lines
}

func recentRunsTable(runs []ledger.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			humanize.Time(run.StartedAt),
			titleLabel(string(run.Status)),
			strconv.Itoa(run.Counts.Total),
			strconv.Itoa(run.Counts.Done),
			strconv.Itoa(run.Counts.Empty),
			strconv.Itoa(run.Counts.Skipped),
			strconv.Itoa(run.Counts.Failed),
			formatElapsed(run.Elapsed()),
		})
	}
	return renderTable(tableSpec{
		Title:   "Recent runs",
		Headers: []string{"Run", "Started", "Status", "Total", "Done", "Empty", "Skipped", "Failed", "Elapsed"},
		Aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		Rows:    rows,
	})
}

func splitsTable(splits []ledger.SplitSummary) string {
	rows := make([][]string, 0, len(splits))
	var total ledger.SplitSummary
	for _, s := range splits {
		rows = append(rows, []string{
			titleLabel(s.Split),
			humanize.Comma(int64(s.Done)),
			humanize.Comma(int64(s.Empty)),
			humanize.Comma(int64(s.Failed)),
			humanize.Comma(int64(s.Mismatched)),
		})
		total.Done += s.Done
		total.Empty += s.Empty
		total.Failed += s.Failed
		total.Mismatched += s.Mismatched
	}
	return renderTable(tableSpec{
		Title:   "Clips by split",
		Headers: []string{"Split", "Done", "Empty", "Failed", "Duration drift"},
		Aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
		Rows:    rows,
		Footer: []string{
			"Total",
			humanize.Comma(int64(total.Done)),
			humanize.Comma(int64(total.Empty)),
			humanize.Comma(int64(total.Failed)),
			humanize.Comma(int64(total.Mismatched)),
		},
	})
}

func failuresTable(records []ledger.GroupRecord) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		key := timestamps.Key{Split: rec.Split, DialogueID: rec.DialogueID, UtteranceID: rec.UtteranceID}
		rows = append(rows, []string{
			key.String(),
			titleLabel(rec.ErrorKind),
			truncate(rec.ErrorMessage, maxErrorWidth),
		})
	}
	return renderTable(tableSpec{
		Title:   "Failed clips",
		Headers: []string{"Clip", "Kind", "Error"},
		Rows:    rows,
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if len(value) <= width {
		return value
	}
	return value[:width-3] + "..."
}

