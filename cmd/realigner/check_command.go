package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"realigner/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var split string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify tools, the realignment table, and clip directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, split)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			writeLines(out, renderSectionHeader("Readiness", colorize)...)
			writeLines(out, checkLines(results, colorize)...)

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&split, "split", "", "Only check directories of this split")
	return cmd
}

func checkLines(results []preflight.Result, colorize bool) []string {
	failed := preflight.Failed(results)
	lines := make([]string, 0, len(results)+1)
	if len(failed) == 0 {
		lines = append(lines, renderStatusLine("Summary", statusOK, fmt.Sprintf("%d checks passed", len(results)), colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusError, fmt.Sprintf("%d of %d checks failed", len(failed), len(results)), colorize))
	}
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	return lines
}
