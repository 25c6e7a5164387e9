package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"edlmatch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var batchRoot string
	var mediaRoot string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify roots, state directory, ffprobe and configured rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.SetRoots(batchRoot, mediaRoot); err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Check", "OK", "Detail"}, rows, nil))

			problems := cfg.RuleProblems()
			if len(problems) == 0 {
				fmt.Fprintln(out, "Rules: all patterns compile")
			} else {
				fmt.Fprintln(out, "Rules with problems (they produce empty values):")
				for _, p := range problems {
					fmt.Fprintf(out, "  - %s\n", p)
				}
			}

			failed := preflight.Failed(results)
			if len(failed) > 0 || len(problems) > 0 {
				return fmt.Errorf("%d check(s) failed, %d rule problem(s)", len(failed), len(problems))
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
	cmd.Flags().StringVarP(&batchRoot, "batches", "i", "", "Folder holding edit index CSV files (overrides batches.root)")
	cmd.Flags().StringVarP(&mediaRoot, "media", "m", "", "Folder holding media files (overrides media.root)")
	return cmd
}
