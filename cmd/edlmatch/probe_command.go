package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"edlmatch/internal/config"
	"edlmatch/internal/media"
	"edlmatch/internal/media/ffprobe"
	"edlmatch/internal/pipeline"
	"edlmatch/internal/tokens"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Show the tokens a media file exposes to templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			item := media.NewItem(path)
			result, err := pipeline.Inspector(cfg).Probe(cmd.Context(), path)
			if err != nil {
				return err
			}
			item.Meta, err = media.FromProbe(path, result)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]tokens.Map{
					"name":      item.Name,
					"metadata":  item.Meta.Tokens(),
					"container": containerTokens(result),
				})
			}
			out := cmd.OutOrStdout()
			printTokenSection(out, "container", containerTokens(result))
			printTokenSection(out, "name tokens", item.Name)
			printTokenSection(out, "metadata tokens", item.Meta.Tokens())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print tokens as JSON")
	return cmd
}

func printTokenSection(out io.Writer, title string, values tokens.Map) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{"{" + k + "}", values[k]})
	}
	fmt.Fprintln(out, cases.Title(language.English).String(title))
	fmt.Fprintln(out, renderTable(out, []string{"Token", "Value"}, rows, nil))
}

// containerTokens summarises the container level fields ffprobe reports.
// They are informational and not available to templates.
func containerTokens(result ffprobe.Result) tokens.Map {
	summary := tokens.Map{"video_streams": strconv.Itoa(result.VideoStreamCount())}
	if seconds := result.DurationSeconds(); seconds > 0 && !math.IsNaN(seconds) {
		summary["duration"] = (time.Duration(seconds * float64(time.Second))).Round(time.Millisecond).String()
	}
	if size := result.SizeBytes(); size > 0 {
		summary["size"] = humanBytes(size)
	}
	return summary
}
