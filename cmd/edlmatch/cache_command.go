package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"edlmatch/internal/probecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the probe result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show probe cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(cmd, ctx, func(store *probecache.Store, enabled bool) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				const stampLayout = "2006-01-02 15:04"
				oldest, newest := "-", "-"
				if !stats.Oldest.IsZero() {
					oldest = stats.Oldest.Local().Format(stampLayout)
					newest = stats.Newest.Local().Format(stampLayout)
				}
				size := "-"
				if info, err := os.Stat(stats.Path); err == nil {
					size = humanBytes(info.Size())
				}
				rows := [][]string{
					{"Path", stats.Path},
					{"Enabled", yesNo(enabled)},
					{"Entries", fmt.Sprint(stats.Entries)},
					{"Size", size},
					{"Oldest", oldest},
					{"Newest", newest},
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"Probe cache", ""}, rows, nil))
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached probe result",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCacheStore(cmd, ctx, func(store *probecache.Store, _ bool) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached probe result(s)\n", removed)
				return nil
			})
		},
	}
}

func withCacheStore(cmd *cobra.Command, ctx *commandContext, fn func(*probecache.Store, bool) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := probecache.Open(cmd.Context(), cfg.Probe.CachePath)
	if err != nil {
		return fmt.Errorf("open probe cache: %w", err)
	}
	defer store.Close()
	return fn(store, cfg.Probe.CacheEnabled)
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
