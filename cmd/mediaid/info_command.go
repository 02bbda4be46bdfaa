package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"mediaid/internal/extractor"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show tool status and storage locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			records, err := extractor.FindRecords(cfg.Output.Dir)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"config_path": ctx.configPath,
					"cache": map[string]any{
						"path":     store.Path(),
						"entries":  stats.Entries,
						"negative": stats.Negative,
						"hit_rate": stats.HitRate(),
					},
					"output_dir": cfg.Output.Dir,
					"releases":   len(records),
					"trackers":   len(cfg.Trackers),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:    %s\n", ctx.configPath)
			fmt.Fprintf(out, "Cache:     %s (%d entries, %.1f%% hit rate)\n",
				store.Path(), stats.Entries, stats.HitRate()*100)
			fmt.Fprintf(out, "Output:    %s (%d extracted releases)\n", cfg.Output.Dir, len(records))
			fmt.Fprintf(out, "Trackers:  %d configured\n", len(cfg.Trackers))
			return nil
		},
	}
}
