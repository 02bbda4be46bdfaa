package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mediaid/internal/extractor"
	"mediaid/internal/mediainfo"
	"mediaid/internal/naming"
	"mediaid/internal/qbittorrent"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var category string
	var tag string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Extract and identify torrents from qBittorrent",
		Long: `Connect to the configured qBittorrent WebUI, identify every torrent,
and write upload-ready artifacts (metadata, NFO, torrent file) to the
output directory.

Examples:
  mediaid scan
  mediaid scan --category movies --dry-run
  mediaid scan --tag upload`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			resolver, err := ctx.newMatcher(store)
			if err != nil {
				return err
			}

			client, err := qbittorrent.New(cfg.QBittorrent.URL, cfg.QBittorrent.Username, cfg.QBittorrent.Password)
			if err != nil {
				return err
			}

			builder := naming.NewBuilder(naming.Options{
				DefaultGroup: cfg.Naming.DefaultGroup,
				MultiLabel:   cfg.Naming.MultiLabel,
			})
			var prober extractor.FileProber
			if cfg.Probe.Enabled {
				prober = mediainfo.NewProber(cfg.Probe.Binary, time.Duration(cfg.Probe.Timeout)*time.Second, logger)
			}
			runner := extractor.New(client, resolver, builder, prober, extractor.Config{
				OutputDir:     cfg.Output.Dir,
				CreateNFO:     cfg.Output.CreateNFO,
				ExportTorrent: cfg.Output.ExportTorrent,
			}, logger)

			summary, err := runner.Run(cmd.Context(), extractor.Options{
				Category: category,
				Tag:      tag,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:       %s\n", summary.RunID)
			fmt.Fprintf(out, "Torrents:  %d\n", summary.Total)
			fmt.Fprintf(out, "Succeeded: %d\n", summary.Succeeded)
			fmt.Fprintf(out, "Failed:    %d\n", summary.Failed)
			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing was written")
			} else if summary.Succeeded > 0 {
				fmt.Fprintf(out, "Artifacts written under %s\n", cfg.Output.Dir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Identify torrents without writing artifacts")
	cmd.Flags().StringVar(&category, "category", "", "Only process torrents in this category")
	cmd.Flags().StringVar(&tag, "tag", "", "Only process torrents carrying this tag")
	return cmd
}
