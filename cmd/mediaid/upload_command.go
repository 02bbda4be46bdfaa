package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mediaid/internal/config"
	"mediaid/internal/extractor"
	"mediaid/internal/logging"
	"mediaid/internal/tracker"
)

type uploadOutcome struct {
	Release  string `json:"release"`
	Tracker  string `json:"tracker"`
	Success  bool   `json:"success"`
	UploadID string `json:"upload_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var trackerName string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload extracted releases to configured trackers",
		Long: `Walk the output directory produced by "mediaid scan" and upload every
release (torrent plus NFO) to the configured trackers.

Examples:
  mediaid upload
  mediaid upload --tracker example --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			logger = logging.NewComponentLogger(logger, "upload")

			uploaders, err := buildUploaders(cfg, trackerName)
			if err != nil {
				return err
			}
			if len(uploaders) == 0 {
				return fmt.Errorf("no trackers configured; add a [trackers.<name>] section to the config")
			}

			recordPaths, err := extractor.FindRecords(cfg.Output.Dir)
			if err != nil {
				return err
			}
			if len(recordPaths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No extracted releases found; run \"mediaid scan\" first")
				return nil
			}

			var outcomes []uploadOutcome
			for _, recordPath := range recordPaths {
				record, err := extractor.LoadRecord(recordPath)
				if err != nil {
					logger.Warn("skipping unreadable record",
						logging.String("path", recordPath), logging.Error(err))
					continue
				}
				dir := filepath.Dir(recordPath)
				torrentPath, nfoPath := findArtifacts(dir)
				if torrentPath == "" {
					logger.Warn("skipping release without torrent file",
						logging.String("release", record.ReleaseName))
					continue
				}

				req := uploadRequest(record, torrentPath, nfoPath)
				for name, up := range uploaders {
					if dryRun {
						fmt.Fprintf(cmd.OutOrStdout(), "DRY RUN: would upload %s to %s\n", record.ReleaseName, name)
						continue
					}
					outcome := uploadOutcome{Release: record.ReleaseName, Tracker: name}
					result, err := up.Upload(cmd.Context(), req)
					if err != nil {
						outcome.Error = err.Error()
						logger.Error("upload failed",
							logging.String("release", record.ReleaseName),
							logging.String("tracker", name),
							logging.Error(err))
					} else {
						outcome.Success = true
						outcome.UploadID = result.UploadID
					}
					outcomes = append(outcomes, outcome)
				}
			}

			if dryRun {
				return nil
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, outcomes)
			}
			printUploadOutcomes(cmd, outcomes)
			return nil
		},
	}

	cmd.Flags().StringVar(&trackerName, "tracker", "", "Upload to this tracker only (default: all configured)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List planned uploads without sending anything")
	return cmd
}

func buildUploaders(cfg *config.Config, only string) (map[string]*tracker.Uploader, error) {
	uploaders := make(map[string]*tracker.Uploader)
	for name, tc := range cfg.Trackers {
		if only != "" && name != only {
			continue
		}
		up, err := tracker.New(tracker.Config{
			Name:          name,
			URL:           tc.URL,
			APIKey:        tc.APIKey,
			Announce:      tc.Announce,
			RequestsPerMn: tc.RequestsPerMn,
		})
		if err != nil {
			return nil, fmt.Errorf("tracker %q: %w", name, err)
		}
		uploaders[name] = up
	}
	if only != "" && len(uploaders) == 0 {
		return nil, fmt.Errorf("tracker %q is not configured", only)
	}
	return uploaders, nil
}

func findArtifacts(dir string) (torrentPath, nfoPath string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}
	for _, entry := range entries {
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".torrent":
			torrentPath = filepath.Join(dir, entry.Name())
		case ".nfo":
			nfoPath = filepath.Join(dir, entry.Name())
		}
	}
	return torrentPath, nfoPath
}

func uploadRequest(record *extractor.Record, torrentPath, nfoPath string) tracker.Request {
	req := tracker.Request{
		Name:        record.ReleaseName,
		MediaType:   string(record.Parsed.ContentType),
		Category:    record.Category,
		Tags:        record.Tags,
		Size:        record.Size,
		Year:        record.Parsed.Year,
		Season:      record.Parsed.Season,
		Episode:     record.Parsed.Episode,
		Resolution:  record.Parsed.Resolution,
		VideoCodec:  record.Parsed.VideoCodec,
		AudioCodec:  record.Parsed.AudioCodec,
		Languages:   record.Parsed.Languages,
		TorrentPath: torrentPath,
		NFOPath:     nfoPath,
	}
	overview := ""
	if match := record.Match; match != nil && match.Matched() {
		req.MediaType = match.MediaType
		req.TMDBID = match.TMDBID
		overview = match.Overview
		if match.Year > 0 {
			req.Year = match.Year
		}
	}
	req.Description = tracker.Description(req, overview, nil)
	return req
}

func printUploadOutcomes(cmd *cobra.Command, outcomes []uploadOutcome) {
	if len(outcomes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing uploaded")
		return
	}
	sort.Slice(outcomes, func(i, j int) bool {
		if outcomes[i].Release != outcomes[j].Release {
			return outcomes[i].Release < outcomes[j].Release
		}
		return outcomes[i].Tracker < outcomes[j].Tracker
	})

	rows := make([][]string, 0, len(outcomes))
	succeeded := 0
	for _, outcome := range outcomes {
		status := "failed: " + outcome.Error
		if outcome.Success {
			succeeded++
			status = "ok"
			if outcome.UploadID != "" {
				status = "ok (id " + outcome.UploadID + ")"
			}
		}
		rows = append(rows, []string{outcome.Release, outcome.Tracker, status})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"Release", "Tracker", "Status"}, rows, nil))
	fmt.Fprintf(out, "%d/%d uploads succeeded\n", succeeded, len(outcomes))
}
