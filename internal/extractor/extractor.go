// Package extractor walks a qBittorrent instance, identifies every torrent,
// and materializes upload-ready artifacts (metadata, NFO, torrent file) on
// disk.
package extractor

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mediaid/internal/analyzer"
	"mediaid/internal/logging"
	"mediaid/internal/matcher"
	"mediaid/internal/mediainfo"
	"mediaid/internal/naming"
	"mediaid/internal/nfo"
	"mediaid/internal/qbittorrent"
	"mediaid/internal/services"
	"mediaid/internal/textutil"
)

// TorrentSource is the qBittorrent surface the extractor needs. It is
// satisfied by *qbittorrent.Client.
type TorrentSource interface {
	Login(ctx context.Context) error
	Torrents(ctx context.Context, filter qbittorrent.Filter) ([]qbittorrent.Torrent, error)
	Properties(ctx context.Context, hash string) (*qbittorrent.Properties, error)
	Files(ctx context.Context, hash string) ([]qbittorrent.File, error)
	Export(ctx context.Context, hash string) ([]byte, error)
}

// Resolver matches parsed names to identities. Satisfied by
// *matcher.Matcher.
type Resolver interface {
	Resolve(ctx context.Context, parsed analyzer.ParsedName) (*matcher.Result, error)
}

// FileProber inspects a downloaded content file. Satisfied by
// *mediainfo.Prober; nil disables file-based enrichment.
type FileProber interface {
	Probe(ctx context.Context, path string) (*mediainfo.Info, error)
}

// Options select which torrents to process and how.
type Options struct {
	Category string
	Tag      string
	DryRun   bool
}

// Summary reports one extraction run.
type Summary struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// Record is the metadata document written next to each extracted torrent.
type Record struct {
	RunID       string              `json:"run_id"`
	Hash        string              `json:"hash"`
	Name        string              `json:"name"`
	Category    string              `json:"category,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Size        int64               `json:"size"`
	Private     bool                `json:"private"`
	Comment     string              `json:"comment,omitempty"`
	Files       []qbittorrent.File  `json:"files,omitempty"`
	Parsed      analyzer.ParsedName `json:"parsed"`
	Match       *matcher.Result     `json:"match,omitempty"`
	ReleaseName string              `json:"release_name"`
	ExtractedAt time.Time           `json:"extracted_at"`
}

// Config tunes output behavior.
type Config struct {
	OutputDir     string
	CreateNFO     bool
	ExportTorrent bool
}

// Extractor drives the scan workflow.
type Extractor struct {
	source   TorrentSource
	resolver Resolver
	builder  *naming.Builder
	prober   FileProber
	cfg      Config
	logger   *slog.Logger
}

// New assembles an Extractor. A nil prober skips content-file probing.
func New(source TorrentSource, resolver Resolver, builder *naming.Builder, prober FileProber, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{
		source:   source,
		resolver: resolver,
		builder:  builder,
		prober:   prober,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "extractor"),
	}
}

// Run processes every torrent matching opts. Individual torrent failures
// are counted and logged but do not abort the run; only setup failures
// (login, listing) return an error.
func (e *Extractor) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}

	if err := e.source.Login(ctx); err != nil {
		return nil, err
	}
	torrents, err := e.source.Torrents(ctx, qbittorrent.Filter{Category: opts.Category, Tag: opts.Tag})
	if err != nil {
		return nil, err
	}
	summary.Total = len(torrents)

	e.logger.Info("extraction started",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.Int("torrents", len(torrents)),
		logging.Bool("dry_run", opts.DryRun))

	for _, torrent := range torrents {
		if err := ctx.Err(); err != nil {
			return summary, services.Wrap(services.ErrTimeout, "extractor", "run", "context canceled", err)
		}
		if err := e.processTorrent(ctx, summary.RunID, torrent, opts.DryRun); err != nil {
			summary.Failed++
			e.logger.Error("torrent failed",
				logging.String("name", torrent.Name),
				logging.Error(err))
			continue
		}
		summary.Succeeded++
	}

	e.logger.Info("extraction finished",
		logging.String(logging.FieldRunID, summary.RunID),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (e *Extractor) processTorrent(ctx context.Context, runID string, torrent qbittorrent.Torrent, dryRun bool) error {
	parsed := analyzer.Analyze(torrent.Name)

	var files []qbittorrent.File
	var probed *mediainfo.Info
	if e.prober != nil {
		var err error
		files, err = e.source.Files(ctx, torrent.Hash)
		if err != nil {
			return err
		}
		probed = e.enrichFromFile(ctx, torrent, files, &parsed)
	}

	match, err := e.resolver.Resolve(ctx, parsed)
	if err != nil {
		return err
	}

	title, year := "", 0
	if match.Matched() && match.Confidence != matcher.ConfidenceNone {
		title, year = match.Title, match.Year
	}
	releaseName := e.builder.ReleaseName(parsed, title, year)

	e.logger.Info("identified torrent",
		logging.String("name", torrent.Name),
		logging.String("release_name", releaseName),
		logging.String("confidence", string(match.Confidence)))

	if dryRun {
		return nil
	}

	props, err := e.source.Properties(ctx, torrent.Hash)
	if err != nil {
		return err
	}
	if files == nil {
		if files, err = e.source.Files(ctx, torrent.Hash); err != nil {
			return err
		}
	}

	outDir := filepath.Join(e.cfg.OutputDir, textutil.SanitizeFileName(releaseName))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "extractor", "run", "create output directory", err)
	}

	record := Record{
		RunID:       runID,
		Hash:        torrent.Hash,
		Name:        torrent.Name,
		Category:    torrent.Category,
		Tags:        torrent.TagList(),
		Size:        torrent.Size,
		Private:     torrent.Private,
		Comment:     props.Comment,
		Files:       files,
		Parsed:      parsed,
		Match:       match,
		ReleaseName: releaseName,
		ExtractedAt: time.Now().UTC(),
	}
	if err := writeJSON(filepath.Join(outDir, "metadata.json"), record); err != nil {
		return err
	}

	if e.cfg.CreateNFO {
		meta := nfo.Metadata{
			MediaType:  string(parsed.ContentType),
			Title:      parsed.RawTitle,
			Year:       parsed.Year,
			Season:     parsed.Season,
			Episode:    parsed.Episode,
			Resolution: parsed.Resolution,
			VideoCodec: parsed.VideoCodec,
			AudioCodec: parsed.AudioCodec,
			Languages:  parsed.Languages,
			Hash:       torrent.Hash,
			Category:   torrent.Category,
			Tags:       torrent.TagList(),
		}
		if probed != nil && probed.DurationSec > 0 {
			meta.Runtime = int(probed.DurationSec / 60)
		}
		if match.Matched() {
			meta.Title = match.Title
			meta.Year = match.Year
			meta.Plot = match.Overview
			meta.TMDBID = match.TMDBID
			meta.MediaType = match.MediaType
		}
		if _, err := nfo.WriteFile(outDir, releaseName, meta); err != nil {
			return err
		}
	}

	if e.cfg.ExportTorrent {
		data, err := e.source.Export(ctx, torrent.Hash)
		if err != nil {
			return err
		}
		torrentPath := filepath.Join(outDir, textutil.SanitizeFileName(releaseName)+".torrent")
		if err := os.WriteFile(torrentPath, data, 0o644); err != nil {
			return services.Wrap(services.ErrExternalTool, "extractor", "run", "write torrent file", err)
		}
	}
	return nil
}

// enrichFromFile probes the torrent's main content file and fills attribute
// gaps in the parsed name. Probe failures only cost the enrichment; the
// release keeps whatever its name provided.
func (e *Extractor) enrichFromFile(ctx context.Context, torrent qbittorrent.Torrent, files []qbittorrent.File, parsed *analyzer.ParsedName) *mediainfo.Info {
	main := qbittorrent.LargestFile(files)
	if main == nil || torrent.SavePath == "" {
		return nil
	}
	path := filepath.Join(torrent.SavePath, filepath.FromSlash(main.Name))
	info, err := e.prober.Probe(ctx, path)
	if err != nil {
		e.logger.Warn("content probe failed",
			logging.String("name", torrent.Name),
			logging.Error(err))
		return nil
	}
	if parsed.Resolution == "" {
		parsed.Resolution = info.Resolution
	}
	if parsed.VideoCodec == "" {
		parsed.VideoCodec = info.VideoCodec
	}
	if parsed.AudioCodec == "" {
		parsed.AudioCodec = info.AudioCodec
	}
	if len(parsed.Languages) == 0 {
		parsed.Languages = info.Languages
	}
	return info
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrValidation, "extractor", "run", "marshal metadata", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "extractor", "run", "write metadata", err)
	}
	return nil
}

// LoadRecord reads a metadata.json document back from disk.
func LoadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "extractor", "load", "read metadata", err)
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, services.Wrap(services.ErrValidation, "extractor", "load", "parse metadata", err)
	}
	return &record, nil
}

// FindRecords lists every extracted torrent directory under outputDir that
// carries a metadata.json.
func FindRecords(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "extractor", "load", "read output directory", err)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		metaPath := filepath.Join(outputDir, entry.Name(), "metadata.json")
		if _, err := os.Stat(metaPath); err == nil {
			paths = append(paths, metaPath)
		}
	}
	return paths, nil
}
