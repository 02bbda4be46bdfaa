package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mediaid/internal/analyzer"
	"mediaid/internal/matcher"
	"mediaid/internal/mediainfo"
	"mediaid/internal/naming"
	"mediaid/internal/qbittorrent"
	"mediaid/internal/services"
)

type fakeSource struct {
	torrents []qbittorrent.Torrent
	loginErr error
	exports  map[string][]byte
}

func (f *fakeSource) Login(ctx context.Context) error { return f.loginErr }

func (f *fakeSource) Torrents(ctx context.Context, filter qbittorrent.Filter) ([]qbittorrent.Torrent, error) {
	return f.torrents, nil
}

func (f *fakeSource) Properties(ctx context.Context, hash string) (*qbittorrent.Properties, error) {
	return &qbittorrent.Properties{Comment: "seeded since 2023"}, nil
}

func (f *fakeSource) Files(ctx context.Context, hash string) ([]qbittorrent.File, error) {
	return []qbittorrent.File{{Name: "movie.mkv", Size: 4096}}, nil
}

func (f *fakeSource) Export(ctx context.Context, hash string) ([]byte, error) {
	if data, ok := f.exports[hash]; ok {
		return data, nil
	}
	return []byte("d4:infoe"), nil
}

type fakeResolver struct {
	results map[string]*matcher.Result
	err     error
	calls   int
}

func (f *fakeResolver) Resolve(ctx context.Context, parsed analyzer.ParsedName) (*matcher.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.results[parsed.RawTitle]; ok {
		return result, nil
	}
	return &matcher.Result{Confidence: matcher.ConfidenceNone}, nil
}

type fakeProber struct {
	info  *mediainfo.Info
	err   error
	paths []string
}

func (f *fakeProber) Probe(ctx context.Context, path string) (*mediainfo.Info, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

func newExtractor(t *testing.T, source *fakeSource, resolver *fakeResolver) (*Extractor, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{OutputDir: dir, CreateNFO: true, ExportTorrent: true}
	return New(source, resolver, naming.NewBuilder(naming.Options{}), nil, cfg, nil), dir
}

func newProbingExtractor(t *testing.T, source *fakeSource, resolver *fakeResolver, prober FileProber) (*Extractor, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{OutputDir: dir, CreateNFO: true, ExportTorrent: true}
	return New(source, resolver, naming.NewBuilder(naming.Options{}), prober, cfg, nil), dir
}

func TestRunExtractsTorrent(t *testing.T) {
	source := &fakeSource{torrents: []qbittorrent.Torrent{{
		Hash: "abc", Name: "Movie.Title.2023.1080p.BluRay.x264-GRP",
		Category: "movies", Tags: "keep", Size: 4096,
	}}}
	resolver := &fakeResolver{results: map[string]*matcher.Result{
		"Movie Title": {TMDBID: 42, MediaType: "movie", Title: "Movie Title", Year: 2023, Score: 1, Confidence: matcher.ConfidenceHigh},
	}}
	extractor, dir := newExtractor(t, source, resolver)

	summary, err := extractor.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.RunID == "" {
		t.Fatal("run id missing")
	}

	records, err := FindRecords(dir)
	if err != nil {
		t.Fatalf("find records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v", records)
	}

	record, err := LoadRecord(records[0])
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Hash != "abc" || record.Match.TMDBID != 42 {
		t.Fatalf("record = %+v", record)
	}
	if record.ReleaseName != "Movie.Title.2023.1080p.BluRay.x264-GRP" {
		t.Fatalf("release name = %q", record.ReleaseName)
	}

	outDir := filepath.Dir(records[0])
	for _, name := range []string{
		record.ReleaseName + ".nfo",
		record.ReleaseName + ".torrent",
	} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	source := &fakeSource{torrents: []qbittorrent.Torrent{{
		Hash: "abc", Name: "Movie.Title.2023.1080p.BluRay.x264-GRP",
	}}}
	resolver := &fakeResolver{}
	extractor, dir := newExtractor(t, source, resolver)

	summary, err := extractor.Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("dry run created %d entries", len(entries))
	}
}

func TestRunCountsFailures(t *testing.T) {
	source := &fakeSource{torrents: []qbittorrent.Torrent{
		{Hash: "a", Name: "Movie.One.2020.1080p.x264-GRP"},
		{Hash: "b", Name: "Movie.Two.2021.1080p.x264-GRP"},
	}}
	resolver := &fakeResolver{err: services.Wrap(services.ErrTransient, "tmdb", "request", "down", nil)}
	extractor, _ := newExtractor(t, source, resolver)

	summary, err := extractor.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Failed != 2 || summary.Succeeded != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunEnrichesFromContentFile(t *testing.T) {
	source := &fakeSource{torrents: []qbittorrent.Torrent{{
		Hash: "abc", Name: "Movie.Title.2023.BluRay-GRP",
		SavePath: filepath.Join("/", "downloads"), Size: 4096,
	}}}
	prober := &fakeProber{info: &mediainfo.Info{
		VideoCodec:  "h264",
		AudioCodec:  "eac3",
		Resolution:  "1080p",
		Languages:   []string{"en"},
		DurationSec: 7020,
	}}
	extractor, dir := newProbingExtractor(t, source, &fakeResolver{}, prober)

	summary, err := extractor.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	if len(prober.paths) != 1 {
		t.Fatalf("probe calls = %v", prober.paths)
	}
	if want := filepath.Join("/", "downloads", "movie.mkv"); prober.paths[0] != want {
		t.Fatalf("probed %q, want %q", prober.paths[0], want)
	}

	records, err := FindRecords(dir)
	if err != nil || len(records) != 1 {
		t.Fatalf("records = %v, err = %v", records, err)
	}
	record, err := LoadRecord(records[0])
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Parsed.VideoCodec != "h264" || record.Parsed.Resolution != "1080p" {
		t.Fatalf("parsed not enriched: %+v", record.Parsed)
	}
	if record.ReleaseName != "Movie.Title.2023.1080p.BluRay.EAC3.x264-GRP" {
		t.Fatalf("release name = %q", record.ReleaseName)
	}
}

func TestRunProbeFailureIsNotFatal(t *testing.T) {
	source := &fakeSource{torrents: []qbittorrent.Torrent{{
		Hash: "abc", Name: "Movie.Title.2023.1080p.BluRay.x264-GRP",
		SavePath: filepath.Join("/", "downloads"),
	}}}
	prober := &fakeProber{err: services.Wrap(services.ErrExternalTool, "mediainfo", "probe", "ffprobe missing", nil)}
	extractor, dir := newProbingExtractor(t, source, &fakeResolver{}, prober)

	summary, err := extractor.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	records, err := FindRecords(dir)
	if err != nil || len(records) != 1 {
		t.Fatalf("records = %v, err = %v", records, err)
	}
	record, err := LoadRecord(records[0])
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.ReleaseName != "Movie.Title.2023.1080p.BluRay.x264-GRP" {
		t.Fatalf("release name = %q", record.ReleaseName)
	}
}

func TestRunProberSkippedWithoutSavePath(t *testing.T) {
	source := &fakeSource{torrents: []qbittorrent.Torrent{{
		Hash: "abc", Name: "Movie.Title.2023.1080p.BluRay.x264-GRP",
	}}}
	prober := &fakeProber{info: &mediainfo.Info{VideoCodec: "hevc"}}
	extractor, _ := newProbingExtractor(t, source, &fakeResolver{}, prober)

	if _, err := extractor.Run(context.Background(), Options{DryRun: true}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(prober.paths) != 0 {
		t.Fatalf("prober called without a save path: %v", prober.paths)
	}
}

func TestRunLoginFailureAborts(t *testing.T) {
	source := &fakeSource{loginErr: services.Wrap(services.ErrConfiguration, "qbittorrent", "login", "bad credentials", nil)}
	extractor, _ := newExtractor(t, source, &fakeResolver{})

	if _, err := extractor.Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected login error")
	}
}
