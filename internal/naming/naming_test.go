package naming

import (
	"testing"

	"mediaid/internal/analyzer"
)

func TestReleaseNameMovie(t *testing.T) {
	builder := NewBuilder(Options{})
	parsed := analyzer.ParsedName{
		RawTitle:     "Movie Title",
		ContentType:  analyzer.TypeMovie,
		Year:         2023,
		Resolution:   "1080p",
		Source:       "BluRay",
		VideoCodec:   "h264",
		AudioCodec:   "ac3",
		ReleaseGroup: "GROUP",
	}
	got := builder.ReleaseName(parsed, "", 0)
	want := "Movie.Title.2023.1080p.BluRay.AC3.x264-GROUP"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReleaseNameUsesResolvedIdentity(t *testing.T) {
	builder := NewBuilder(Options{})
	parsed := analyzer.ParsedName{
		RawTitle:    "Movei Titel",
		ContentType: analyzer.TypeMovie,
		Resolution:  "720p",
		VideoCodec:  "hevc",
	}
	got := builder.ReleaseName(parsed, "Movie Title", 2020)
	want := "Movie.Title.2020.720p.x265-NOGRP"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReleaseNameEpisode(t *testing.T) {
	builder := NewBuilder(Options{})
	parsed := analyzer.ParsedName{
		RawTitle:     "TV Show",
		ContentType:  analyzer.TypeSeries,
		Season:       1,
		Episode:      2,
		Resolution:   "1080p",
		Source:       "WEB-DL",
		Platform:     "Netflix",
		VideoCodec:   "h264",
		ReleaseGroup: "GRP",
	}
	got := builder.ReleaseName(parsed, "", 0)
	want := "TV.Show.S01E02.1080p.WEB-DL.NF.x264-GRP"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReleaseNameFullSeasonAndMulti(t *testing.T) {
	builder := NewBuilder(Options{MultiLabel: "MULTi"})
	parsed := analyzer.ParsedName{
		RawTitle:     "TV Show",
		ContentType:  analyzer.TypeSeries,
		Season:       3,
		FullSeason:   true,
		Multi:        true,
		Languages:    []string{"fr", "en"},
		Resolution:   "2160p",
		Source:       "WEB-DL",
		HDR:          analyzer.HDRDolbyVision,
		VideoCodec:   "hevc",
		AudioCodec:   "eac3",
		ReleaseGroup: "GRP",
	}
	got := builder.ReleaseName(parsed, "", 0)
	want := "TV.Show.S03.MULTi.2160p.WEB-DL.DV.EAC3.x265-GRP"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReleaseNameSubtitleTag(t *testing.T) {
	builder := NewBuilder(Options{})
	parsed := analyzer.ParsedName{
		RawTitle:    "Anime Movie",
		ContentType: analyzer.TypeMovie,
		Year:        2019,
		Subtitles:   []string{"fr"},
		Resolution:  "1080p",
		VideoCodec:  "h264",
	}
	got := builder.ReleaseName(parsed, "", 0)
	want := "Anime.Movie.2019.VOSTFR.1080p.x264-NOGRP"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPlatformCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Netflix", "NF"},
		{"Amazon Prime Video", "AMZ"},
		{"Disney+", "DSN"},
		{"HBO Max", "HBO"},
		{"Some Unknown Network", "SUN"},
		{"Mystery", "MYS"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := PlatformCode(tc.in); got != tc.want {
			t.Errorf("PlatformCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
