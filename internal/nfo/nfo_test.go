package nfo

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestRenderMovie(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Metadata{
		MediaType:  "movie",
		Title:      "Movie & Title",
		Year:       2023,
		Plot:       "A plot with <tags>.",
		TMDBID:     42,
		IMDBID:     "tt0000042",
		Genres:     []string{"Drama", "Comedy"},
		Runtime:    117,
		Rating:     7.85,
		Resolution: "1080p",
		VideoCodec: "h264",
		Hash:       "abc123",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`,
		"<movie>",
		"<title>Movie &amp; Title</title>",
		"<year>2023</year>",
		"<plot>A plot with &lt;tags&gt;.</plot>",
		"<tmdbid>42</tmdbid>",
		"<imdbid>tt0000042</imdbid>",
		"<genre>Drama</genre>",
		"<genre>Comedy</genre>",
		"<runtime>117</runtime>",
		"<rating>7.9</rating>",
		"</movie>",
		"<!-- Resolution: 1080p -->",
		"<!-- Audio Codec: Unknown -->",
		"<!-- Original Hash: abc123 -->",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestRenderEpisode(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Metadata{
		MediaType:   "tv",
		Title:       "TV Show",
		Season:      1,
		Episode:     2,
		EpisodeName: "Pilot, Part 2",
		TMDBID:      7,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<episodedetails>",
		"<season>1</season>",
		"<episode>2</episode>",
		"<episodetitle>Pilot, Part 2</episodetitle>",
		"</episodedetails>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<movie>") {
		t.Error("episode output contains movie element")
	}
}

func TestRenderOmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, Metadata{MediaType: "movie", Title: "Bare"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, banned := range []string{"<year>", "<plot>", "<tmdbid>", "<genre>", "<rating>"} {
		if strings.Contains(out, banned) {
			t.Errorf("output should omit %q\n%s", banned, out)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFile(dir, "Movie.Title.2023.1080p.BluRay.x264-GRP", Metadata{
		MediaType: "movie",
		Title:     "Movie Title",
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasSuffix(path, ".nfo") {
		t.Fatalf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "<title>Movie Title</title>") {
		t.Fatalf("content = %s", data)
	}
}
