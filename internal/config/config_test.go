package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if resolved != path {
		t.Fatalf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Matcher.AcceptThreshold != 0.6 {
		t.Fatalf("expected default threshold, got %v", cfg.Matcher.AcceptThreshold)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[tmdb]
api_key = "abc123"

[matcher]
accept_threshold = 0.75
max_attempts = 2

[trackers.example]
url = "https://tracker.example.org/api/"
api_key = "k"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected file to be found")
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("api key = %q", cfg.TMDB.APIKey)
	}
	if cfg.Matcher.AcceptThreshold != 0.75 || cfg.Matcher.MaxAttempts != 2 {
		t.Fatalf("matcher overrides not applied: %+v", cfg.Matcher)
	}
	tracker, ok := cfg.Trackers["example"]
	if !ok {
		t.Fatal("tracker missing")
	}
	if strings.HasSuffix(tracker.URL, "/") {
		t.Fatalf("tracker url not normalized: %q", tracker.URL)
	}
	if tracker.RequestsPerMn != 30 {
		t.Fatalf("expected default pacing, got %d", tracker.RequestsPerMn)
	}
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Matcher.AcceptThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestProbeNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Probe.Binary = "  "
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Probe.Binary != "ffprobe" {
		t.Fatalf("binary = %q", cfg.Probe.Binary)
	}

	cfg.Probe.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled probe with zero timeout should not validate")
	}
	cfg.Probe.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled probe must skip the timeout check: %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	got, err := ExpandPath("~/x")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "x") {
		t.Fatalf("got %q", got)
	}
}
