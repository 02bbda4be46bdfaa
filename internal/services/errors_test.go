package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(ErrTransient, "tmdb", "search", "query failed", base)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if !strings.Contains(err.Error(), "tmdb: search: query failed") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "tracker", "upload", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(Wrap(ErrTimeout, "tmdb", "search", "", nil)) {
		t.Fatal("timeout should be transient")
	}
	if IsTransient(Wrap(ErrConfiguration, "config", "load", "", nil)) {
		t.Fatal("configuration errors are not transient")
	}
}

func TestIsFatalSetup(t *testing.T) {
	if !IsFatalSetup(Wrap(ErrConfiguration, "tmdb", "new", "api key missing", nil)) {
		t.Fatal("configuration errors are fatal setup errors")
	}
	if IsFatalSetup(Wrap(ErrNotFound, "cache", "get", "", nil)) {
		t.Fatal("not-found is not fatal")
	}
}
