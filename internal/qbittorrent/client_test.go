package qbittorrent

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mediaid/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(server.URL, "admin", "secret")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestLoginSetsSessionCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "secret" {
			t.Errorf("credentials not forwarded: %v", r.PostForm)
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "session123"})
		w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("SID"); err != nil || cookie.Value != "session123" {
			t.Error("session cookie not sent")
		}
		w.Write([]byte(`[{"hash":"abc","name":"Movie.2023.1080p.x264-GRP","category":"movies","tags":"keep, upload","size":1024}]`))
	})

	client := newTestClient(t, mux)
	ctx := context.Background()
	if err := client.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}

	torrents, err := client.Torrents(ctx, Filter{})
	if err != nil {
		t.Fatalf("torrents: %v", err)
	}
	if len(torrents) != 1 || torrents[0].Hash != "abc" {
		t.Fatalf("torrents = %+v", torrents)
	}
	if tags := torrents[0].TagList(); len(tags) != 2 || tags[0] != "keep" || tags[1] != "upload" {
		t.Fatalf("tags = %v", tags)
	}
}

func TestLoginRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Fails."))
	}))
	err := client.Login(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestTorrentsFilterForwarded(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("category") != "movies" || query.Get("tag") != "upload" {
			t.Errorf("filter not forwarded: %v", query)
		}
		w.Write([]byte(`[]`))
	}))
	if _, err := client.Torrents(context.Background(), Filter{Category: "movies", Tag: "upload"}); err != nil {
		t.Fatalf("torrents: %v", err)
	}
}

func TestForbiddenIsConfiguration(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	_, err := client.Torrents(context.Background(), Filter{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	_, err := client.Files(context.Background(), "abc")
	if !services.IsTransient(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestExportReturnsTorrentBytes(t *testing.T) {
	payload := []byte("d8:announce3:urle")
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("hash") != "abc" {
			t.Errorf("hash = %q", r.URL.Query().Get("hash"))
		}
		w.Write(payload)
	}))
	data, err := client.Export(context.Background(), "abc")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("data = %q", data)
	}
}

func TestLargestFile(t *testing.T) {
	files := []File{
		{Name: "sample.mkv", Size: 10},
		{Name: "movie.mkv", Size: 9000},
		{Name: "movie.nfo", Size: 2},
	}
	if got := LargestFile(files); got == nil || got.Name != "movie.mkv" {
		t.Fatalf("largest = %+v", got)
	}
	if LargestFile(nil) != nil {
		t.Fatal("empty input should yield nil")
	}
}
