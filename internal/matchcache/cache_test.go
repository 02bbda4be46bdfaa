package matchcache

import (
	"context"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return store
}

func TestPutAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := Entry{
		Key:        "movie title|movie|2023",
		TMDBID:     42,
		MediaType:  "movie",
		Title:      "Movie Title",
		Year:       2023,
		Confidence: "high",
		Score:      0.95,
	}
	if err := store.Put(ctx, entry, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get(ctx, entry.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if got.TMDBID != 42 || got.Title != "Movie Title" || got.Confidence != "high" {
		t.Fatalf("entry = %+v", got)
	}
	if got.Negative() {
		t.Fatal("entry should not be negative")
	}
}

func TestGetMiss(t *testing.T) {
	store := openTestStore(t)
	_, ok, err := store.Get(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestExpiredEntryEvicted(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Entry{Key: "k", TMDBID: 1, MediaType: "movie", Title: "T"}, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	_, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expired entry should miss")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Entries != 0 {
		t.Fatalf("expired entry not evicted: %+v", stats)
	}
}

func TestNegativeEntry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Entry{Key: "k", Confidence: "none"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := store.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if !got.Negative() {
		t.Fatal("entry should be negative")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Negative != 1 {
		t.Fatalf("negative count = %d", stats.Negative)
	}
}

func TestStatsCounters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Entry{Key: "k", TMDBID: 1, MediaType: "movie", Title: "T"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, _, err := store.Get(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Get(ctx, "missing"); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if rate := stats.HitRate(); rate != 0.5 {
		t.Fatalf("hit rate = %v", rate)
	}
}

func TestClearResetsEverything(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b"} {
		if err := store.Put(ctx, Entry{Key: key, TMDBID: 1, MediaType: "movie", Title: "T"}, time.Hour); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if _, _, err := store.Get(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d", removed)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Entries != 0 || stats.Hits != 0 || stats.Misses != 0 {
		t.Fatalf("stats after clear = %+v", stats)
	}
}

func TestPruneDropsOnlyExpired(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Entry{Key: "short", TMDBID: 1, MediaType: "movie", Title: "T"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(ctx, Entry{Key: "long", TMDBID: 2, MediaType: "movie", Title: "T"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	store.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

	removed, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
}

func TestPutValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, Entry{}, time.Hour); err == nil {
		t.Fatal("empty key should be rejected")
	}
	if err := store.Put(ctx, Entry{Key: "k"}, 0); err == nil {
		t.Fatal("zero ttl should be rejected")
	}
}

func TestSecondOpenIsLockedOut(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer first.Close()

	if _, err := Open(dir, nil); err == nil {
		t.Fatal("second open should fail while lock is held")
	}
}
