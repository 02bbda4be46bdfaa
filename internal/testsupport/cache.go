package testsupport

import (
	"testing"

	"mediaid/internal/config"
	"mediaid/internal/matchcache"
)

// MustOpenCache opens a lookup cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *matchcache.Store {
	t.Helper()

	store, err := matchcache.Open(cfg.Cache.Dir, nil)
	if err != nil {
		t.Fatalf("matchcache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
