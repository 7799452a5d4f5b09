package testsupport

import (
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/run"
)

// MustOpenStore opens a run history store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *run.Store {
	t.Helper()

	store, err := run.OpenStore(cfg.Paths.StorageDir)
	if err != nil {
		t.Fatalf("run.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
