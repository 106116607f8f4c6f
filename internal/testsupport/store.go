package testsupport

import (
	"testing"

	"cocreator/internal/config"
	"cocreator/internal/docstore"
)

// MustOpenDocStore opens a docstore.Store for tests and registers cleanup.
func MustOpenDocStore(t testing.TB, cfg *config.Config) *docstore.Store {
	t.Helper()

	store, err := docstore.Open(cfg)
	if err != nil {
		t.Fatalf("docstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
