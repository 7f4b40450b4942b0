// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/nhle/ops-board/internal/store"
)

// NewTestStore returns a SQLite store on an in-memory database with the
// schema migrated. The store is closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close test store: %v", err)
		}
	})
	return s
}

// KVBackends returns one fresh instance of every KV implementation, keyed by
// name, for table-driven tests.
func KVBackends(t *testing.T) map[string]store.KV {
	t.Helper()
	return map[string]store.KV{
		"sqlite": NewTestStore(t),
		"memory": store.NewMemoryStore(),
	}
}

// Seed writes value under key and fails the test on error.
func Seed(t *testing.T, kv store.KV, key string, value any) {
	t.Helper()
	if err := kv.Set(context.Background(), key, value); err != nil {
		t.Fatalf("seed %q: %v", key, err)
	}
}
