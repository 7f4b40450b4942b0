package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/ops-board/internal/store"
	"github.com/nhle/ops-board/tests/testutil"
)

type payload struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func TestKV_SetGet(t *testing.T) {
	ctx := context.Background()
	for name, kv := range testutil.KVBackends(t) {
		t.Run(name, func(t *testing.T) {
			in := payload{Name: "board", Items: []string{"a", "b"}}
			require.NoError(t, kv.Set(ctx, "doc", in))

			var out payload
			require.NoError(t, kv.Get(ctx, "doc", &out))
			assert.Equal(t, in, out)

			require.NoError(t, kv.Set(ctx, "doc", payload{Name: "replaced"}))
			require.NoError(t, kv.Get(ctx, "doc", &out))
			assert.Equal(t, "replaced", out.Name)
		})
	}
}

func TestKV_MissingKey(t *testing.T) {
	ctx := context.Background()
	for name, kv := range testutil.KVBackends(t) {
		t.Run(name, func(t *testing.T) {
			var out payload
			err := kv.Get(ctx, "nope", &out)
			assert.ErrorIs(t, err, store.ErrNotFound)

			_, err = kv.GetRaw(ctx, "nope")
			assert.ErrorIs(t, err, store.ErrNotFound)

			has, err := kv.Has(ctx, "nope")
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestKV_DeleteAndListKeys(t *testing.T) {
	ctx := context.Background()
	for name, kv := range testutil.KVBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "b", 1))
			require.NoError(t, kv.Set(ctx, "a", 2))
			require.NoError(t, kv.Set(ctx, "c", 3))

			keys, err := kv.ListKeys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, keys)

			require.NoError(t, kv.Delete(ctx, "b"))
			require.NoError(t, kv.Delete(ctx, "never-existed"))

			has, err := kv.Has(ctx, "b")
			require.NoError(t, err)
			assert.False(t, has)

			keys, err = kv.ListKeys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c"}, keys)
		})
	}
}

func TestKV_GetRawKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	for name, kv := range testutil.KVBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(ctx, "model", "gemini-3-flash-preview"))
			first, err := kv.GetRaw(ctx, "model")
			require.NoError(t, err)

			require.NoError(t, kv.Set(ctx, "model", "gemini-2.5-pro"))
			second, err := kv.GetRaw(ctx, "model")
			require.NoError(t, err)

			assert.JSONEq(t, `"gemini-2.5-pro"`, string(second.Value))
			assert.Equal(t, first.CreatedAt, second.CreatedAt)
			assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
		})
	}
}

func TestKV_UndecodableValue(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	mem.SetRaw("doc", []byte("{not json"))

	var out payload
	err := mem.Get(ctx, "doc", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "opsboard.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "doc", payload{Name: "kept"}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	var out payload
	require.NoError(t, s.Get(ctx, "doc", &out))
	assert.Equal(t, "kept", out.Name)

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
