package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rehydrate/pkg/storage"
)

var _ storage.Backend = (*Store)(nil)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "state.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "rehydrate@counter")
	require.NoError(t, err)
	require.False(t, ok)

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Set(ctx, "rehydrate@counter", []byte(`{"counter":1}`)))
	require.NoError(t, store.Set(ctx, "rehydrate@counter", []byte(`{"counter":2}`)))

	data, ok, err := store.Get(ctx, "rehydrate@counter")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"counter":2}`, string(data))

	updatedAt, ok, err := store.UpdatedAt(ctx, "rehydrate@counter")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, updatedAt.After(before))

	require.NoError(t, store.Remove(ctx, "rehydrate@counter"))
	_, ok, err = store.Get(ctx, "rehydrate@counter")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreBehindPersistor(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "state.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	p := storage.NewPersistor(store)
	require.NoError(t, p.Set(ctx, "rehydrate@user", map[string]any{"user": map[string]any{"name": "ada"}}, 0))
	value, ok, err := p.Get(ctx, "rehydrate@user")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]any{"user": map[string]any{"name": "ada"}}, value)
}

func TestStoreKeysByPrefix(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "keys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, key := range []string{"app@b", "app@a", "other@a"} {
		require.NoError(t, store.Set(ctx, key, []byte(`{}`)))
	}

	keys, err := store.Keys(ctx, "app@")
	require.NoError(t, err)
	require.Equal(t, []string{"app@a", "app@b"}, keys)
}
