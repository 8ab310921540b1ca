package leveldbstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-rehydrate/pkg/storage"
)

var _ storage.Backend = (*Store)(nil)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := Open(filepath.Join(t.TempDir(), "ldb"))
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "rehydrate@todos")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "rehydrate@todos", []byte("[]")))
	require.NoError(t, store.Set(ctx, "rehydrate@user", []byte("{}")))
	require.NoError(t, store.Set(ctx, "other", []byte("1")))

	data, ok, err := store.Get(ctx, "rehydrate@todos")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(data))

	keys, err := store.Keys(ctx, "rehydrate@")
	require.NoError(t, err)
	require.Equal(t, []string{"rehydrate@todos", "rehydrate@user"}, keys)

	require.NoError(t, store.Remove(ctx, "rehydrate@todos"))
	_, ok, err = store.Get(ctx, "rehydrate@todos")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "ldb"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Set(ctx, "k", []byte("v")), context.Canceled)
}
