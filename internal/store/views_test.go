package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/store"
)

func TestViewTracker_DedupesWithinWindow(t *testing.T) {
	ctx := context.Background()
	views := store.NewViewTracker(newKV(t), time.Minute)

	seen, err := views.Seen(ctx, "list-1", "viewer-a")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = views.Seen(ctx, "list-1", "viewer-a")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = views.Seen(ctx, "list-1", "viewer-b")
	require.NoError(t, err)
	assert.False(t, seen, "different viewer")

	seen, err = views.Seen(ctx, "list-2", "viewer-a")
	require.NoError(t, err)
	assert.False(t, seen, "different list")
}

func TestViewTracker_ZeroWindowDisables(t *testing.T) {
	ctx := context.Background()
	views := store.NewViewTracker(newKV(t), 0)

	for range 3 {
		seen, err := views.Seen(ctx, "list-1", "viewer-a")
		require.NoError(t, err)
		assert.False(t, seen)
	}
}

func TestViewTracker_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for TTL expiry")
	}
	ctx := context.Background()
	views := store.NewViewTracker(newKV(t), time.Second)

	seen, err := views.Seen(ctx, "list-1", "viewer-a")
	require.NoError(t, err)
	require.False(t, seen)

	time.Sleep(2100 * time.Millisecond)

	seen, err = views.Seen(ctx, "list-1", "viewer-a")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestViewTracker_InMemory(t *testing.T) {
	kv, err := store.OpenInMemoryKV(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	views := store.NewViewTracker(kv, time.Minute)
	_, err = views.Seen(context.Background(), "list-1", "viewer-a")
	require.NoError(t, err)
	seen, err := views.Seen(context.Background(), "list-1", "viewer-a")
	require.NoError(t, err)
	assert.True(t, seen)
}
