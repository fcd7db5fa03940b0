package confirm

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, opts...), mr
}

func TestRedisStoreSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))

	loaded, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, samplePending(), loaded)

	require.NoError(t, store.Delete(ctx, "wf-1"))
	_, err = store.Load(ctx, "wf-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, WithPrefix("myapp"))

	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))
	assert.True(t, mr.Exists("myapp:pending:wf-1"))
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, WithTTL(15*time.Minute))

	require.NoError(t, store.Save(ctx, "wf-1", samplePending()))

	mr.FastForward(14 * time.Minute)
	_, err := store.Load(ctx, "wf-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "wf-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreValidation(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	assert.ErrorIs(t, store.Save(ctx, "", samplePending()), ErrInvalidID)
	assert.ErrorIs(t, store.Save(ctx, "wf-1", nil), ErrInvalidAction)
	_, err := store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidID)

	// Deleting an absent id is fine.
	assert.NoError(t, store.Delete(ctx, "missing"))
}
