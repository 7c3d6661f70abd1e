package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance-sync/internal/timeutil"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, NewRedisStore(client, "attendance:checkpoint:", zap.NewNop())
}

func TestRedisStore_SaveLoadRoundTrip(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	cp := time.Date(2024, 1, 2, 9, 30, 0, 0, timeutil.Location)
	require.NoError(t, store.Save(ctx, "dev-1", cp))

	loaded := store.Load(ctx, "dev-1")
	assert.True(t, loaded.Equal(cp))
}

func TestRedisStore_SaveWritesTextFormat(t *testing.T) {
	mr, store := setupRedisStore(t)
	ctx := context.Background()

	cp := time.Date(2024, 1, 2, 9, 30, 0, 0, timeutil.Location)
	require.NoError(t, store.Save(ctx, "dev-1", cp))

	val, err := mr.Get("attendance:checkpoint:dev-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T09:30:00+05:45", val)
}

func TestRedisStore_MissingDefaultsToLookback(t *testing.T) {
	_, store := setupRedisStore(t)

	loaded := store.Load(context.Background(), "dev-unknown")

	expected := timeutil.Now().Add(-DefaultLookback)
	assert.WithinDuration(t, expected, loaded, time.Minute)
}

func TestRedisStore_CorruptValueDefaultsToLookback(t *testing.T) {
	mr, store := setupRedisStore(t)
	require.NoError(t, mr.Set("attendance:checkpoint:dev-1", "garbage"))

	loaded := store.Load(context.Background(), "dev-1")

	expected := timeutil.Now().Add(-DefaultLookback)
	assert.WithinDuration(t, expected, loaded, time.Minute)
}

func TestRedisStore_KeysAreScopedPerDevice(t *testing.T) {
	_, store := setupRedisStore(t)
	ctx := context.Background()

	cp1 := time.Date(2024, 1, 2, 9, 0, 0, 0, timeutil.Location)
	cp2 := time.Date(2024, 1, 3, 10, 0, 0, 0, timeutil.Location)
	require.NoError(t, store.Save(ctx, "dev-1", cp1))
	require.NoError(t, store.Save(ctx, "dev-2", cp2))

	assert.True(t, store.Load(ctx, "dev-1").Equal(cp1))
	assert.True(t, store.Load(ctx, "dev-2").Equal(cp2))
}
