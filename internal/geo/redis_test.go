package geo

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRedisIndexWithinRadius needs a live Redis: REDIS_ADDR=127.0.0.1:6379 go test ./internal/geo
func TestRedisIndexWithinRadius(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	key := "test:shop:geo"
	require.NoError(t, rdb.Del(ctx, key).Err())
	defer rdb.Del(ctx, key)

	idx := NewRedisIndex(rdb, key)
	origin := Coordinate{Latitude: 17.3850, Longitude: 78.4867}
	require.NoError(t, idx.UpsertBatch(ctx, map[int64]Coordinate{
		1: {Latitude: 17.3850, Longitude: 78.4877},
		2: {Latitude: 17.3850, Longitude: 78.5867},
		3: {Latitude: 18.3850, Longitude: 78.4867},
	}))

	hits, err := idx.WithinRadius(ctx, origin, 20_000)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ShopID)
	assert.Equal(t, int64(2), hits[1].ShopID)
	for _, h := range hits {
		assert.LessOrEqual(t, h.DistanceMeters, 20_000.0)
		// Redis uses a slightly different earth radius than Distance
		assert.InDelta(t, Distance(origin, h.Coordinate), h.DistanceMeters, 50)
	}

	require.NoError(t, idx.Remove(ctx, 1))
	hits, err = idx.WithinRadius(ctx, origin, 20_000)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRedisIndexRejectsPolarLatitudes(t *testing.T) {
	// rejected before any command is sent, so no Redis is needed
	idx := NewRedisIndex(nil, "")
	ctx := context.Background()

	err := idx.Upsert(ctx, 1, Coordinate{Latitude: 86, Longitude: 10})
	assert.ErrorIs(t, err, ErrOutOfIndexRange)
	assert.Contains(t, err.Error(), "85.05112878")

	err = idx.UpsertBatch(ctx, map[int64]Coordinate{2: {Latitude: -89.9, Longitude: 0}})
	assert.ErrorIs(t, err, ErrOutOfIndexRange)

	_, err = idx.WithinRadius(ctx, Coordinate{Latitude: 88, Longitude: 0}, 1_000)
	assert.ErrorIs(t, err, ErrOutOfIndexRange)

	assert.NoError(t, CheckIndexable(idx, Coordinate{Latitude: RedisMaxLatitude, Longitude: 180}))
	assert.ErrorIs(t, CheckIndexable(idx, Coordinate{Latitude: 91, Longitude: 0}), ErrInvalidCoordinate)
	assert.NoError(t, CheckIndexable(NewMemoryIndex(), Coordinate{Latitude: 89.9, Longitude: 0}))
}
