package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemoryIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	ctx := context.Background()
	origin := Coordinate{Latitude: 17.3850, Longitude: 78.4867}
	// shops spread along the longitude axis at increasing distances
	offsets := map[int64]float64{1: 0.001, 2: 0.01, 3: 0.05, 4: 0.2, 5: 2.0}
	for id, off := range offsets {
		require.NoError(t, idx.Upsert(ctx, id, Coordinate{Latitude: origin.Latitude, Longitude: origin.Longitude + off}))
	}
	return idx
}

func TestMemoryIndexWithinRadius(t *testing.T) {
	idx := seedMemoryIndex(t)
	origin := Coordinate{Latitude: 17.3850, Longitude: 78.4867}

	hits, err := idx.WithinRadius(context.Background(), origin, 10_000)
	require.NoError(t, err)
	ids := make([]int64, 0, len(hits))
	for i, h := range hits {
		ids = append(ids, h.ShopID)
		assert.LessOrEqual(t, h.DistanceMeters, 10_000.0)
		if i > 0 {
			assert.GreaterOrEqual(t, h.DistanceMeters, hits[i-1].DistanceMeters)
		}
	}
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestMemoryIndexClampsRadius(t *testing.T) {
	idx := seedMemoryIndex(t)
	origin := Coordinate{Latitude: 17.3850, Longitude: 78.4867}

	// 200m is raised to 500m: shop 1 (~106m) hits, shop 2 (~1.06km) does not
	hits, err := idx.WithinRadius(context.Background(), origin, 200)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ShopID)

	// 500km is capped at 100km: shop 5 (~212km) misses
	hits, err = idx.WithinRadius(context.Background(), origin, 500_000)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, int64(5), h.ShopID)
		assert.LessOrEqual(t, h.DistanceMeters, MaxRadiusMeters)
	}
	assert.Len(t, hits, 4)
}

func TestMemoryIndexUpsertAndRemove(t *testing.T) {
	idx := seedMemoryIndex(t)
	ctx := context.Background()
	require.Equal(t, 5, idx.Len())

	require.NoError(t, idx.Remove(ctx, 1))
	require.NoError(t, idx.Remove(ctx, 42))
	assert.Equal(t, 4, idx.Len())

	err := idx.Upsert(ctx, 9, Coordinate{Latitude: 120, Longitude: 0})
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestMemoryIndexRestartable(t *testing.T) {
	idx := seedMemoryIndex(t)
	origin := Coordinate{Latitude: 17.3850, Longitude: 78.4867}
	first, err := idx.WithinRadius(context.Background(), origin, 50_000)
	require.NoError(t, err)
	second, err := idx.WithinRadius(context.Background(), origin, 50_000)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemoryIndexCancelled(t *testing.T) {
	idx := seedMemoryIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.WithinRadius(ctx, Coordinate{Latitude: 17.3850, Longitude: 78.4867}, 10_000)
	assert.ErrorIs(t, err, context.Canceled)
}
