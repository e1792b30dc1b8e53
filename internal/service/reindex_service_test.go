package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
)

func TestReindexerRebuildsIndexInBatches(t *testing.T) {
	f := newShopFixture(t)
	for i := int64(1); i <= 7; i++ {
		f.createShop(t, i, "Shop")
	}

	fresh := geo.NewMemoryIndex()
	stats, err := NewReindexer(f.shops, fresh, 3, 2, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReindexStats{Indexed: 7}, stats)
	assert.Equal(t, 7, fresh.Len())
}

func TestReindexerCountsFailures(t *testing.T) {
	f := newShopFixture(t)
	f.createShop(t, 1, "A")
	f.createShop(t, 2, "B")

	flaky := &flakyIndex{MemoryIndex: geo.NewMemoryIndex(), failures: 1}
	stats, err := NewReindexer(f.shops, flaky, 10, 1, nil).Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, ReindexStats{Indexed: 1, Failed: 1}, stats)
}

func TestReindexerStopsOnCancel(t *testing.T) {
	f := newShopFixture(t)
	f.createShop(t, 1, "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := NewReindexer(f.shops, geo.NewMemoryIndex(), 10, 1, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Indexed)
}
