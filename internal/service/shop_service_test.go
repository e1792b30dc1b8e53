package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/availability"
	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
)

func TestShopCreateIndexesAndResolvesStatus(t *testing.T) {
	f := newShopFixture(t)
	shop := f.createShop(t, 1, "Nikhil Kirana")

	assert.True(t, shop.MasterSwitchOn(), "new shops start with the switch on")
	require.NotNil(t, shop.Status)
	assert.Equal(t, availability.Open, shop.Status.Label)
	assert.Equal(t, 1, f.index.Len())

	hits, err := f.index.WithinRadius(context.Background(), shop.Coordinate(), 500)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, shop.ID, hits[0].ShopID)
}

func TestShopCreateOnePerSeller(t *testing.T) {
	f := newShopFixture(t)
	f.createShop(t, 1, "First")

	lat, lon := 17.0, 78.0
	_, err := f.shops.Create(context.Background(), 1, dto.ShopForm{Name: "Second", Latitude: &lat, Longitude: &lon})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestShopCreateValidation(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()

	_, err := f.shops.Create(ctx, 1, dto.ShopForm{Name: "No location"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.shops.Create(ctx, 1, dto.ShopForm{Name: "Bad lat", Latitude: ptr(91.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.shops.Create(ctx, 1, dto.ShopForm{Name: "", Latitude: ptr(1.0), Longitude: ptr(1.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.shops.Create(ctx, 1, dto.ShopForm{
		Name: "Bad hours", Latitude: ptr(1.0), Longitude: ptr(1.0), OpeningTime: ptr("25:00"),
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, f.index.Len())
}

func TestShopGetMissingReturnsNil(t *testing.T) {
	f := newShopFixture(t)
	shop, err := f.shops.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, shop)

	_, err = f.shops.UpdateProfile(context.Background(), 7, dto.ShopForm{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestShopUpdateProfileKeepsHoursWhenOmitted(t *testing.T) {
	f := newShopFixture(t)
	f.createShop(t, 1, "Old name")

	updated, err := f.shops.UpdateProfile(context.Background(), 1, dto.ShopForm{Name: "New name", Category: "Dairy"})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	require.NotNil(t, updated.OpeningTime)
	assert.Equal(t, "09:00", *updated.OpeningTime)

	cleared, err := f.shops.UpdateProfile(context.Background(), 1, dto.ShopForm{Name: "New name", OpeningTime: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.OpeningTime)
	assert.Equal(t, availability.ReasonHoursNotSet, cleared.Status.Reason)
}

func TestShopUpdateLocationMovesIndexEntry(t *testing.T) {
	f := newShopFixture(t)
	shop := f.createShop(t, 1, "Mover")

	_, err := f.shops.UpdateLocation(context.Background(), 1, dto.LocationForm{Latitude: ptr(12.9716), Longitude: ptr(77.5946)})
	require.NoError(t, err)

	hits, err := f.index.WithinRadius(context.Background(), geo.Coordinate{Latitude: 12.9716, Longitude: 77.5946}, 500)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, shop.ID, hits[0].ShopID)

	var stored model.Shop
	require.NoError(t, f.db.First(&stored, shop.ID).Error)
	assert.InDelta(t, 12.9716, stored.Latitude, 1e-9)
}

func TestShopSetStatusInvalidatesCache(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	shop := f.createShop(t, 1, "Cached")

	loaded, err := f.shops.ShopsByIDs(ctx, []int64{shop.ID})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].MasterSwitchOn())

	paused, err := f.shops.SetStatus(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, availability.ReasonManuallyPaused, paused.Status.Reason)

	loaded, err = f.shops.ShopsByIDs(ctx, []int64{shop.ID})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.False(t, loaded[0].MasterSwitchOn())

	_, err = f.shops.SetStatus(ctx, 99, true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestShopDeleteCascades(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	shop := f.createShop(t, 1, "Closing down")
	categories := NewCategoryService(f.db, f.shops)
	products := NewProductService(f.db, f.shops, nil)

	cat, err := categories.Create(ctx, 1, dto.CategoryForm{Name: "Snacks"})
	require.NoError(t, err)
	_, err = products.Create(ctx, 1, dto.ProductForm{Name: "Chips", CategoryID: &cat.ID, Price: ptr(20.0)})
	require.NoError(t, err)

	require.NoError(t, f.shops.Delete(ctx, 1))

	var count int64
	require.NoError(t, f.db.Model(&model.Product{}).Where("shop_id = ?", shop.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&model.Category{}).Where("shop_id = ?", shop.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 0, f.index.Len())

	got, err := f.shops.ShopsByIDs(ctx, []int64{shop.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestShopListAfterPagesByID(t *testing.T) {
	f := newShopFixture(t)
	for i := int64(1); i <= 5; i++ {
		f.createShop(t, i, "Shop")
	}
	first, err := f.shops.ListAfter(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	rest, err := f.shops.ListAfter(context.Background(), first[1].ID, 10)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
	assert.Greater(t, rest[0].ID, first[1].ID)
}

// afterFirstQuery 在下一次查询完成后执行一次 fn，用来模拟并发写入恰好落在读与写之间
func afterFirstQuery(t *testing.T, db *gorm.DB, name string, fn func()) {
	t.Helper()
	fired := false
	require.NoError(t, db.Callback().Query().After("gorm:query").Register(name, func(*gorm.DB) {
		if fired {
			return
		}
		fired = true
		fn()
	}))
}

func TestShopUpdateProfileKeepsConcurrentStatusChange(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	shop := f.createShop(t, 1, "Old name")

	afterFirstQuery(t, f.db, "test:pause_during_profile", func() {
		_, err := f.shops.SetStatus(ctx, 1, false)
		require.NoError(t, err)
	})
	updated, err := f.shops.UpdateProfile(ctx, 1, dto.ShopForm{Name: "New name"})
	require.NoError(t, err)
	assert.Equal(t, "New name", updated.Name)
	assert.False(t, updated.MasterSwitchOn())
	assert.Equal(t, availability.ReasonManuallyPaused, updated.Status.Reason)

	var stored model.Shop
	require.NoError(t, f.db.First(&stored, shop.ID).Error)
	assert.False(t, stored.MasterSwitchOn(), "profile save must not revert the switch")
	assert.Equal(t, "New name", stored.Name)
}

func TestShopUpdateProfileKeepsConcurrentLocationChange(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	shop := f.createShop(t, 1, "Mover")
	moved := geo.Coordinate{Latitude: 12.9716, Longitude: 77.5946}

	afterFirstQuery(t, f.db, "test:move_during_profile", func() {
		_, err := f.shops.UpdateLocation(ctx, 1, dto.LocationForm{Latitude: ptr(moved.Latitude), Longitude: ptr(moved.Longitude)})
		require.NoError(t, err)
	})
	_, err := f.shops.UpdateProfile(ctx, 1, dto.ShopForm{Name: "Mover", Category: "Dairy"})
	require.NoError(t, err)

	var stored model.Shop
	require.NoError(t, f.db.First(&stored, shop.ID).Error)
	assert.Equal(t, moved, stored.Coordinate())

	hits, err := f.index.WithinRadius(ctx, moved, 500)
	require.NoError(t, err)
	require.Len(t, hits, 1, "index and table agree on the new location")
	assert.Equal(t, shop.ID, hits[0].ShopID)
}

func TestShopUpdateProfileMovesWhenCoordinatesGiven(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	shop := f.createShop(t, 1, "Mover")

	updated, err := f.shops.UpdateProfile(ctx, 1, dto.ShopForm{Name: "Mover", Latitude: ptr(12.9716), Longitude: ptr(77.5946)})
	require.NoError(t, err)
	assert.InDelta(t, 12.9716, updated.Latitude, 1e-9)

	hits, err := f.index.WithinRadius(ctx, updated.Coordinate(), 500)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, shop.ID, hits[0].ShopID)
}

func TestShopsByIDsSkipsStaleFill(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	shop := f.createShop(t, 1, "Cached")

	// 查库返回旧行之后、回填之前，卖家暂停了营业
	afterFirstQuery(t, f.db, "test:pause_during_load", func() {
		_, err := f.shops.SetStatus(ctx, 1, false)
		require.NoError(t, err)
	})
	loaded, err := f.shops.ShopsByIDs(ctx, []int64{shop.ID})
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	loaded, err = f.shops.ShopsByIDs(ctx, []int64{shop.ID})
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.False(t, loaded[0].MasterSwitchOn(), "stale row must not be cached")
}

// polarBoundIndex 模拟只能存储部分纬度范围的后端
type polarBoundIndex struct {
	*geo.MemoryIndex
}

func (polarBoundIndex) CheckBounds(c geo.Coordinate) error {
	if c.Latitude > geo.RedisMaxLatitude || c.Latitude < -geo.RedisMaxLatitude {
		return geo.ErrOutOfIndexRange
	}
	return nil
}

func (p polarBoundIndex) Upsert(ctx context.Context, shopID int64, c geo.Coordinate) error {
	if err := geo.CheckIndexable(p, c); err != nil {
		return err
	}
	return p.MemoryIndex.Upsert(ctx, shopID, c)
}

func TestShopRejectsLocationOutsideIndexRange(t *testing.T) {
	db := newTestDB(t)
	index := polarBoundIndex{geo.NewMemoryIndex()}
	geoSync := NewGeoSyncService(db, index, GeoSyncTopics{}, 0, nil, "", nil, nil)
	shops := NewShopService(db, geoSync, config.ShopCacheConfig{}, nil, time.UTC, nil, nil)
	ctx := context.Background()

	_, err := shops.Create(ctx, 1, dto.ShopForm{Name: "Svalbard", Latitude: ptr(78.2), Longitude: ptr(15.6)})
	require.NoError(t, err)

	_, err = shops.Create(ctx, 2, dto.ShopForm{Name: "Pole", Latitude: ptr(89.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	var count int64
	require.NoError(t, db.Model(&model.Shop{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = shops.UpdateLocation(ctx, 1, dto.LocationForm{Latitude: ptr(-87.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = shops.UpdateProfile(ctx, 1, dto.ShopForm{Name: "Svalbard", Latitude: ptr(86.0), Longitude: ptr(0.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 1, index.Len())
}
