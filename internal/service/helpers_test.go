package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
)

// newTestDB 每个测试独立的内存 SQLite
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

type shopFixture struct {
	db    *gorm.DB
	index *geo.MemoryIndex
	shops *ShopService
}

func newShopFixture(t *testing.T) *shopFixture {
	t.Helper()
	db := newTestDB(t)
	index := geo.NewMemoryIndex()
	geoSync := NewGeoSyncService(db, index, GeoSyncTopics{}, 0, nil, "", nil, nil)
	shops := NewShopService(db, geoSync, config.ShopCacheConfig{Enabled: true, Size: 16, TTL: time.Minute}, nil, time.UTC, nil, nil)
	shops.clock = func() time.Time { return time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC) }
	return &shopFixture{db: db, index: index, shops: shops}
}

func (f *shopFixture) createShop(t *testing.T, sellerID int64, name string) *model.Shop {
	t.Helper()
	lat, lon := 17.385, 78.4867
	opening, closing := "09:00", "21:00"
	shop, err := f.shops.Create(context.Background(), sellerID, dto.ShopForm{
		Name:        name,
		Category:    "Grocery",
		Latitude:    &lat,
		Longitude:   &lon,
		OpeningTime: &opening,
		ClosingTime: &closing,
	})
	require.NoError(t, err)
	return shop
}

func ptr[T any](v T) *T { return &v }

// flakyIndex 前 failures 次写入失败
type flakyIndex struct {
	*geo.MemoryIndex
	mu       sync.Mutex
	failures int
}

var errIndexDown = errors.New("index down")

func (f *flakyIndex) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return true
	}
	return false
}

func (f *flakyIndex) Upsert(ctx context.Context, shopID int64, c geo.Coordinate) error {
	if f.fail() {
		return errIndexDown
	}
	return f.MemoryIndex.Upsert(ctx, shopID, c)
}

func (f *flakyIndex) Remove(ctx context.Context, shopID int64) error {
	if f.fail() {
		return errIndexDown
	}
	return f.MemoryIndex.Remove(ctx, shopID)
}

// recordingNotifier 记录发送内容，可注入失败
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	To, Subject, Body string
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (n *recordingNotifier) last() sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return sentMail{}
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}
