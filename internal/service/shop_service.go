package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/availability"
	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
	"github.com/Nikhi-l37/local-inventory-project/internal/observability"
)

const (
	CodeShopExists   = "SHOP_EXISTS"
	CodeShopNotFound = "SHOP_NOT_FOUND"
	CodeInvalidShop  = "INVALID_SHOP"
)

// ShopService 处理商铺相关业务逻辑，并负责地理索引同步
type ShopService struct {
	db      *gorm.DB
	geoSync *GeoSyncService
	cache   *expirable.LRU[int64, model.Shop]
	// cacheMu 串行化失效与回填；cacheGen 每次失效递增，
	// 查库期间发生过失效的结果不回填缓存
	cacheMu  sync.Mutex
	cacheGen uint64
	resolver *availability.Resolver
	loc      *time.Location
	clock    func() time.Time
	metrics  *observability.SearchMetrics
	log      *zap.Logger
}

// NewShopService 创建 ShopService 实例；cacheCfg.Enabled 为 false 时不做行缓存
func NewShopService(
	db *gorm.DB,
	geoSync *GeoSyncService,
	cacheCfg config.ShopCacheConfig,
	resolver *availability.Resolver,
	loc *time.Location,
	metrics *observability.SearchMetrics,
	log *zap.Logger,
) *ShopService {
	if log == nil {
		log = zap.NewNop()
	}
	if resolver == nil {
		resolver = availability.NewResolver()
	}
	if loc == nil {
		loc = time.Local
	}
	s := &ShopService{
		db:       db,
		geoSync:  geoSync,
		resolver: resolver,
		loc:      loc,
		clock:    time.Now,
		metrics:  metrics,
		log:      log,
	}
	if cacheCfg.Enabled && cacheCfg.Size > 0 {
		s.cache = expirable.NewLRU[int64, model.Shop](cacheCfg.Size, nil, cacheCfg.TTL)
	}
	return s
}

// Create 一个卖家只能开一家店；新店默认营业开关打开
func (s *ShopService) Create(ctx context.Context, sellerID int64, form dto.ShopForm) (*model.Shop, error) {
	if form.Latitude == nil || form.Longitude == nil {
		return nil, apperr.Validation(CodeInvalidShop, "latitude and longitude are required")
	}
	shop := &model.Shop{SellerID: sellerID}
	if err := applyShopForm(shop, form); err != nil {
		return nil, err
	}
	if err := s.checkLocation(shop.Coordinate()); err != nil {
		return nil, err
	}
	open := true
	shop.IsOpen = &open

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Shop{}).Where("seller_id = ?", sellerID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict(CodeShopExists, "you already have a shop")
		}
		return tx.Create(shop).Error
	})
	if err != nil {
		return nil, err
	}
	s.geoSync.Upsert(ctx, shop)
	s.log.Info("shop created", zap.Int64("shopId", shop.ID), zap.Int64("sellerId", sellerID))
	return s.withStatus(shop), nil
}

// GetByID 查询商铺并附带当前营业状态，不存在返回 (nil, nil)
func (s *ShopService) GetByID(ctx context.Context, id int64) (*model.Shop, error) {
	var shop model.Shop
	err := s.db.WithContext(ctx).First(&shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.withStatus(&shop), nil
}

// GetBySeller 查询卖家自己的商铺，不存在返回 (nil, nil)
func (s *ShopService) GetBySeller(ctx context.Context, sellerID int64) (*model.Shop, error) {
	var shop model.Shop
	err := s.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.withStatus(&shop), nil
}

// mustGetBySeller 卖家没有商铺时返回 NOT_FOUND
func (s *ShopService) mustGetBySeller(ctx context.Context, sellerID int64) (*model.Shop, error) {
	shop, err := s.GetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, apperr.NotFound(CodeShopNotFound, "you have not created a shop yet")
	}
	return shop, nil
}

// UpdateProfile 更新资料、地址与营业时间；只有表单带坐标时才写坐标并同步索引
func (s *ShopService) UpdateProfile(ctx context.Context, sellerID int64, form dto.ShopForm) (*model.Shop, error) {
	shop, err := s.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	before := shop.Coordinate()
	if err := applyShopForm(shop, form); err != nil {
		return nil, err
	}
	// 只写资料列，营业开关与坐标各有独立入口
	values := map[string]interface{}{
		"name":         shop.Name,
		"category":     shop.Category,
		"description":  shop.Description,
		"image_url":    shop.ImageURL,
		"opening_time": shop.OpeningTime,
		"closing_time": shop.ClosingTime,
		"town_village": shop.TownVillage,
		"mandal":       shop.Mandal,
		"district":     shop.District,
		"state":        shop.State,
	}
	moved := form.Latitude != nil && form.Longitude != nil
	if moved {
		if err := s.checkLocation(shop.Coordinate()); err != nil {
			return nil, err
		}
		values["latitude"], values["longitude"] = shop.Latitude, shop.Longitude
	}

	var updated model.Shop
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Shop{}).Where("id = ?", shop.ID).Updates(values).Error; err != nil {
			return err
		}
		// 读回最新行，营业开关等未提交的列以库中为准
		return tx.First(&updated, shop.ID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(CodeShopNotFound, "you have not created a shop yet")
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(updated.ID)
	if moved && updated.Coordinate() != before {
		s.geoSync.Upsert(ctx, &updated)
	}
	return s.withStatus(&updated), nil
}

// UpdateLocation 仅修改坐标
func (s *ShopService) UpdateLocation(ctx context.Context, sellerID int64, form dto.LocationForm) (*model.Shop, error) {
	if form.Latitude == nil || form.Longitude == nil {
		return nil, apperr.Validation(CodeInvalidShop, "latitude and longitude are required")
	}
	c := geo.Coordinate{Latitude: *form.Latitude, Longitude: *form.Longitude}
	if err := s.checkLocation(c); err != nil {
		return nil, err
	}
	shop, err := s.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&model.Shop{}).Where("id = ?", shop.ID).
		Updates(map[string]interface{}{"latitude": c.Latitude, "longitude": c.Longitude}).Error
	if err != nil {
		return nil, err
	}
	shop.Latitude, shop.Longitude = c.Latitude, c.Longitude
	s.invalidate(shop.ID)
	s.geoSync.Upsert(ctx, shop)
	return s.withStatus(shop), nil
}

// SetStatus 在一个事务里更新营业开关并读回最新行
func (s *ShopService) SetStatus(ctx context.Context, sellerID int64, isOpen bool) (*model.Shop, error) {
	var shop model.Shop
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Shop{}).Where("seller_id = ?", sellerID).Update("is_open", isOpen)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound(CodeShopNotFound, "you have not created a shop yet")
		}
		return tx.Where("seller_id = ?", sellerID).First(&shop).Error
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(shop.ID)
	s.log.Info("shop status changed", zap.Int64("shopId", shop.ID), zap.Bool("isOpen", isOpen))
	return s.withStatus(&shop), nil
}

// Delete 级联删除商品与分类，并从地理索引移除
func (s *ShopService) Delete(ctx context.Context, sellerID int64) error {
	shop, err := s.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shop_id = ?", shop.ID).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Where("shop_id = ?", shop.ID).Delete(&model.Category{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Shop{}, shop.ID).Error
	})
	if err != nil {
		return err
	}
	s.invalidate(shop.ID)
	s.geoSync.Remove(ctx, shop.ID)
	s.log.Info("shop deleted", zap.Int64("shopId", shop.ID), zap.Int64("sellerId", sellerID))
	return nil
}

// ShopsByIDs 批量加载商铺，先查缓存，未命中的一次性查库。返回顺序不保证
func (s *ShopService) ShopsByIDs(ctx context.Context, ids []int64) ([]model.Shop, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]model.Shop, 0, len(ids))
	missing := ids
	if s.cache != nil {
		missing = make([]int64, 0, len(ids))
		for _, id := range ids {
			if shop, ok := s.cache.Get(id); ok {
				out = append(out, shop)
				s.metrics.ObserveCache(true)
				continue
			}
			s.metrics.ObserveCache(false)
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	gen := s.generation()
	var loaded []model.Shop
	if err := s.db.WithContext(ctx).Where("id IN ?", missing).Find(&loaded).Error; err != nil {
		return nil, err
	}
	s.fill(gen, loaded)
	return append(out, loaded...), nil
}

// ListAfter 按主键游标分批读取，供重建索引使用
func (s *ShopService) ListAfter(ctx context.Context, afterID int64, limit int) ([]model.Shop, error) {
	var shops []model.Shop
	err := s.db.WithContext(ctx).
		Select("id", "latitude", "longitude").
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&shops).Error
	return shops, err
}

func (s *ShopService) invalidate(id int64) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	s.cache.Remove(id)
}

func (s *ShopService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// fill 回填缓存；gen 之后发生过失效则放弃，避免旧行覆盖新状态
func (s *ShopService) fill(gen uint64, shops []model.Shop) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheGen != gen {
		return
	}
	for _, shop := range shops {
		s.cache.Add(shop.ID, shop)
	}
}

// checkLocation 校验坐标合法且索引后端能够存储
func (s *ShopService) checkLocation(c geo.Coordinate) error {
	if err := s.geoSync.CheckLocation(c); err != nil {
		return apperr.Validation(CodeInvalidShop, err.Error())
	}
	return nil
}

func (s *ShopService) withStatus(shop *model.Shop) *model.Shop {
	now := availability.WallClockOf(s.clock().In(s.loc))
	st := s.resolver.Resolve(shop.OpeningTime, shop.ClosingTime, shop.IsOpen, now)
	shop.Status = &st
	return shop
}

// applyShopForm 校验并写入表单字段；时间统一为 HH:MM
func applyShopForm(shop *model.Shop, form dto.ShopForm) error {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return apperr.Validation(CodeInvalidShop, "shop name is required")
	}
	if form.Latitude != nil || form.Longitude != nil {
		if form.Latitude == nil || form.Longitude == nil {
			return apperr.Validation(CodeInvalidShop, "latitude and longitude must be set together")
		}
		c := geo.Coordinate{Latitude: *form.Latitude, Longitude: *form.Longitude}
		if err := c.Validate(); err != nil {
			return apperr.Validation(CodeInvalidShop, err.Error())
		}
		shop.Latitude, shop.Longitude = c.Latitude, c.Longitude
	}
	// nil 保留原值，空字符串清空
	if form.OpeningTime != nil {
		opening, err := availability.NormalizeTime(form.OpeningTime)
		if err != nil {
			return apperr.Validation(CodeInvalidShop, "openingTime: "+err.Error())
		}
		shop.OpeningTime = opening
	}
	if form.ClosingTime != nil {
		closing, err := availability.NormalizeTime(form.ClosingTime)
		if err != nil {
			return apperr.Validation(CodeInvalidShop, "closingTime: "+err.Error())
		}
		shop.ClosingTime = closing
	}
	shop.Name = name
	shop.Category = strings.TrimSpace(form.Category)
	shop.Description = form.Description
	shop.ImageURL = form.ImageURL
	shop.TownVillage = form.TownVillage
	shop.Mandal = form.Mandal
	shop.District = form.District
	shop.State = form.State
	return nil
}
