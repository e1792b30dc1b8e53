package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
)

const (
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeInvalidProduct  = "INVALID_PRODUCT"
)

// ProductService 商品增删改查；写操作只允许商铺所有者
type ProductService struct {
	db    *gorm.DB
	shops *ShopService
	log   *zap.Logger
}

func NewProductService(db *gorm.DB, shops *ShopService, log *zap.Logger) *ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductService{db: db, shops: shops, log: log}
}

// Create 商品归属于当前卖家的商铺
func (s *ProductService) Create(ctx context.Context, sellerID int64, form dto.ProductForm) (*model.Product, error) {
	shop, err := s.shops.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	product := &model.Product{ShopID: shop.ID, IsAvailable: true}
	if err := s.applyProductForm(ctx, product, form); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.Int64("productId", product.ID), zap.Int64("shopId", shop.ID))
	return product, nil
}

// Update 全量更新商品资料
func (s *ProductService) Update(ctx context.Context, sellerID, productID int64, form dto.ProductForm) (*model.Product, error) {
	product, err := s.owned(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.applyProductForm(ctx, product, form); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SetAvailability 切换有货状态
func (s *ProductService) SetAvailability(ctx context.Context, sellerID, productID int64, available bool) (*model.Product, error) {
	product, err := s.owned(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(product).Update("is_available", available).Error
	if err != nil {
		return nil, err
	}
	product.IsAvailable = available
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, sellerID, productID int64) error {
	product, err := s.owned(ctx, sellerID, productID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Product{}, product.ID).Error; err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Int64("productId", product.ID), zap.Int64("shopId", product.ShopID))
	return nil
}

// ListByShop 公开接口，只返回有货商品。pageSize <= 0 时不分页
func (s *ProductService) ListByShop(ctx context.Context, shopID int64, page, pageSize int) ([]model.Product, int64, error) {
	available := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&model.Product{}).
			Where("shop_id = ? AND is_available = ?", shopID, true)
	}
	var total int64
	if err := available().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query := available().Order("id ASC")
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListMine 卖家视角，包含缺货商品
func (s *ProductService) ListMine(ctx context.Context, sellerID int64) ([]model.Product, error) {
	shop, err := s.shops.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	var products []model.Product
	err = s.db.WithContext(ctx).Where("shop_id = ?", shop.ID).Order("id ASC").Find(&products).Error
	return products, err
}

// ProductsByShopIDs 搜索用，一次查出半径内所有商铺的商品
func (s *ProductService) ProductsByShopIDs(ctx context.Context, shopIDs []int64) ([]model.Product, error) {
	if len(shopIDs) == 0 {
		return nil, nil
	}
	var products []model.Product
	err := s.db.WithContext(ctx).Where("shop_id IN ?", shopIDs).Find(&products).Error
	return products, err
}

// owned 商品不存在返回 404，不属于当前卖家返回 403
func (s *ProductService) owned(ctx context.Context, sellerID, productID int64) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(CodeProductNotFound, "product not found")
	}
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.GetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if shop == nil || shop.ID != product.ShopID {
		return nil, apperr.Forbidden("you do not own this product")
	}
	return &product, nil
}

func (s *ProductService) applyProductForm(ctx context.Context, product *model.Product, form dto.ProductForm) error {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return apperr.Validation(CodeInvalidProduct, "product name is required")
	}
	if form.Price != nil {
		if math.IsNaN(*form.Price) || math.IsInf(*form.Price, 0) || *form.Price < 0 {
			return apperr.Validation(CodeInvalidProduct, "price must be a non-negative number")
		}
		product.Price = *form.Price
	}
	if form.CategoryID != nil {
		var count int64
		err := s.db.WithContext(ctx).Model(&model.Category{}).
			Where("id = ? AND shop_id = ?", *form.CategoryID, product.ShopID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return apperr.Validation(CodeInvalidProduct, "category does not belong to your shop")
		}
	}
	if form.IsAvailable != nil {
		product.IsAvailable = *form.IsAvailable
	}
	product.Name = name
	product.Category = strings.TrimSpace(form.Category)
	product.CategoryID = form.CategoryID
	product.Description = form.Description
	product.ImageURL = form.ImageURL
	return nil
}
