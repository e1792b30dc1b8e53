package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
)

const (
	CodeCategoryNotFound = "CATEGORY_NOT_FOUND"
	CodeInvalidCategory  = "INVALID_CATEGORY"
)

type CategoryService struct {
	db    *gorm.DB
	shops *ShopService
}

func NewCategoryService(db *gorm.DB, shops *ShopService) *CategoryService {
	return &CategoryService{db: db, shops: shops}
}

func (s *CategoryService) Create(ctx context.Context, sellerID int64, form dto.CategoryForm) (*model.Category, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return nil, apperr.Validation(CodeInvalidCategory, "category name is required")
	}
	shop, err := s.shops.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	category := &model.Category{
		ShopID:      shop.ID,
		Name:        name,
		Description: form.Description,
		ImageURL:    form.ImageURL,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) ListByShop(ctx context.Context, shopID int64) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *CategoryService) ListMine(ctx context.Context, sellerID int64) ([]model.Category, error) {
	shop, err := s.shops.mustGetBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.ListByShop(ctx, shop.ID)
}

// Delete 删除分类并解除商品关联，商品本身保留
func (s *CategoryService) Delete(ctx context.Context, sellerID, categoryID int64) error {
	var category model.Category
	err := s.db.WithContext(ctx).First(&category, categoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(CodeCategoryNotFound, "category not found")
	}
	if err != nil {
		return err
	}
	shop, err := s.shops.GetBySeller(ctx, sellerID)
	if err != nil {
		return err
	}
	if shop == nil || shop.ID != category.ShopID {
		return apperr.Forbidden("you do not own this category")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Category{}, category.ID).Error
	})
}
