// internal/service/catalog/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/service/catalog/domain"
)

// GormCatalogRepository 是 CatalogRepository 的 GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository 创建一个新的 GORM 仓储实例
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) FindProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, errors.Wrap(err, "find product")
	}
	return toDomainProduct(&model), nil
}

func (r *GormCatalogRepository) FindColor(ctx context.Context, id int64) (*domain.Color, error) {
	var model ColorModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrColorNotFound
		}
		return nil, errors.Wrap(err, "find color")
	}
	return toDomainColor(&model), nil
}

func (r *GormCatalogRepository) FindGuarantee(ctx context.Context, id int64) (*domain.Guarantee, error) {
	var model GuaranteeModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrGuaranteeNotFound
		}
		return nil, errors.Wrap(err, "find guarantee")
	}
	return toDomainGuarantee(&model), nil
}

// FindActiveSale 查找商品当前生效的限时折扣。
// 时间窗重叠时按主键序取第一条，与历史行为一致。
func (r *GormCatalogRepository) FindActiveSale(ctx context.Context, productID int64, now time.Time) (*domain.AmazingSale, error) {
	var model AmazingSaleModel
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			productID, int(domain.SaleActive), now, now).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find active sale")
	}
	return toDomainSale(&model), nil
}

// --- 类型转换函数 ---

func toDomainProduct(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:            model.ID,
		Title:         model.Title,
		Price:         model.Price,
		MarketableQty: model.MarketableQty,
		Status:        domain.ProductStatus(model.Status),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func toDomainColor(model *ColorModel) *domain.Color {
	return &domain.Color{
		ID:            model.ID,
		ProductID:     model.ProductID,
		Name:          model.Name,
		PriceIncrease: model.PriceIncrease,
	}
}

func toDomainGuarantee(model *GuaranteeModel) *domain.Guarantee {
	return &domain.Guarantee{
		ID:            model.ID,
		Name:          model.Name,
		PriceIncrease: model.PriceIncrease,
	}
}

func toDomainSale(model *AmazingSaleModel) *domain.AmazingSale {
	return &domain.AmazingSale{
		ID:         model.ID,
		ProductID:  model.ProductID,
		Percentage: model.Percentage,
		StartDate:  model.StartDate,
		EndDate:    model.EndDate,
		Status:     domain.AmazingSaleStatus(model.Status),
	}
}
