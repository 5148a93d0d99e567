// internal/service/cart/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/service/cart/domain"
)

// CartItemModel 对应数据库中的 cart_items 表
type CartItemModel struct {
	ID          int64 `gorm:"primaryKey"`
	UserID      int64 `gorm:"index"`
	ProductID   int64
	ColorID     *int64
	GuaranteeID *int64
	Qty         int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (CartItemModel) TableName() string {
	return "cart_items"
}

// GormItemRepository 是 ItemRepository 的 GORM 实现
type GormItemRepository struct {
	db *gorm.DB
}

func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

func (r *GormItemRepository) FindByUser(ctx context.Context, userID int64) ([]*domain.Item, error) {
	var models []*CartItemModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "find cart items")
	}
	items := make([]*domain.Item, len(models))
	for i, m := range models {
		items[i] = toDomainItem(m)
	}
	return items, nil
}

func (r *GormItemRepository) FindByID(ctx context.Context, id int64) (*domain.Item, error) {
	var model CartItemModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, errors.Wrap(err, "find cart item")
	}
	return toDomainItem(&model), nil
}

func (r *GormItemRepository) FindByUserAndSelection(ctx context.Context, userID, productID int64, colorID, guaranteeID *int64) (*domain.Item, error) {
	query := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID)
	if colorID != nil {
		query = query.Where("color_id = ?", *colorID)
	} else {
		query = query.Where("color_id IS NULL")
	}
	if guaranteeID != nil {
		query = query.Where("guarantee_id = ?", *guaranteeID)
	} else {
		query = query.Where("guarantee_id IS NULL")
	}

	var model CartItemModel
	err := query.First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find cart item by selection")
	}
	return toDomainItem(&model), nil
}

func (r *GormItemRepository) Save(ctx context.Context, item *domain.Item) error {
	model := fromDomainItem(item)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return errors.Wrap(err, "save cart item")
	}
	item.ID = model.ID
	return nil
}

func (r *GormItemRepository) Delete(ctx context.Context, id int64) error {
	return errors.Wrap(
		r.db.WithContext(ctx).Delete(&CartItemModel{}, id).Error,
		"delete cart item",
	)
}

func (r *GormItemRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return errors.Wrap(
		r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartItemModel{}).Error,
		"clear cart",
	)
}

// --- 类型转换函数 ---

func toDomainItem(model *CartItemModel) *domain.Item {
	return &domain.Item{
		ID:          model.ID,
		UserID:      model.UserID,
		ProductID:   model.ProductID,
		ColorID:     model.ColorID,
		GuaranteeID: model.GuaranteeID,
		Qty:         model.Qty,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func fromDomainItem(item *domain.Item) *CartItemModel {
	return &CartItemModel{
		ID:          item.ID,
		UserID:      item.UserID,
		ProductID:   item.ProductID,
		ColorID:     item.ColorID,
		GuaranteeID: item.GuaranteeID,
		Qty:         item.Qty,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}
