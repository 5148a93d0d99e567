// internal/service/cart/domain/item.go
package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrItemNotFound   = errors.New("cart item not found")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidQty     = errors.New("quantity must be greater than zero")
	ErrNotOwnedByUser = errors.New("cart item does not belong to user")
)

// Item 是一条购物车记录。生命周期很短：加车时创建，
// 下单提交或用户删除时消失。价格不在这里存储，读取时实时计算。
type Item struct {
	ID          int64
	UserID      int64
	ProductID   int64
	ColorID     *int64
	GuaranteeID *int64
	Qty         int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemRepository 定义了购物车的持久化接口。
type ItemRepository interface {
	FindByUser(ctx context.Context, userID int64) ([]*Item, error)
	FindByID(ctx context.Context, id int64) (*Item, error)

	// FindByUserAndSelection 查找同一用户、同一商品/颜色/保修组合的已有条目，
	// 用于加车时合并数量。未找到返回 (nil, nil)。
	FindByUserAndSelection(ctx context.Context, userID, productID int64, colorID, guaranteeID *int64) (*Item, error)

	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id int64) error

	// DeleteByUser 清空用户的整个购物车。
	DeleteByUser(ctx context.Context, userID int64) error
}
