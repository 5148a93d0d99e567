// internal/service/catalog/domain/repository.go
package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrColorNotFound     = errors.New("color not found")
	ErrGuaranteeNotFound = errors.New("guarantee not found")
)

// CatalogRepository 定义了商品目录的只读持久化接口。
// 它位于领域层，由基础设施层实现。
type CatalogRepository interface {
	FindProduct(ctx context.Context, id int64) (*Product, error)
	FindColor(ctx context.Context, id int64) (*Color, error)
	FindGuarantee(ctx context.Context, id int64) (*Guarantee, error)

	// FindActiveSale 返回商品在给定时刻生效的限时折扣。
	// 没有生效折扣时返回 (nil, nil)；时间窗重叠时返回默认排序下的第一条。
	FindActiveSale(ctx context.Context, productID int64, now time.Time) (*AmazingSale, error)
}
