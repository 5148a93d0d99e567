// internal/service/checkout/infrastructure/commit_store.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
)

// GormCommitStore 是 CommitStore 的 GORM 实现。
// 提交的全部写操作在一个事务里：订单、订单行、支付、
// 清空购物车、关闭会话。任何一步失败整体回滚。
type GormCommitStore struct {
	db *gorm.DB
}

func NewGormCommitStore(db *gorm.DB) *GormCommitStore {
	return &GormCommitStore{db: db}
}

func (s *GormCommitStore) CommitOrder(ctx context.Context, commit *port.Commit) error {
	orderModel, err := fromDomainOrder(commit.Order)
	if err != nil {
		return err
	}
	paymentModel, err := fromDomainPayment(commit.Payment)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Items 随订单一起级联写入
		if err := tx.Create(orderModel).Error; err != nil {
			return errors.Wrap(err, "insert order")
		}
		if err := tx.Create(paymentModel).Error; err != nil {
			return errors.Wrap(err, "insert payment")
		}

		if len(commit.CartItemIDs) > 0 {
			if err := tx.Where("id IN ?", commit.CartItemIDs).
				Delete(&cartItemRow{}).Error; err != nil {
				return errors.Wrap(err, "clear committed cart items")
			}
		}

		result := tx.Model(&SessionModel{}).
			Where("id = ? AND open_flag = 1", commit.SessionID).
			Updates(map[string]interface{}{
				"state":      string(domain.SessionCommitted),
				"open_flag":  nil,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return errors.Wrap(result.Error, "close checkout session")
		}
		if result.RowsAffected == 0 {
			// 会话已被并发提交关闭，说明这单重复了
			return domain.ErrCommitConflict
		}
		return nil
	})
}

// cartItemRow 只承载表名，避免本包反向依赖购物车的模型定义。
type cartItemRow struct{}

func (cartItemRow) TableName() string {
	return "cart_items"
}
