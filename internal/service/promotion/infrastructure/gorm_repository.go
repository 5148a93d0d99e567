// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/service/promotion/domain"
)

// GormPromotionRepository 是 PromotionRepository 的 GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository 创建一个新的 GORM 仓储实例
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// FindCouponByCode 按券码查找优惠券
func (r *GormPromotionRepository) FindCouponByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, errors.Wrap(err, "find coupon by code")
	}
	return ToDomainCoupon(&model), nil
}

// FindActiveCommonDiscount 查找给定时刻生效的全场折扣。
// 同一时刻应当只有一条生效记录；存在多条时取第一条匹配。
func (r *GormPromotionRepository) FindActiveCommonDiscount(ctx context.Context, now time.Time) (*domain.CommonDiscount, error) {
	var model CommonDiscountModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date <= ? AND end_date >= ?",
			int(domain.CommonDiscountActive), now, now).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find active common discount")
	}
	return ToDomainCommonDiscount(&model), nil
}

// ConsumeCouponTx 在给定事务内把单次券置为已核销。
// 条件更新保证并发核销只有一方成功，落败方拿到已占用错误。
// 核销事务由结算侧持有，避免跨服务的两段提交。
func ConsumeCouponTx(tx *gorm.DB, couponID int64) error {
	result := tx.Model(&CouponModel{}).
		Where("id = ? AND status = ?", couponID, int(domain.CouponActive)).
		Update("status", int(domain.CouponConsumed))
	if result.Error != nil {
		return errors.Wrap(result.Error, "consume coupon")
	}
	if result.RowsAffected == 0 {
		return domain.ErrCouponAlreadyUsed
	}
	return nil
}

// --- 类型转换函数 ---

// ToDomainCoupon 将数据库模型转换为领域模型
func ToDomainCoupon(model *CouponModel) *domain.Coupon {
	if model == nil {
		return nil
	}
	return &domain.Coupon{
		ID:              model.ID,
		Code:            model.Code,
		Amount:          model.Amount,
		AmountType:      domain.CouponAmountType(model.AmountType),
		DiscountCeiling: model.DiscountCeiling,
		UserID:          model.UserID,
		Type:            domain.CouponType(model.Type),
		StartDate:       model.StartDate,
		EndDate:         model.EndDate,
		Status:          domain.CouponStatus(model.Status),
		RuleDefinition:  model.RuleDefinition,
	}
}

// ToDomainCommonDiscount 将数据库模型转换为领域模型
func ToDomainCommonDiscount(model *CommonDiscountModel) *domain.CommonDiscount {
	if model == nil {
		return nil
	}
	return &domain.CommonDiscount{
		ID:                 model.ID,
		Title:              model.Title,
		Percentage:         model.Percentage,
		DiscountCeiling:    model.DiscountCeiling,
		MinimalOrderAmount: model.MinimalOrderAmount,
		StartDate:          model.StartDate,
		EndDate:            model.EndDate,
		Status:             domain.CommonDiscountStatus(model.Status),
		RuleDefinition:     model.RuleDefinition,
	}
}
