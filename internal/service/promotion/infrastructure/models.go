// internal/service/promotion/infrastructure/models.go
package infrastructure

import "time"

// CouponModel 对应数据库中的 coupons 表
type CouponModel struct {
	ID              int64  `gorm:"primaryKey"`
	Code            string `gorm:"uniqueIndex"`
	Amount          int64
	AmountType      int `gorm:"type:tinyint"`
	DiscountCeiling int64
	UserID          *int64 `gorm:"index"`
	Type            int    `gorm:"type:tinyint"`
	StartDate       time.Time
	EndDate         time.Time
	Status          int    `gorm:"type:tinyint;default:1"`
	RuleDefinition  string `gorm:"type:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CouponModel) TableName() string {
	return "coupons"
}

// CommonDiscountModel 对应数据库中的 common_discounts 表
type CommonDiscountModel struct {
	ID                 int64 `gorm:"primaryKey"`
	Title              string
	Percentage         int64
	DiscountCeiling    int64
	MinimalOrderAmount int64
	StartDate          time.Time
	EndDate            time.Time
	Status             int    `gorm:"type:tinyint;default:1"`
	RuleDefinition     string `gorm:"type:json"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (CommonDiscountModel) TableName() string {
	return "common_discounts"
}
