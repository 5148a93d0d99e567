// internal/service/catalog/infrastructure/models.go
package infrastructure

import "time"

// ProductModel 是 Product 领域对象在数据库中的表示。
type ProductModel struct {
	ID            int64 `gorm:"primaryKey"`
	Title         string
	Price         int64
	MarketableQty int
	Status        int `gorm:"type:tinyint"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ProductModel) TableName() string {
	return "products"
}

// ColorModel 对应数据库中的 product_colors 表。
type ColorModel struct {
	ID            int64 `gorm:"primaryKey"`
	ProductID     int64 `gorm:"index"`
	Name          string
	PriceIncrease int64
}

func (ColorModel) TableName() string {
	return "product_colors"
}

// GuaranteeModel 对应数据库中的 guarantees 表。
type GuaranteeModel struct {
	ID            int64 `gorm:"primaryKey"`
	Name          string
	PriceIncrease int64
}

func (GuaranteeModel) TableName() string {
	return "guarantees"
}

// AmazingSaleModel 对应数据库中的 amazing_sales 表。
type AmazingSaleModel struct {
	ID         int64 `gorm:"primaryKey"`
	ProductID  int64 `gorm:"index"`
	Percentage int64
	StartDate  time.Time
	EndDate    time.Time
	Status     int `gorm:"type:tinyint"`
}

func (AmazingSaleModel) TableName() string {
	return "amazing_sales"
}
