package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	StoreID    int64  `gorm:"not null;uniqueIndex:uq_products_store_external"`
	ExternalID string `gorm:"type:varchar(100);not null;uniqueIndex:uq_products_store_external"`

	Title       string          `gorm:"type:text;not null"`
	ProductType string          `gorm:"type:varchar(100);index"`
	Vendor      string          `gorm:"type:varchar(200)"`
	Price       decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Archived    bool            `gorm:"not null;default:false"`

	ExternalCreatedAt *time.Time `gorm:"type:timestamptz"`
	ExternalUpdatedAt *time.Time `gorm:"type:timestamptz;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}
