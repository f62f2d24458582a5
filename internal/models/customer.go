package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	StoreID    int64  `gorm:"not null;uniqueIndex:uq_customers_store_external"`
	ExternalID string `gorm:"type:varchar(100);not null;uniqueIndex:uq_customers_store_external"`

	Email       string          `gorm:"type:varchar(320);index"`
	DisplayName string          `gorm:"type:varchar(200)"`
	OrdersCount int             `gorm:"not null;default:0"`
	TotalSpent  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	LastOrderAt *time.Time      `gorm:"type:timestamptz;index"`

	ExternalCreatedAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
