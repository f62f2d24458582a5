package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	StoreID    int64  `gorm:"not null;uniqueIndex:uq_orders_store_external"`
	ExternalID string `gorm:"type:varchar(100);not null;uniqueIndex:uq_orders_store_external"`

	OrderNumber        string `gorm:"type:varchar(50)"`
	CustomerExternalID string `gorm:"type:varchar(100);index"`

	TotalPrice        decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	FinancialStatus   string          `gorm:"type:varchar(50);index"`
	FulfillmentStatus string          `gorm:"type:varchar(50)"`

	ProcessedAt time.Time `gorm:"type:timestamptz;not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	OrderID uint64 `gorm:"not null;index"`

	ProductExternalID string          `gorm:"type:varchar(100);index"`
	Title             string          `gorm:"type:text"`
	Quantity          int             `gorm:"not null;default:0"`
	Price             decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
