package models

import "time"

// SyncRangeSetting pins the date window a sync series covers. Exactly one row
// per (store, data type) is active; resets deactivate instead of deleting so
// superseded settings stay auditable.
type SyncRangeSetting struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	StoreID  int64  `gorm:"not null;index:idx_range_settings_store_type"`
	DataType string `gorm:"type:varchar(50);not null;index:idx_range_settings_store_type"`

	StartDate time.Time `gorm:"type:timestamptz;not null"`
	EndDate   time.Time `gorm:"type:timestamptz;not null"`

	YearsBack       int  `gorm:"not null;default:3"`
	IncludeArchived bool `gorm:"not null;default:false"`
	IsActive        bool `gorm:"not null;index;default:true"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SyncRangeSetting) TableName() string {
	return "sync_range_settings"
}
