package models

import "time"

// SyncCheckpoint is the durable resume marker for one (store, data type) pair.
// At most one row exists per pair; saves upsert it in place.
type SyncCheckpoint struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	StoreID  int64  `gorm:"not null;uniqueIndex:uq_checkpoints_store_type"`
	DataType string `gorm:"type:varchar(50);not null;uniqueIndex:uq_checkpoints_store_type"`

	// LastCursor is an opaque resume token owned by the fetch layer.
	LastCursor       string     `gorm:"type:text"`
	RecordsProcessed int        `gorm:"not null;default:0"`
	LastProcessedAt  *time.Time `gorm:"type:timestamptz"`

	WindowStart *time.Time `gorm:"type:timestamptz"`
	WindowEnd   *time.Time `gorm:"type:timestamptz"`

	CanResume bool `gorm:"not null;default:true"`
	// Version increases on every save; stale writers are rejected.
	Version   int64      `gorm:"not null;default:0"`
	ExpiresAt *time.Time `gorm:"type:timestamptz;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SyncCheckpoint) TableName() string {
	return "checkpoints"
}
