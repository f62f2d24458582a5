package models

import "time"

// SyncRunHistory is an immutable snapshot written once when a run reaches a
// terminal state. Statistics read from here so live run rows can be pruned.
type SyncRunHistory struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RunID    uint64 `gorm:"not null;index"`
	StoreID  int64  `gorm:"not null;index"`
	SyncType string `gorm:"type:varchar(50);not null;index"`
	Status   string `gorm:"type:varchar(20);not null"`

	StartedAt   time.Time `gorm:"type:timestamptz;not null;index"`
	CompletedAt time.Time `gorm:"type:timestamptz;not null"`

	TotalRecords     int  `gorm:"not null;default:0"`
	ProcessedRecords int  `gorm:"not null;default:0"`
	FailedRecords    int  `gorm:"not null;default:0"`
	Success          bool `gorm:"not null;default:false"`

	WindowStart *time.Time `gorm:"type:timestamptz"`
	WindowEnd   *time.Time `gorm:"type:timestamptz"`

	ErrorMessage string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (SyncRunHistory) TableName() string {
	return "sync_run_history"
}
