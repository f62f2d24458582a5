package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Run status machine: InProgress is the only non-terminal state.
const (
	RunStatusInProgress = "InProgress"
	RunStatusCompleted  = "Completed"
	RunStatusFailed     = "Failed"
	RunStatusTimedOut   = "TimedOut"
)

// SyncRun is one execution attempt of a sync for a store and sync type.
// Rows are never deleted; terminal runs are mirrored into sync_run_history.
type SyncRun struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	StoreID  int64  `gorm:"not null;index"`
	SyncType string `gorm:"type:varchar(50);not null;index"`
	Status   string `gorm:"type:varchar(20);not null;index;default:'InProgress'"`

	StartedAt   time.Time  `gorm:"type:timestamptz;not null;index"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`

	TotalRecords       int             `gorm:"not null;default:0"`
	ProcessedRecords   int             `gorm:"not null;default:0"`
	FailedRecords      int             `gorm:"not null;default:0"`
	ProgressPercentage decimal.Decimal `gorm:"type:numeric(8,4);not null;default:0"`

	LastActivityAt time.Time `gorm:"type:timestamptz;not null;index"`

	WindowStart *time.Time `gorm:"type:timestamptz"`
	WindowEnd   *time.Time `gorm:"type:timestamptz"`

	ErrorMessage string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
