package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncRunDetail is an append-only per-batch log row. Diagnostic only; never
// mutated after insert.
type SyncRunDetail struct {
	ID    uint64 `gorm:"primaryKey;autoIncrement"`
	RunID uint64 `gorm:"not null;index"`

	BatchIdentifier string         `gorm:"type:varchar(100);not null"`
	RecordsInBatch  int            `gorm:"not null;default:0"`
	ProcessedAt     time.Time      `gorm:"type:timestamptz;not null;index"`
	Status          string         `gorm:"type:varchar(50);not null;default:'Processing'"`
	Stats           datatypes.JSON `gorm:"type:jsonb"`
}

func (SyncRunDetail) TableName() string {
	return "sync_run_details"
}
