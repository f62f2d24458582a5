package synctrack

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Data types a store syncs. RecommendedRange falls back to a two-year lookback
// for anything not listed here.
const (
	DataTypeProducts  = "products"
	DataTypeCustomers = "customers"
	DataTypeOrders    = "orders"
)

var (
	// ErrCheckpointConflict signals that another writer advanced the checkpoint
	// for the same (store, data type) pair since our last save.
	ErrCheckpointConflict = errors.New("checkpoint version conflict")
	// ErrRunNotFound signals an operation referencing an unknown run.
	ErrRunNotFound = errors.New("sync run not found")
	// ErrNoActiveRange signals a range mutation on a pair with no active setting.
	ErrNoActiveRange = errors.New("no active sync range setting")
)

// DateRange is the inclusive window a sync execution is scoped to.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ResumeInfo is what a resumable checkpoint offers a restarting sync.
type ResumeInfo struct {
	LastCursor       string
	RecordsProcessed int
	LastProcessedAt  *time.Time
}

// SyncOptions seeds the first DetermineRange call for a (store, data type) pair.
type SyncOptions struct {
	StartDate       *time.Time
	EndDate         *time.Time
	MaxYearsBack    int
	IncludeArchived bool
}

// Statistics aggregates run history over a reporting window.
type Statistics struct {
	StoreID     int64
	PeriodStart time.Time
	PeriodEnd   time.Time

	TotalSyncs      int
	SuccessfulSyncs int
	FailedSyncs     int

	TotalRecordsProcessed int
	TotalRecordsFailed    int

	AverageDuration time.Duration
	SuccessRate     decimal.Decimal
}
