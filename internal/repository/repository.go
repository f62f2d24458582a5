package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"shopsync/internal/models"
)

// Repository is the single persistence surface for the sync core, the import
// orchestrator, and the dashboard queries.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Checkpoints
	GetCheckpoint(ctx context.Context, storeID int64, dataType string) (*models.SyncCheckpoint, error)
	GetResumableCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) (*models.SyncCheckpoint, error)
	SaveCheckpoint(ctx context.Context, item *models.SyncCheckpoint) error
	DeleteCheckpoints(ctx context.Context, storeID int64, dataType string) (int64, error)
	InvalidateCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) error
	DeleteExpiredCheckpoints(ctx context.Context, before time.Time) (int64, error)
	HasValidCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) (bool, error)

	// Sync runs
	CreateSyncRun(ctx context.Context, item *models.SyncRun) error
	GetSyncRunByID(ctx context.Context, id uint64) (*models.SyncRun, error)
	UpdateSyncRun(ctx context.Context, item *models.SyncRun) error
	UpdateSyncRuns(ctx context.Context, items []models.SyncRun) error
	GetCurrentSyncRun(ctx context.Context, storeID int64, syncType string) (*models.SyncRun, error)
	ListActiveSyncRuns(ctx context.Context, storeID *int64) ([]models.SyncRun, error)
	ListStalledSyncRuns(ctx context.Context, cutoff time.Time) ([]models.SyncRun, error)

	// Run details & history
	InsertSyncRunDetail(ctx context.Context, item *models.SyncRunDetail) error
	ListSyncRunDetails(ctx context.Context, runID uint64) ([]models.SyncRunDetail, error)
	InsertSyncRunHistory(ctx context.Context, item *models.SyncRunHistory) error
	ListSyncRunHistory(ctx context.Context, params ListSyncHistoryParams) ([]models.SyncRunHistory, error)
	ListSyncRunHistorySince(ctx context.Context, storeID int64, since time.Time) ([]models.SyncRunHistory, error)

	// Range settings
	GetActiveRangeSetting(ctx context.Context, storeID int64, dataType string) (*models.SyncRangeSetting, error)
	CreateRangeSetting(ctx context.Context, item *models.SyncRangeSetting) error
	UpdateRangeSetting(ctx context.Context, item *models.SyncRangeSetting) error
	DeactivateRangeSettings(ctx context.Context, storeID int64, dataType string) (int64, error)

	// Stores
	UpsertStore(ctx context.Context, item *models.Store) error
	GetStoreByID(ctx context.Context, id int64) (*models.Store, error)
	ListStores(ctx context.Context, activeOnly bool) ([]models.Store, error)

	// Catalog data written by the importer
	UpsertProductsTx(ctx context.Context, tx *gorm.DB, items []models.Product) error
	UpsertCustomersTx(ctx context.Context, tx *gorm.DB, items []models.Customer) error
	UpsertOrdersTx(ctx context.Context, tx *gorm.DB, items []models.Order) error
	CountProducts(ctx context.Context, storeID int64) (int64, error)
	CountCustomers(ctx context.Context, storeID int64) (int64, error)
	CountOrders(ctx context.Context, storeID int64) (int64, error)

	// Dashboard analytics
	OrdersSummary(ctx context.Context, storeID int64, since, until time.Time) (OrdersSummary, error)
	TopProducts(ctx context.Context, storeID int64, since, until time.Time, limit int) ([]TopProductRow, error)
	DormantCustomerCount(ctx context.Context, storeID int64, lastOrderBefore time.Time) (int64, error)
}

type ListSyncHistoryParams struct {
	StoreID  int64
	SyncType *string
	Limit    int
	Offset   int
}

type OrdersSummary struct {
	OrderCount   int64
	TotalRevenue decimal.Decimal
	AverageOrder decimal.Decimal
	UniqueBuyers int64
}

type TopProductRow struct {
	ProductExternalID string
	Title             string
	UnitsSold         int64
	Revenue           decimal.Decimal
}
