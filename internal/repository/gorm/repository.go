package gormrepository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Checkpoints ------------------------------------------------------------

func (s *Store) GetCheckpoint(ctx context.Context, storeID int64, dataType string) (*models.SyncCheckpoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncCheckpoint
	err := s.db.WithContext(ctx).
		First(&item, "store_id = ? AND data_type = ?", storeID, dataType).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetResumableCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) (*models.SyncCheckpoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncCheckpoint
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND data_type = ?", storeID, dataType).
		Where("can_resume = ?", true).
		Where("expires_at > ?", now).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) SaveCheckpoint(ctx context.Context, item *models.SyncCheckpoint) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "data_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_cursor",
			"records_processed",
			"last_processed_at",
			"window_start",
			"window_end",
			"can_resume",
			"version",
			"expires_at",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) DeleteCheckpoints(ctx context.Context, storeID int64, dataType string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("store_id = ? AND data_type = ?", storeID, dataType).
		Delete(&models.SyncCheckpoint{})
	return res.RowsAffected, res.Error
}

func (s *Store) InvalidateCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.SyncCheckpoint{}).
		Where("store_id = ? AND data_type = ?", storeID, dataType).
		Updates(map[string]any{
			"can_resume": false,
			"updated_at": now,
		}).Error
}

func (s *Store) DeleteExpiredCheckpoints(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		before = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", before).
		Delete(&models.SyncCheckpoint{})
	return res.RowsAffected, res.Error
}

func (s *Store) HasValidCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.SyncCheckpoint{}).
		Where("store_id = ? AND data_type = ?", storeID, dataType).
		Where("can_resume = ?", true).
		Where("expires_at > ?", now).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// --- Sync runs --------------------------------------------------------------

func (s *Store) CreateSyncRun(ctx context.Context, item *models.SyncRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSyncRunByID(ctx context.Context, id uint64) (*models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncRun
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpdateSyncRun(ctx context.Context, item *models.SyncRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) UpdateSyncRuns(ctx context.Context, items []models.SyncRun) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range items {
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetCurrentSyncRun(ctx context.Context, storeID int64, syncType string) (*models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncRun
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND sync_type = ?", storeID, syncType).
		Where("status = ?", models.RunStatusInProgress).
		Order("started_at desc").
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListActiveSyncRuns(ctx context.Context, storeID *int64) ([]models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.SyncRun{}).
		Where("status = ?", models.RunStatusInProgress)
	if storeID != nil {
		query = query.Where("store_id = ?", *storeID)
	}
	var items []models.SyncRun
	// Oldest first so stuck runs surface at the top of operator views.
	if err := query.Order("started_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListStalledSyncRuns(ctx context.Context, cutoff time.Time) ([]models.SyncRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncRun
	err := s.db.WithContext(ctx).
		Where("status = ?", models.RunStatusInProgress).
		Where("last_activity_at < ?", cutoff).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Run details & history --------------------------------------------------

func (s *Store) InsertSyncRunDetail(ctx context.Context, item *models.SyncRunDetail) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListSyncRunDetails(ctx context.Context, runID uint64) ([]models.SyncRunDetail, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncRunDetail
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("processed_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertSyncRunHistory(ctx context.Context, item *models.SyncRunHistory) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListSyncRunHistory(ctx context.Context, params repository.ListSyncHistoryParams) ([]models.SyncRunHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.SyncRunHistory{}).
		Where("store_id = ?", params.StoreID)
	if params.SyncType != nil && strings.TrimSpace(*params.SyncType) != "" {
		query = query.Where("sync_type = ?", strings.TrimSpace(*params.SyncType))
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.SyncRunHistory
	err := query.Order("started_at desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSyncRunHistorySince(ctx context.Context, storeID int64, since time.Time) ([]models.SyncRunHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncRunHistory
	err := s.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Where("started_at >= ?", since).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Range settings ---------------------------------------------------------

func (s *Store) GetActiveRangeSetting(ctx context.Context, storeID int64, dataType string) (*models.SyncRangeSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncRangeSetting
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND data_type = ?", storeID, dataType).
		Where("is_active = ?", true).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateRangeSetting(ctx context.Context, item *models.SyncRangeSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateRangeSetting(ctx context.Context, item *models.SyncRangeSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) DeactivateRangeSettings(ctx context.Context, storeID int64, dataType string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.SyncRangeSetting{}).
		Where("store_id = ? AND data_type = ?", storeID, dataType).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// --- Stores -----------------------------------------------------------------

func (s *Store) UpsertStore(ctx context.Context, item *models.Store) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Domain) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"access_token",
			"active",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Store
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListStores(ctx context.Context, activeOnly bool) ([]models.Store, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Store{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var items []models.Store
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Catalog data -----------------------------------------------------------

func (s *Store) UpsertProductsTx(ctx context.Context, tx *gorm.DB, items []models.Product) error {
	if tx == nil || len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title",
			"product_type",
			"vendor",
			"price",
			"archived",
			"external_created_at",
			"external_updated_at",
			"updated_at",
		}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) UpsertCustomersTx(ctx context.Context, tx *gorm.DB, items []models.Customer) error {
	if tx == nil || len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email",
			"display_name",
			"orders_count",
			"total_spent",
			"last_order_at",
			"external_created_at",
			"updated_at",
		}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) UpsertOrdersTx(ctx context.Context, tx *gorm.DB, items []models.Order) error {
	if tx == nil || len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"order_number",
			"customer_external_id",
			"total_price",
			"financial_status",
			"fulfillment_status",
			"processed_at",
			"updated_at",
		}),
	}).CreateInBatches(items, 200).Error
}

func (s *Store) CountProducts(ctx context.Context, storeID int64) (int64, error) {
	return s.countByStore(ctx, &models.Product{}, storeID)
}

func (s *Store) CountCustomers(ctx context.Context, storeID int64) (int64, error) {
	return s.countByStore(ctx, &models.Customer{}, storeID)
}

func (s *Store) CountOrders(ctx context.Context, storeID int64) (int64, error) {
	return s.countByStore(ctx, &models.Order{}, storeID)
}

func (s *Store) countByStore(ctx context.Context, model any, storeID int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(model).
		Where("store_id = ?", storeID).
		Count(&count).Error
	return count, err
}

// --- Dashboard analytics ----------------------------------------------------

func (s *Store) OrdersSummary(ctx context.Context, storeID int64, since, until time.Time) (repository.OrdersSummary, error) {
	var out repository.OrdersSummary
	if s == nil || s.db == nil {
		return out, nil
	}
	row := struct {
		OrderCount   int64
		TotalRevenue decimal.Decimal
		UniqueBuyers int64
	}{}
	err := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total_price), 0) AS total_revenue, COUNT(DISTINCT customer_external_id) AS unique_buyers").
		Where("store_id = ?", storeID).
		Where("processed_at >= ? AND processed_at <= ?", since, until).
		Scan(&row).Error
	if err != nil {
		return out, err
	}
	out.OrderCount = row.OrderCount
	out.TotalRevenue = row.TotalRevenue
	out.UniqueBuyers = row.UniqueBuyers
	if row.OrderCount > 0 {
		out.AverageOrder = row.TotalRevenue.Div(decimal.NewFromInt(row.OrderCount)).Round(4)
	}
	return out, nil
}

func (s *Store) TopProducts(ctx context.Context, storeID int64, since, until time.Time, limit int) ([]repository.TopProductRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 10)
	var rows []repository.TopProductRow
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_external_id, MAX(order_items.title) AS title, SUM(order_items.quantity) AS units_sold, COALESCE(SUM(order_items.price * order_items.quantity), 0) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.store_id = ?", storeID).
		Where("orders.processed_at >= ? AND orders.processed_at <= ?", since, until).
		Group("order_items.product_external_id").
		Order("revenue desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) DormantCustomerCount(ctx context.Context, storeID int64, lastOrderBefore time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("store_id = ?", storeID).
		Where("last_order_at IS NOT NULL AND last_order_at < ?", lastOrderBefore).
		Count(&count).Error
	return count, err
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
