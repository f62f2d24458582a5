package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Only the operations the import and analytics paths touch carry real state.
type stubRepo struct {
	mu sync.Mutex

	checkpoints map[string]*models.SyncCheckpoint
	runs        map[uint64]*models.SyncRun
	details     []models.SyncRunDetail
	history     []models.SyncRunHistory
	settings    []*models.SyncRangeSetting
	stores      map[int64]*models.Store

	products  []models.Product
	customers []models.Customer
	orders    []models.Order

	nextRunID     uint64
	nextSettingID uint64
	upsertErr     error

	summary     repository.OrdersSummary
	topProducts []repository.TopProductRow
	dormant     int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		checkpoints: map[string]*models.SyncCheckpoint{},
		runs:        map[uint64]*models.SyncRun{},
		stores:      map[int64]*models.Store{},
	}
}

func pairKey(storeID int64, dataType string) string {
	return fmt.Sprintf("%d-%s", storeID, dataType)
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) GetCheckpoint(ctx context.Context, storeID int64, dataType string) (*models.SyncCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.checkpoints[pairKey(storeID, dataType)]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (s *stubRepo) GetResumableCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) (*models.SyncCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.checkpoints[pairKey(storeID, dataType)]
	if !ok || !item.CanResume {
		return nil, nil
	}
	if item.ExpiresAt != nil && !item.ExpiresAt.After(now) {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (s *stubRepo) SaveCheckpoint(ctx context.Context, item *models.SyncCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.checkpoints[pairKey(item.StoreID, item.DataType)] = &cp
	return nil
}

func (s *stubRepo) DeleteCheckpoints(ctx context.Context, storeID int64, dataType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(storeID, dataType)
	if _, ok := s.checkpoints[key]; !ok {
		return 0, nil
	}
	delete(s.checkpoints, key)
	return 1, nil
}

func (s *stubRepo) InvalidateCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.checkpoints[pairKey(storeID, dataType)]; ok {
		item.CanResume = false
	}
	return nil
}

func (s *stubRepo) DeleteExpiredCheckpoints(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) HasValidCheckpoint(ctx context.Context, storeID int64, dataType string, now time.Time) (bool, error) {
	item, err := s.GetResumableCheckpoint(ctx, storeID, dataType, now)
	return item != nil, err
}

func (s *stubRepo) CreateSyncRun(ctx context.Context, item *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunID++
	item.ID = s.nextRunID
	run := *item
	s.runs[item.ID] = &run
	return nil
}

func (s *stubRepo) GetSyncRunByID(ctx context.Context, id uint64) (*models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	run := *item
	return &run, nil
}

func (s *stubRepo) UpdateSyncRun(ctx context.Context, item *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := *item
	s.runs[item.ID] = &run
	return nil
}

func (s *stubRepo) UpdateSyncRuns(ctx context.Context, items []models.SyncRun) error {
	for i := range items {
		if err := s.UpdateSyncRun(ctx, &items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubRepo) GetCurrentSyncRun(ctx context.Context, storeID int64, syncType string) (*models.SyncRun, error) {
	return nil, nil
}

func (s *stubRepo) ListActiveSyncRuns(ctx context.Context, storeID *int64) ([]models.SyncRun, error) {
	return nil, nil
}

func (s *stubRepo) ListStalledSyncRuns(ctx context.Context, cutoff time.Time) ([]models.SyncRun, error) {
	return nil, nil
}

func (s *stubRepo) InsertSyncRunDetail(ctx context.Context, item *models.SyncRunDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details = append(s.details, *item)
	return nil
}

func (s *stubRepo) ListSyncRunDetails(ctx context.Context, runID uint64) ([]models.SyncRunDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SyncRunDetail
	for _, item := range s.details {
		if item.RunID == runID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertSyncRunHistory(ctx context.Context, item *models.SyncRunHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *item)
	return nil
}

func (s *stubRepo) ListSyncRunHistory(ctx context.Context, params repository.ListSyncHistoryParams) ([]models.SyncRunHistory, error) {
	return nil, nil
}

func (s *stubRepo) ListSyncRunHistorySince(ctx context.Context, storeID int64, since time.Time) ([]models.SyncRunHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SyncRunHistory(nil), s.history...), nil
}

func (s *stubRepo) GetActiveRangeSetting(ctx context.Context, storeID int64, dataType string) (*models.SyncRangeSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.settings) - 1; i >= 0; i-- {
		item := s.settings[i]
		if item.StoreID == storeID && item.DataType == dataType && item.IsActive {
			setting := *item
			return &setting, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) CreateRangeSetting(ctx context.Context, item *models.SyncRangeSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSettingID++
	item.ID = s.nextSettingID
	setting := *item
	s.settings = append(s.settings, &setting)
	return nil
}

func (s *stubRepo) UpdateRangeSetting(ctx context.Context, item *models.SyncRangeSetting) error {
	return nil
}

func (s *stubRepo) DeactivateRangeSettings(ctx context.Context, storeID int64, dataType string) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UpsertStore(ctx context.Context, item *models.Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := *item
	s.stores[item.ID] = &store
	return nil
}

func (s *stubRepo) GetStoreByID(ctx context.Context, id int64) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.stores[id]
	if !ok {
		return nil, nil
	}
	store := *item
	return &store, nil
}

func (s *stubRepo) ListStores(ctx context.Context, activeOnly bool) ([]models.Store, error) {
	return nil, nil
}

func (s *stubRepo) UpsertProductsTx(ctx context.Context, tx *gorm.DB, items []models.Product) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, items...)
	return nil
}

func (s *stubRepo) UpsertCustomersTx(ctx context.Context, tx *gorm.DB, items []models.Customer) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = append(s.customers, items...)
	return nil
}

func (s *stubRepo) UpsertOrdersTx(ctx context.Context, tx *gorm.DB, items []models.Order) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, items...)
	return nil
}

func (s *stubRepo) CountProducts(ctx context.Context, storeID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.products)), nil
}

func (s *stubRepo) CountCustomers(ctx context.Context, storeID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.customers)), nil
}

func (s *stubRepo) CountOrders(ctx context.Context, storeID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orders)), nil
}

func (s *stubRepo) OrdersSummary(ctx context.Context, storeID int64, since, until time.Time) (repository.OrdersSummary, error) {
	return s.summary, nil
}

func (s *stubRepo) TopProducts(ctx context.Context, storeID int64, since, until time.Time, limit int) ([]repository.TopProductRow, error) {
	return s.topProducts, nil
}

func (s *stubRepo) DormantCustomerCount(ctx context.Context, storeID int64, lastOrderBefore time.Time) (int64, error) {
	return s.dormant, nil
}
