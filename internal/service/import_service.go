package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopsync/internal/client/shopify"
	"shopsync/internal/models"
	"shopsync/internal/repository"
	synctrack "shopsync/internal/sync"
)

// PageFetcher is the slice of the store API client the importer needs.
type PageFetcher interface {
	GetProducts(ctx context.Context, params shopify.PageParams) (*shopify.ProductPage, error)
	GetCustomers(ctx context.Context, params shopify.PageParams) (*shopify.CustomerPage, error)
	GetOrders(ctx context.Context, params shopify.PageParams) (*shopify.OrderPage, error)
}

type ImportConfig struct {
	PageLimit int
	MaxPages  int
	Resume    bool
}

type ImportResult struct {
	RunID     uint64 `json:"run_id"`
	DataType  string `json:"data_type"`
	Pages     int    `json:"pages"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Resumed   bool   `json:"resumed"`
	Completed bool   `json:"completed"`
}

// ImportService drives one chunked import: resolve the window, check for a
// resumable checkpoint, open a run, then page through the store API saving
// progress and checkpoints until the cursor is exhausted.
type ImportService struct {
	Repo        repository.Repository
	Fetcher     PageFetcher
	Checkpoints *synctrack.CheckpointStore
	Ranges      *synctrack.RangeResolver
	Tracker     *synctrack.ProgressTracker
	Logger      *zap.Logger
	Config      ImportConfig
}

// Run executes a sync for (store, dataType). force invalidates any existing
// checkpoint first, producing a fresh full sync.
func (s *ImportService) Run(ctx context.Context, store models.Store, dataType string, opts *synctrack.SyncOptions, force bool) (ImportResult, error) {
	var result ImportResult
	result.DataType = dataType
	if s == nil || s.Repo == nil || s.Fetcher == nil {
		return result, fmt.Errorf("import service not configured")
	}

	window, err := s.Ranges.DetermineRange(ctx, store.ID, dataType, opts)
	if err != nil {
		return result, err
	}

	if force {
		s.Checkpoints.Invalidate(ctx, store.ID, dataType)
	}
	cursor := ""
	processed := 0
	if s.Config.Resume && !force {
		if resume := s.Checkpoints.GetResumeInfo(ctx, store.ID, dataType); resume != nil {
			cursor = resume.LastCursor
			processed = resume.RecordsProcessed
			result.Resumed = true
		}
	}

	// First page both seeds the loop and reveals the total record count.
	page, err := s.fetchPage(ctx, dataType, cursor, window, opts)
	if err != nil {
		return result, fmt.Errorf("fetch first page: %w", err)
	}

	runID, err := s.Tracker.StartSync(ctx, store.ID, dataType, window, page.total)
	if err != nil {
		return result, err
	}
	result.RunID = runID

	failed := 0
	maxPages := s.Config.MaxPages
	for pages := 0; ; pages++ {
		if pages > 0 {
			page, err = s.fetchPage(ctx, dataType, cursor, window, opts)
			if err != nil {
				s.failRun(ctx, runID, fmt.Errorf("fetch page: %w", err))
				result.Pages = pages
				result.Processed = processed
				result.Failed = failed
				return result, err
			}
		}

		batchFailed, err := s.persistBatch(ctx, store.ID, page)
		if err != nil {
			s.failRun(ctx, runID, fmt.Errorf("persist batch: %w", err))
			result.Pages = pages + 1
			result.Processed = processed
			result.Failed = failed
			return result, err
		}
		processed += page.count
		failed += batchFailed

		s.Tracker.UpdateProgress(ctx, runID, processed, &failed, uuid.NewString())
		if err := s.Checkpoints.Save(ctx, store.ID, dataType, page.nextCursor, processed, window); err != nil {
			// A conflicting writer means this worker lost ownership of the pair.
			s.failRun(ctx, runID, err)
			result.Pages = pages + 1
			result.Processed = processed
			result.Failed = failed
			return result, err
		}

		cursor = page.nextCursor
		result.Pages = pages + 1
		if cursor == "" {
			result.Completed = true
			break
		}
		if maxPages > 0 && pages+1 >= maxPages {
			break
		}
	}
	result.Processed = processed
	result.Failed = failed

	if err := s.Tracker.CompleteSync(ctx, runID, true, ""); err != nil {
		return result, err
	}
	if result.Completed {
		// Finished the whole window; nothing left to resume.
		s.Checkpoints.Clear(ctx, store.ID, dataType)
	}
	s.log().Info("import finished",
		zap.Int64("store_id", store.ID),
		zap.String("data_type", dataType),
		zap.Int("pages", result.Pages),
		zap.Int("processed", result.Processed),
		zap.Bool("completed", result.Completed))
	return result, nil
}

func (s *ImportService) failRun(ctx context.Context, runID uint64, cause error) {
	if err := s.Tracker.CompleteSync(ctx, runID, false, cause.Error()); err != nil {
		s.log().Error("failed to record run failure", zap.Uint64("run_id", runID), zap.Error(err))
	}
}

// fetchedPage normalizes the three page shapes so the loop stays generic.
type fetchedPage struct {
	count      int
	total      int
	nextCursor string

	products  []shopify.ProductDTO
	customers []shopify.CustomerDTO
	orders    []shopify.OrderDTO
}

func (s *ImportService) fetchPage(ctx context.Context, dataType, cursor string, window synctrack.DateRange, opts *synctrack.SyncOptions) (*fetchedPage, error) {
	params := shopify.PageParams{
		Cursor:       cursor,
		Limit:        s.Config.PageLimit,
		CreatedAtMin: window.Start.Format(time.RFC3339),
		CreatedAtMax: window.End.Format(time.RFC3339),
	}
	if opts != nil {
		params.IncludeArchived = opts.IncludeArchived
	}
	switch dataType {
	case synctrack.DataTypeProducts:
		page, err := s.Fetcher.GetProducts(ctx, params)
		if err != nil {
			return nil, err
		}
		return &fetchedPage{
			count:      len(page.Items),
			total:      page.TotalCount,
			nextCursor: page.NextCursor,
			products:   page.Items,
		}, nil
	case synctrack.DataTypeCustomers:
		page, err := s.Fetcher.GetCustomers(ctx, params)
		if err != nil {
			return nil, err
		}
		return &fetchedPage{
			count:      len(page.Items),
			total:      page.TotalCount,
			nextCursor: page.NextCursor,
			customers:  page.Items,
		}, nil
	case synctrack.DataTypeOrders:
		page, err := s.Fetcher.GetOrders(ctx, params)
		if err != nil {
			return nil, err
		}
		return &fetchedPage{
			count:      len(page.Items),
			total:      page.TotalCount,
			nextCursor: page.NextCursor,
			orders:     page.Items,
		}, nil
	}
	return nil, fmt.Errorf("unknown data type %q", dataType)
}

func (s *ImportService) persistBatch(ctx context.Context, storeID int64, page *fetchedPage) (int, error) {
	failed := 0
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		switch {
		case page.products != nil:
			items, bad := productsFromDTOs(storeID, page.products)
			failed = bad
			return s.Repo.UpsertProductsTx(ctx, tx, items)
		case page.customers != nil:
			items, bad := customersFromDTOs(storeID, page.customers)
			failed = bad
			return s.Repo.UpsertCustomersTx(ctx, tx, items)
		case page.orders != nil:
			items, bad := ordersFromDTOs(storeID, page.orders)
			failed = bad
			return s.Repo.UpsertOrdersTx(ctx, tx, items)
		}
		return nil
	})
	return failed, err
}

func productsFromDTOs(storeID int64, dtos []shopify.ProductDTO) ([]models.Product, int) {
	items := make([]models.Product, 0, len(dtos))
	failed := 0
	for _, dto := range dtos {
		if dto.ID == "" {
			failed++
			continue
		}
		items = append(items, models.Product{
			StoreID:           storeID,
			ExternalID:        dto.ID,
			Title:             dto.Title,
			ProductType:       dto.ProductType,
			Vendor:            dto.Vendor,
			Price:             parseMoney(dto.Price),
			Archived:          dto.Archived,
			ExternalCreatedAt: dto.CreatedAt,
			ExternalUpdatedAt: dto.UpdatedAt,
		})
	}
	return items, failed
}

func customersFromDTOs(storeID int64, dtos []shopify.CustomerDTO) ([]models.Customer, int) {
	items := make([]models.Customer, 0, len(dtos))
	failed := 0
	for _, dto := range dtos {
		if dto.ID == "" {
			failed++
			continue
		}
		items = append(items, models.Customer{
			StoreID:           storeID,
			ExternalID:        dto.ID,
			Email:             dto.Email,
			DisplayName:       dto.DisplayName,
			OrdersCount:       dto.OrdersCount,
			TotalSpent:        parseMoney(dto.TotalSpent),
			LastOrderAt:       dto.LastOrderAt,
			ExternalCreatedAt: dto.CreatedAt,
		})
	}
	return items, failed
}

func ordersFromDTOs(storeID int64, dtos []shopify.OrderDTO) ([]models.Order, int) {
	items := make([]models.Order, 0, len(dtos))
	failed := 0
	for _, dto := range dtos {
		if dto.ID == "" {
			failed++
			continue
		}
		order := models.Order{
			StoreID:            storeID,
			ExternalID:         dto.ID,
			OrderNumber:        dto.OrderNumber,
			CustomerExternalID: dto.CustomerID,
			TotalPrice:         parseMoney(dto.TotalPrice),
			FinancialStatus:    dto.FinancialStatus,
			FulfillmentStatus:  dto.FulfillmentStatus,
			ProcessedAt:        dto.ProcessedAt,
		}
		for _, line := range dto.LineItems {
			order.Items = append(order.Items, models.OrderItem{
				ProductExternalID: line.ProductID,
				Title:             line.Title,
				Quantity:          line.Quantity,
				Price:             parseMoney(line.Price),
			})
		}
		items = append(items, order)
	}
	return items, failed
}

func parseMoney(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return value
}

func (s *ImportService) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}
