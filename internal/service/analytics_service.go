package service

import (
	"context"
	"fmt"
	"time"

	"shopsync/internal/repository"
)

// AnalyticsService serves the dashboard's read side: catalog counts, revenue
// summaries and customer activity over a period.
type AnalyticsService struct {
	Repo repository.Repository
}

type DashboardSummary struct {
	StoreID     int64     `json:"store_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	ProductCount  int64 `json:"product_count"`
	CustomerCount int64 `json:"customer_count"`
	OrderCount    int64 `json:"order_count"`

	Orders           repository.OrdersSummary   `json:"orders"`
	TopProducts      []repository.TopProductRow `json:"top_products"`
	DormantCustomers int64                      `json:"dormant_customers"`
}

const dormantMonths = 6

func (s *AnalyticsService) Summary(ctx context.Context, storeID int64, since, until time.Time, topLimit int) (DashboardSummary, error) {
	out := DashboardSummary{StoreID: storeID, PeriodStart: since, PeriodEnd: until}
	if s == nil || s.Repo == nil {
		return out, fmt.Errorf("analytics service not configured")
	}

	var err error
	if out.ProductCount, err = s.Repo.CountProducts(ctx, storeID); err != nil {
		return out, err
	}
	if out.CustomerCount, err = s.Repo.CountCustomers(ctx, storeID); err != nil {
		return out, err
	}
	if out.OrderCount, err = s.Repo.CountOrders(ctx, storeID); err != nil {
		return out, err
	}
	if out.Orders, err = s.Repo.OrdersSummary(ctx, storeID, since, until); err != nil {
		return out, err
	}
	if out.TopProducts, err = s.Repo.TopProducts(ctx, storeID, since, until, topLimit); err != nil {
		return out, err
	}
	dormantCutoff := time.Now().UTC().AddDate(0, -dormantMonths, 0)
	if out.DormantCustomers, err = s.Repo.DormantCustomerCount(ctx, storeID, dormantCutoff); err != nil {
		return out, err
	}
	return out, nil
}
