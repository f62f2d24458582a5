package synctrack

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

// Lookback defaults by data type. New data types get a row here, not a branch.
var lookbackYearsByType = map[string]int{
	DataTypeProducts:  10,
	DataTypeCustomers: 3,
	DataTypeOrders:    1,
}

const defaultLookbackYears = 2

// RecommendedRange returns the default window for a data type, ending now.
func RecommendedRange(dataType string) DateRange {
	end := time.Now().UTC()
	return DateRange{Start: end.AddDate(-recommendedYears(dataType), 0, 0), End: end}
}

func recommendedYears(dataType string) int {
	if years, ok := lookbackYearsByType[dataType]; ok {
		return years
	}
	return defaultLookbackYears
}

// RangeResolver decides and pins the date window a sync series covers. Once a
// window is persisted, repeated runs get it back unchanged; shifting the
// window mid-series would make incremental progress meaningless.
type RangeResolver struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// DetermineRange returns the active window for (storeID, dataType), computing
// and persisting one from opts when none exists yet.
func (r *RangeResolver) DetermineRange(ctx context.Context, storeID int64, dataType string, opts *SyncOptions) (DateRange, error) {
	if r == nil || r.Repo == nil {
		return DateRange{}, fmt.Errorf("range resolver not configured")
	}
	existing, err := r.Repo.GetActiveRangeSetting(ctx, storeID, dataType)
	if err != nil {
		return DateRange{}, fmt.Errorf("load range setting: %w", err)
	}
	if existing != nil {
		r.log().Info("using existing sync range",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Time("start", existing.StartDate),
			zap.Time("end", existing.EndDate))
		return DateRange{Start: existing.StartDate, End: existing.EndDate}, nil
	}

	normalized := normalizeOptions(dataType, opts)
	end := time.Now().UTC()
	if normalized.EndDate != nil {
		end = normalized.EndDate.UTC()
	}
	start := end.AddDate(-normalized.MaxYearsBack, 0, 0)
	if normalized.StartDate != nil {
		start = normalized.StartDate.UTC()
	}
	if start.After(end) {
		start = end.AddDate(-recommendedYears(dataType), 0, 0)
	}

	setting := &models.SyncRangeSetting{
		StoreID:         storeID,
		DataType:        dataType,
		StartDate:       start,
		EndDate:         end,
		YearsBack:       normalized.MaxYearsBack,
		IncludeArchived: normalized.IncludeArchived,
		IsActive:        true,
	}
	if err := r.Repo.CreateRangeSetting(ctx, setting); err != nil {
		return DateRange{}, fmt.Errorf("save range setting: %w", err)
	}

	r.log().Info("determined new sync range",
		zap.Int64("store_id", storeID),
		zap.String("data_type", dataType),
		zap.Time("start", start),
		zap.Time("end", end))
	return DateRange{Start: start, End: end}, nil
}

// UpdateRange adjusts the bounds of the active setting in place. Only the
// supplied bounds change; the series lineage is kept.
func (r *RangeResolver) UpdateRange(ctx context.Context, storeID int64, dataType string, newStart, newEnd *time.Time) error {
	if r == nil || r.Repo == nil {
		return fmt.Errorf("range resolver not configured")
	}
	setting, err := r.Repo.GetActiveRangeSetting(ctx, storeID, dataType)
	if err != nil {
		return fmt.Errorf("load range setting: %w", err)
	}
	if setting == nil {
		r.log().Warn("no active sync range to update",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType))
		return ErrNoActiveRange
	}
	if newStart != nil {
		setting.StartDate = newStart.UTC()
	}
	if newEnd != nil {
		setting.EndDate = newEnd.UTC()
	}
	if setting.StartDate.After(setting.EndDate) {
		return fmt.Errorf("invalid range: start %s is after end %s",
			setting.StartDate.Format(time.RFC3339), setting.EndDate.Format(time.RFC3339))
	}
	setting.UpdatedAt = time.Now().UTC()
	if err := r.Repo.UpdateRangeSetting(ctx, setting); err != nil {
		return fmt.Errorf("update range setting: %w", err)
	}
	r.log().Info("sync range updated",
		zap.Int64("store_id", storeID),
		zap.String("data_type", dataType),
		zap.Time("start", setting.StartDate),
		zap.Time("end", setting.EndDate))
	return nil
}

// ResetRange deactivates every setting for the pair. Rows are kept for audit;
// the next DetermineRange call starts a new lineage.
func (r *RangeResolver) ResetRange(ctx context.Context, storeID int64, dataType string) error {
	if r == nil || r.Repo == nil {
		return fmt.Errorf("range resolver not configured")
	}
	if _, err := r.Repo.DeactivateRangeSettings(ctx, storeID, dataType); err != nil {
		return fmt.Errorf("reset range settings: %w", err)
	}
	r.log().Info("sync range reset",
		zap.Int64("store_id", storeID),
		zap.String("data_type", dataType))
	return nil
}

// ActiveSetting exposes the raw active row for reporting surfaces.
func (r *RangeResolver) ActiveSetting(ctx context.Context, storeID int64, dataType string) (*models.SyncRangeSetting, error) {
	if r == nil || r.Repo == nil {
		return nil, nil
	}
	return r.Repo.GetActiveRangeSetting(ctx, storeID, dataType)
}

// IsWithinRange reports whether date falls inside the active window. With no
// configured window everything is accepted.
func (r *RangeResolver) IsWithinRange(ctx context.Context, storeID int64, dataType string, date time.Time) (bool, error) {
	if r == nil || r.Repo == nil {
		return true, nil
	}
	setting, err := r.Repo.GetActiveRangeSetting(ctx, storeID, dataType)
	if err != nil {
		return false, err
	}
	if setting == nil {
		return true, nil
	}
	return !date.Before(setting.StartDate) && !date.After(setting.EndDate), nil
}

func normalizeOptions(dataType string, opts *SyncOptions) SyncOptions {
	var out SyncOptions
	if opts != nil {
		out = *opts
	}
	if out.MaxYearsBack <= 0 {
		out.MaxYearsBack = recommendedYears(dataType)
	}
	return out
}

func (r *RangeResolver) log() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}
