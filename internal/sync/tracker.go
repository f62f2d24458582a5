package synctrack

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

const defaultStatisticsWindow = 30 * 24 * time.Hour

var oneHundred = decimal.NewFromInt(100)

// ProgressTracker owns the lifecycle of sync runs: it opens them, accepts
// progress updates, closes them, sweeps stalled ones, and aggregates history.
// The active-run index is per-instance state, so independent trackers (and
// tests) never share it.
type ProgressTracker struct {
	Repo   repository.Repository
	Logger *zap.Logger

	mu sync.Mutex
	// active maps storeID-syncType to the run currently in progress. The lock
	// covers only map mutation, never the surrounding persistence calls.
	active map[string]uint64
}

// StartSync opens a run and registers it in the active index. A run that
// cannot be durably recorded must not proceed, so persistence errors
// propagate.
func (t *ProgressTracker) StartSync(ctx context.Context, storeID int64, syncType string, window DateRange, totalRecords int) (uint64, error) {
	if t == nil || t.Repo == nil {
		return 0, fmt.Errorf("progress tracker not configured")
	}
	now := time.Now().UTC()
	run := &models.SyncRun{
		StoreID:        storeID,
		SyncType:       syncType,
		Status:         models.RunStatusInProgress,
		StartedAt:      now,
		TotalRecords:   totalRecords,
		LastActivityAt: now,
		WindowStart:    &window.Start,
		WindowEnd:      &window.End,
	}
	if err := t.Repo.CreateSyncRun(ctx, run); err != nil {
		t.log().Error("start sync failed",
			zap.Int64("store_id", storeID),
			zap.String("sync_type", syncType),
			zap.Error(err))
		return 0, fmt.Errorf("create sync run: %w", err)
	}

	t.mu.Lock()
	if t.active == nil {
		t.active = map[string]uint64{}
	}
	t.active[pairKey(storeID, syncType)] = run.ID
	t.mu.Unlock()

	t.log().Info("sync started",
		zap.Int64("store_id", storeID),
		zap.String("sync_type", syncType),
		zap.Uint64("run_id", run.ID))
	return run.ID, nil
}

// UpdateProgress records the absolute processed count for a run, refreshes
// its activity timestamp, and optionally appends a batch log row. Advisory:
// a missing run or a failed write is logged, never surfaced, so a late or
// duplicate update cannot crash the sync loop.
func (t *ProgressTracker) UpdateProgress(ctx context.Context, runID uint64, processedCount int, failedCount *int, batchIdentifier string) {
	if t == nil || t.Repo == nil {
		return
	}
	run, err := t.Repo.GetSyncRunByID(ctx, runID)
	if err != nil {
		t.log().Error("progress update load failed", zap.Uint64("run_id", runID), zap.Error(err))
		return
	}
	if run == nil {
		t.log().Warn("sync run not found", zap.Uint64("run_id", runID))
		return
	}
	if run.Status != models.RunStatusInProgress {
		// Terminal states never regress to in-progress bookkeeping.
		t.log().Warn("progress update on terminal run",
			zap.Uint64("run_id", runID),
			zap.String("status", run.Status))
		return
	}

	now := time.Now().UTC()
	run.ProcessedRecords = processedCount
	if failedCount != nil {
		run.FailedRecords = *failedCount
	}
	run.LastActivityAt = now
	if run.TotalRecords > 0 {
		run.ProgressPercentage = decimal.NewFromInt(int64(run.ProcessedRecords)).
			Div(decimal.NewFromInt(int64(run.TotalRecords))).
			Mul(oneHundred)
	}
	if err := t.Repo.UpdateSyncRun(ctx, run); err != nil {
		t.log().Error("progress update failed", zap.Uint64("run_id", runID), zap.Error(err))
		return
	}

	if batchIdentifier != "" {
		stats, _ := json.Marshal(map[string]any{
			"processed": run.ProcessedRecords,
			"failed":    run.FailedRecords,
		})
		detail := &models.SyncRunDetail{
			RunID:           runID,
			BatchIdentifier: batchIdentifier,
			RecordsInBatch:  processedCount,
			ProcessedAt:     now,
			Status:          "Processing",
			Stats:           stats,
		}
		if err := t.Repo.InsertSyncRunDetail(ctx, detail); err != nil {
			t.log().Error("batch detail insert failed", zap.Uint64("run_id", runID), zap.Error(err))
		}
	}

	t.log().Debug("progress updated",
		zap.Uint64("run_id", runID),
		zap.Int("processed", processedCount))
}

// CompleteSync moves a run to its terminal state, mirrors it into history,
// and drops it from the active index. The run's fate must be durably
// recorded, so persistence errors propagate.
func (t *ProgressTracker) CompleteSync(ctx context.Context, runID uint64, success bool, errorMessage string) error {
	if t == nil || t.Repo == nil {
		return fmt.Errorf("progress tracker not configured")
	}
	run, err := t.Repo.GetSyncRunByID(ctx, runID)
	if err != nil {
		t.log().Error("complete sync load failed", zap.Uint64("run_id", runID), zap.Error(err))
		return fmt.Errorf("load sync run: %w", err)
	}
	if run == nil {
		t.log().Warn("sync run not found", zap.Uint64("run_id", runID))
		return nil
	}
	if run.Status != models.RunStatusInProgress {
		t.log().Warn("complete on terminal run",
			zap.Uint64("run_id", runID),
			zap.String("status", run.Status))
		return nil
	}

	now := time.Now().UTC()
	if success {
		run.Status = models.RunStatusCompleted
		run.ProgressPercentage = oneHundred
	} else {
		run.Status = models.RunStatusFailed
	}
	run.CompletedAt = &now
	run.ErrorMessage = errorMessage

	if err := t.Repo.UpdateSyncRun(ctx, run); err != nil {
		t.log().Error("complete sync failed", zap.Uint64("run_id", runID), zap.Error(err))
		return fmt.Errorf("update sync run: %w", err)
	}
	if err := t.Repo.InsertSyncRunHistory(ctx, historyFromRun(run, now)); err != nil {
		t.log().Error("history insert failed", zap.Uint64("run_id", runID), zap.Error(err))
		return fmt.Errorf("insert run history: %w", err)
	}

	t.mu.Lock()
	delete(t.active, pairKey(run.StoreID, run.SyncType))
	t.mu.Unlock()

	t.log().Info("sync completed",
		zap.Uint64("run_id", runID),
		zap.Bool("success", success),
		zap.Int("processed", run.ProcessedRecords))
	return nil
}

// GetCurrentSyncState returns the most recent in-progress run for the pair,
// or nil when none is running.
func (t *ProgressTracker) GetCurrentSyncState(ctx context.Context, storeID int64, syncType string) (*models.SyncRun, error) {
	if t == nil || t.Repo == nil {
		return nil, nil
	}
	return t.Repo.GetCurrentSyncRun(ctx, storeID, syncType)
}

// GetActiveSyncs lists all in-progress runs, oldest first.
func (t *ProgressTracker) GetActiveSyncs(ctx context.Context, storeID *int64) ([]models.SyncRun, error) {
	if t == nil || t.Repo == nil {
		return nil, nil
	}
	return t.Repo.ListActiveSyncRuns(ctx, storeID)
}

// GetSyncHistory returns terminal runs most-recent-first. An empty syncType
// matches all types.
func (t *ProgressTracker) GetSyncHistory(ctx context.Context, storeID int64, syncType string, limit int) ([]models.SyncRunHistory, error) {
	if t == nil || t.Repo == nil {
		return nil, nil
	}
	params := repository.ListSyncHistoryParams{StoreID: storeID, Limit: limit}
	if syncType != "" {
		params.SyncType = &syncType
	}
	return t.Repo.ListSyncRunHistory(ctx, params)
}

// GetProgressDetails returns the chronological batch log for a run.
func (t *ProgressTracker) GetProgressDetails(ctx context.Context, runID uint64) ([]models.SyncRunDetail, error) {
	if t == nil || t.Repo == nil {
		return nil, nil
	}
	return t.Repo.ListSyncRunDetails(ctx, runID)
}

// CleanupTimedOutSyncs reclassifies in-progress runs with no activity since
// now-timeout as TimedOut and evicts their index entries. Maintenance sweep:
// failures are logged only.
func (t *ProgressTracker) CleanupTimedOutSyncs(ctx context.Context, timeout time.Duration) {
	if t == nil || t.Repo == nil {
		return
	}
	now := time.Now().UTC()
	cutoff := now.Add(-timeout)
	runs, err := t.Repo.ListStalledSyncRuns(ctx, cutoff)
	if err != nil {
		t.log().Error("stalled run scan failed", zap.Error(err))
		return
	}
	if len(runs) == 0 {
		return
	}

	for i := range runs {
		run := &runs[i]
		run.Status = models.RunStatusTimedOut
		completedAt := now
		run.CompletedAt = &completedAt
		run.ErrorMessage = fmt.Sprintf("sync timed out (last activity: %s UTC)",
			run.LastActivityAt.UTC().Format("2006-01-02 15:04:05"))
		t.log().Warn("sync timed out",
			zap.Uint64("run_id", run.ID),
			zap.Int64("store_id", run.StoreID),
			zap.String("sync_type", run.SyncType))
	}
	if err := t.Repo.UpdateSyncRuns(ctx, runs); err != nil {
		t.log().Error("timed out run persist failed", zap.Error(err))
		return
	}
	for i := range runs {
		if err := t.Repo.InsertSyncRunHistory(ctx, historyFromRun(&runs[i], now)); err != nil {
			t.log().Error("timed out history insert failed",
				zap.Uint64("run_id", runs[i].ID), zap.Error(err))
		}
	}

	t.mu.Lock()
	for i := range runs {
		key := pairKey(runs[i].StoreID, runs[i].SyncType)
		if t.active[key] == runs[i].ID {
			delete(t.active, key)
		}
	}
	t.mu.Unlock()
}

// EstimateRemainingTime extrapolates linearly from the run's average pace.
// Returns nil when no records have been processed yet (undefined rate) and
// zero when nothing remains. The read races benignly with concurrent updates.
func (t *ProgressTracker) EstimateRemainingTime(ctx context.Context, runID uint64) (*time.Duration, error) {
	if t == nil || t.Repo == nil {
		return nil, nil
	}
	run, err := t.Repo.GetSyncRunByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil || run.ProcessedRecords == 0 {
		return nil, nil
	}
	remaining := run.TotalRecords - run.ProcessedRecords
	if remaining <= 0 {
		zero := time.Duration(0)
		return &zero, nil
	}
	elapsed := time.Now().UTC().Sub(run.StartedAt)
	perRecord := elapsed.Seconds() / float64(run.ProcessedRecords)
	estimate := time.Duration(perRecord * float64(remaining) * float64(time.Second))
	return &estimate, nil
}

// GetSyncStatistics aggregates run history for a store since the given time
// (default: last 30 days).
func (t *ProgressTracker) GetSyncStatistics(ctx context.Context, storeID int64, since *time.Time) (Statistics, error) {
	if t == nil || t.Repo == nil {
		return Statistics{}, fmt.Errorf("progress tracker not configured")
	}
	now := time.Now().UTC()
	sinceAt := now.Add(-defaultStatisticsWindow)
	if since != nil && !since.IsZero() {
		sinceAt = since.UTC()
	}
	rows, err := t.Repo.ListSyncRunHistorySince(ctx, storeID, sinceAt)
	if err != nil {
		return Statistics{}, fmt.Errorf("load run history: %w", err)
	}

	stats := Statistics{
		StoreID:     storeID,
		PeriodStart: sinceAt,
		PeriodEnd:   now,
		TotalSyncs:  len(rows),
	}
	var durationSum time.Duration
	var durationCount int
	for _, row := range rows {
		if row.Success {
			stats.SuccessfulSyncs++
		} else {
			stats.FailedSyncs++
		}
		stats.TotalRecordsProcessed += row.ProcessedRecords
		stats.TotalRecordsFailed += row.FailedRecords
		if row.CompletedAt.After(row.StartedAt) {
			durationSum += row.CompletedAt.Sub(row.StartedAt)
			durationCount++
		}
	}
	if durationCount > 0 {
		stats.AverageDuration = durationSum / time.Duration(durationCount)
	}
	if stats.TotalSyncs > 0 {
		stats.SuccessRate = decimal.NewFromInt(int64(stats.SuccessfulSyncs)).
			Div(decimal.NewFromInt(int64(stats.TotalSyncs))).
			Mul(oneHundred)
	}
	return stats, nil
}

// ActiveRunID reports the in-memory index entry for a pair, if any.
func (t *ProgressTracker) ActiveRunID(storeID int64, syncType string) (uint64, bool) {
	if t == nil {
		return 0, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.active[pairKey(storeID, syncType)]
	return id, ok
}

func historyFromRun(run *models.SyncRun, completedAt time.Time) *models.SyncRunHistory {
	if run.CompletedAt != nil {
		completedAt = *run.CompletedAt
	}
	return &models.SyncRunHistory{
		RunID:            run.ID,
		StoreID:          run.StoreID,
		SyncType:         run.SyncType,
		Status:           run.Status,
		StartedAt:        run.StartedAt,
		CompletedAt:      completedAt,
		TotalRecords:     run.TotalRecords,
		ProcessedRecords: run.ProcessedRecords,
		FailedRecords:    run.FailedRecords,
		Success:          run.Status == models.RunStatusCompleted,
		WindowStart:      run.WindowStart,
		WindowEnd:        run.WindowEnd,
		ErrorMessage:     run.ErrorMessage,
	}
}

func (t *ProgressTracker) log() *zap.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return zap.NewNop()
}
