package synctrack

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

const defaultCheckpointExpiration = 7 * 24 * time.Hour

// CheckpointStore persists resume markers for chunked syncs. Every mutating
// operation except a version conflict is best-effort: a lost checkpoint only
// costs resumability, while aborting a running sync over one would cost data.
type CheckpointStore struct {
	Repo   repository.Repository
	Logger *zap.Logger
	// Expiration overrides the 7-day checkpoint lifetime when positive.
	Expiration time.Duration

	mu sync.Mutex
	// last version this process wrote per store+type; used to detect a second
	// writer violating the single-active-worker assumption.
	lastSaved map[string]int64
}

// Save upserts the checkpoint for (storeID, dataType) and refreshes its
// expiration. Storage errors are logged and absorbed; the only surfaced
// failure is ErrCheckpointConflict when another writer advanced the row.
func (s *CheckpointStore) Save(ctx context.Context, storeID int64, dataType, cursor string, recordsProcessed int, window DateRange) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	current, err := s.Repo.GetCheckpoint(ctx, storeID, dataType)
	if err != nil {
		s.log().Error("checkpoint load failed",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Error(err))
		return nil
	}

	key := pairKey(storeID, dataType)
	s.mu.Lock()
	if s.lastSaved == nil {
		s.lastSaved = map[string]int64{}
	}
	last, tracked := s.lastSaved[key]
	if current == nil {
		// Row was cleared since our last save; start a fresh lineage.
		delete(s.lastSaved, key)
		tracked = false
	}
	s.mu.Unlock()
	if tracked && current != nil && current.Version != last {
		s.log().Warn("checkpoint advanced by another writer",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Int64("expected_version", last),
			zap.Int64("found_version", current.Version))
		return ErrCheckpointConflict
	}

	now := time.Now().UTC()
	version := int64(1)
	if current != nil {
		version = current.Version + 1
	}
	expiresAt := now.Add(s.expiration())
	item := &models.SyncCheckpoint{
		StoreID:          storeID,
		DataType:         dataType,
		LastCursor:       cursor,
		RecordsProcessed: recordsProcessed,
		LastProcessedAt:  &now,
		WindowStart:      &window.Start,
		WindowEnd:        &window.End,
		CanResume:        true,
		Version:          version,
		ExpiresAt:        &expiresAt,
		UpdatedAt:        now,
	}
	if err := s.Repo.SaveCheckpoint(ctx, item); err != nil {
		s.log().Error("checkpoint save failed",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Error(err))
		return nil
	}
	s.mu.Lock()
	s.lastSaved[key] = version
	s.mu.Unlock()
	s.log().Debug("checkpoint saved",
		zap.Int64("store_id", storeID),
		zap.String("data_type", dataType),
		zap.Int("records", recordsProcessed))
	return nil
}

// GetResumeInfo returns resume data when a live, resumable checkpoint exists,
// nil otherwise. Storage failures degrade to "no resume point".
func (s *CheckpointStore) GetResumeInfo(ctx context.Context, storeID int64, dataType string) *ResumeInfo {
	if s == nil || s.Repo == nil {
		return nil
	}
	item, err := s.Repo.GetResumableCheckpoint(ctx, storeID, dataType, time.Now().UTC())
	if err != nil {
		s.log().Error("checkpoint lookup failed",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Error(err))
		return nil
	}
	if item == nil {
		s.log().Info("no valid checkpoint",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType))
		return nil
	}
	s.log().Info("resuming from checkpoint",
		zap.Int64("store_id", storeID),
		zap.String("data_type", dataType),
		zap.Int("records", item.RecordsProcessed))
	return &ResumeInfo{
		LastCursor:       item.LastCursor,
		RecordsProcessed: item.RecordsProcessed,
		LastProcessedAt:  item.LastProcessedAt,
	}
}

// Clear removes all checkpoint rows for the pair, typically after a fully
// successful sync.
func (s *CheckpointStore) Clear(ctx context.Context, storeID int64, dataType string) {
	if s == nil || s.Repo == nil {
		return
	}
	n, err := s.Repo.DeleteCheckpoints(ctx, storeID, dataType)
	if err != nil {
		s.log().Error("checkpoint clear failed",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Error(err))
		return
	}
	s.mu.Lock()
	delete(s.lastSaved, pairKey(storeID, dataType))
	s.mu.Unlock()
	if n > 0 {
		s.log().Info("checkpoint cleared",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType))
	}
}

// Invalidate keeps the row for audit but blocks future resumption.
func (s *CheckpointStore) Invalidate(ctx context.Context, storeID int64, dataType string) {
	if s == nil || s.Repo == nil {
		return
	}
	if err := s.Repo.InvalidateCheckpoint(ctx, storeID, dataType, time.Now().UTC()); err != nil {
		s.log().Error("checkpoint invalidate failed",
			zap.Int64("store_id", storeID),
			zap.String("data_type", dataType),
			zap.Error(err))
		return
	}
	s.log().Info("checkpoint invalidated",
		zap.Int64("store_id", storeID),
		zap.String("data_type", dataType))
}

// CleanupExpired deletes every checkpoint past its expiration. Invoked by the
// scheduler.
func (s *CheckpointStore) CleanupExpired(ctx context.Context) {
	if s == nil || s.Repo == nil {
		return
	}
	n, err := s.Repo.DeleteExpiredCheckpoints(ctx, time.Now().UTC())
	if err != nil {
		s.log().Error("expired checkpoint cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log().Info("deleted expired checkpoints", zap.Int64("count", n))
	}
}

// HasValidCheckpoint reports whether a live, resumable checkpoint exists.
// Unlike the mutating operations it propagates storage errors, since callers
// use it to decide between a fresh and a resumed sync.
func (s *CheckpointStore) HasValidCheckpoint(ctx context.Context, storeID int64, dataType string) (bool, error) {
	if s == nil || s.Repo == nil {
		return false, nil
	}
	return s.Repo.HasValidCheckpoint(ctx, storeID, dataType, time.Now().UTC())
}

func (s *CheckpointStore) expiration() time.Duration {
	if s.Expiration > 0 {
		return s.Expiration
	}
	return defaultCheckpointExpiration
}

func (s *CheckpointStore) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func pairKey(storeID int64, dataType string) string {
	return fmt.Sprintf("%d-%s", storeID, dataType)
}
