package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopsync/internal/repository"
	"shopsync/internal/service"
	synctrack "shopsync/internal/sync"
)

// SyncHandler exposes import orchestration, run inspection and range/checkpoint
// management for a store.
type SyncHandler struct {
	Repo        repository.Repository
	Importer    *service.ImportService
	Tracker     *synctrack.ProgressTracker
	Checkpoints *synctrack.CheckpointStore
	Ranges      *synctrack.RangeResolver
	Logger      *zap.Logger
}

func (h *SyncHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/sync")
	g.POST("/stores/:storeId/:dataType/run", h.runSync)
	g.GET("/stores/:storeId/:dataType/status", h.status)
	g.GET("/stores/:storeId/history", h.history)
	g.GET("/stores/:storeId/statistics", h.statistics)
	g.GET("/active", h.active)
	g.GET("/runs/:id/details", h.runDetails)
	g.GET("/runs/:id/eta", h.runETA)

	g.GET("/stores/:storeId/:dataType/range", h.getRange)
	g.PUT("/stores/:storeId/:dataType/range", h.updateRange)
	g.DELETE("/stores/:storeId/:dataType/range", h.resetRange)

	g.GET("/stores/:storeId/:dataType/checkpoint", h.getCheckpoint)
	g.DELETE("/stores/:storeId/:dataType/checkpoint", h.clearCheckpoint)
	g.POST("/stores/:storeId/:dataType/checkpoint/invalidate", h.invalidateCheckpoint)
}

type runSyncRequest struct {
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	MaxYearsBack    int        `json:"max_years_back"`
	IncludeArchived bool       `json:"include_archived"`
	Force           bool       `json:"force"`
}

func (h *SyncHandler) runSync(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	var req runSyncRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
			return
		}
	}
	store, err := h.Repo.GetStoreByID(c.Request.Context(), storeID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if store == nil {
		Error(c, http.StatusNotFound, "store not found", nil)
		return
	}
	opts := &synctrack.SyncOptions{
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		MaxYearsBack:    req.MaxYearsBack,
		IncludeArchived: req.IncludeArchived,
	}
	result, err := h.Importer.Run(c.Request.Context(), *store, dataType, opts, req.Force)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("sync trigger failed",
				zap.Int64("store_id", storeID),
				zap.String("data_type", dataType),
				zap.Error(err))
		}
		if errors.Is(err, synctrack.ErrCheckpointConflict) {
			Error(c, http.StatusConflict, err.Error(), nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Created(c, result)
}

func (h *SyncHandler) status(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	run, err := h.Tracker.GetCurrentSyncState(c.Request.Context(), storeID, dataType)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, run, map[string]any{"in_progress": run != nil})
}

func (h *SyncHandler) active(c *gin.Context) {
	var storeID *int64
	if raw := c.Query("store_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid store_id", nil)
			return
		}
		storeID = &id
	}
	runs, err := h.Tracker.GetActiveSyncs(c.Request.Context(), storeID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, runs, map[string]any{"count": len(runs)})
}

func (h *SyncHandler) history(c *gin.Context) {
	storeID, ok := h.storeParam(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.Tracker.GetSyncHistory(c.Request.Context(), storeID, c.Query("type"), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, rows, map[string]any{"count": len(rows)})
}

func (h *SyncHandler) statistics(c *gin.Context) {
	storeID, ok := h.storeParam(c)
	if !ok {
		return
	}
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "since must be RFC3339", nil)
			return
		}
		since = &t
	}
	stats, err := h.Tracker.GetSyncStatistics(c.Request.Context(), storeID, since)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, stats, nil)
}

func (h *SyncHandler) runDetails(c *gin.Context) {
	runID, ok := h.runParam(c)
	if !ok {
		return
	}
	if !h.runExists(c, runID) {
		return
	}
	details, err := h.Tracker.GetProgressDetails(c.Request.Context(), runID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, details, map[string]any{"count": len(details)})
}

func (h *SyncHandler) runETA(c *gin.Context) {
	runID, ok := h.runParam(c)
	if !ok {
		return
	}
	if !h.runExists(c, runID) {
		return
	}
	eta, err := h.Tracker.EstimateRemainingTime(c.Request.Context(), runID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if eta == nil {
		Ok(c, gin.H{"available": false}, nil)
		return
	}
	Ok(c, gin.H{
		"available":         true,
		"remaining_seconds": int64(eta.Seconds()),
	}, nil)
}

func (h *SyncHandler) getRange(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	setting, err := h.Ranges.ActiveSetting(c.Request.Context(), storeID, dataType)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if setting == nil {
		recommended := synctrack.RecommendedRange(dataType)
		Ok(c, gin.H{
			"active":     false,
			"start_date": recommended.Start,
			"end_date":   recommended.End,
		}, map[string]any{"source": "recommended"})
		return
	}
	Ok(c, setting, map[string]any{"source": "setting"})
}

type updateRangeRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (h *SyncHandler) updateRange(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	var req updateRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	if err := h.Ranges.UpdateRange(c.Request.Context(), storeID, dataType, req.StartDate, req.EndDate); err != nil {
		if errors.Is(err, synctrack.ErrNoActiveRange) {
			Error(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"updated": true}, nil)
}

func (h *SyncHandler) resetRange(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	if err := h.Ranges.ResetRange(c.Request.Context(), storeID, dataType); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"reset": true}, nil)
}

func (h *SyncHandler) getCheckpoint(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	valid, err := h.Checkpoints.HasValidCheckpoint(c.Request.Context(), storeID, dataType)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if !valid {
		Ok(c, gin.H{"resumable": false}, nil)
		return
	}
	info := h.Checkpoints.GetResumeInfo(c.Request.Context(), storeID, dataType)
	Ok(c, gin.H{
		"resumable":         info != nil,
		"last_cursor":       cursorOf(info),
		"records_processed": processedOf(info),
	}, nil)
}

func (h *SyncHandler) clearCheckpoint(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	h.Checkpoints.Clear(c.Request.Context(), storeID, dataType)
	Ok(c, gin.H{"cleared": true}, nil)
}

func (h *SyncHandler) invalidateCheckpoint(c *gin.Context) {
	storeID, dataType, ok := h.pairParams(c)
	if !ok {
		return
	}
	h.Checkpoints.Invalidate(c.Request.Context(), storeID, dataType)
	Ok(c, gin.H{"invalidated": true}, nil)
}

func (h *SyncHandler) storeParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("storeId"), 10, 64)
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, "invalid store id", nil)
		return 0, false
	}
	return id, true
}

func (h *SyncHandler) pairParams(c *gin.Context) (int64, string, bool) {
	id, ok := h.storeParam(c)
	if !ok {
		return 0, "", false
	}
	dataType := c.Param("dataType")
	switch dataType {
	case synctrack.DataTypeProducts, synctrack.DataTypeCustomers, synctrack.DataTypeOrders:
		return id, dataType, true
	default:
		Error(c, http.StatusBadRequest, "unknown data type: "+dataType, nil)
		return 0, "", false
	}
}

// runExists answers 404 for run ids that never existed, so callers can tell a
// bad id from a run with no details or estimate yet.
func (h *SyncHandler) runExists(c *gin.Context, runID uint64) bool {
	run, err := h.Repo.GetSyncRunByID(c.Request.Context(), runID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return false
	}
	if run == nil {
		Error(c, http.StatusNotFound, synctrack.ErrRunNotFound.Error(), nil)
		return false
	}
	return true
}

func (h *SyncHandler) runParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid run id", nil)
		return 0, false
	}
	return id, true
}

func cursorOf(info *synctrack.ResumeInfo) string {
	if info == nil {
		return ""
	}
	return info.LastCursor
}

func processedOf(info *synctrack.ResumeInfo) int {
	if info == nil {
		return 0
	}
	return info.RecordsProcessed
}
