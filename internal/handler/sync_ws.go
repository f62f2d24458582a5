package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

const liveFeedInterval = 2 * time.Second

// SyncLiveHandler streams run progress snapshots to dashboard clients over a
// websocket. The feed closes once the run reaches a terminal status.
type SyncLiveHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (h *SyncLiveHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/sync/runs/:id/live", h.live)
}

type liveSnapshot struct {
	RunID              uint64 `json:"run_id"`
	Status             string `json:"status"`
	ProcessedRecords   int    `json:"processed_records"`
	FailedRecords      int    `json:"failed_records"`
	TotalRecords       int    `json:"total_records"`
	ProgressPercentage string `json:"progress_percentage"`
	ErrorMessage       string `json:"error_message,omitempty"`
}

func (h *SyncLiveHandler) live(c *gin.Context) {
	runID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || runID == 0 {
		Error(c, http.StatusBadRequest, "invalid run id", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "feed closed")

	ctx := c.Request.Context()
	ticker := time.NewTicker(liveFeedInterval)
	defer ticker.Stop()

	for {
		run, err := h.Repo.GetSyncRunByID(ctx, runID)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("live feed lookup failed", zap.Uint64("run_id", runID), zap.Error(err))
			}
			conn.Close(websocket.StatusInternalError, "lookup failed")
			return
		}
		if run == nil {
			conn.Close(websocket.StatusPolicyViolation, "run not found")
			return
		}
		if err := h.push(ctx, conn, run); err != nil {
			return
		}
		if run.Status != models.RunStatusInProgress {
			conn.Close(websocket.StatusNormalClosure, "run finished")
			return
		}
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "client gone")
			return
		case <-ticker.C:
		}
	}
}

func (h *SyncLiveHandler) push(ctx context.Context, conn *websocket.Conn, run *models.SyncRun) error {
	snap := liveSnapshot{
		RunID:              run.ID,
		Status:             run.Status,
		ProcessedRecords:   run.ProcessedRecords,
		FailedRecords:      run.FailedRecords,
		TotalRecords:       run.TotalRecords,
		ProgressPercentage: run.ProgressPercentage.String(),
		ErrorMessage:       run.ErrorMessage,
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}
