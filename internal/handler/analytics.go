package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shopsync/internal/service"
)

type AnalyticsHandler struct {
	Service *service.AnalyticsService
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/analytics/stores/:storeId/summary", h.summary)
}

func (h *AnalyticsHandler) summary(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("storeId"), 10, 64)
	if err != nil || storeID <= 0 {
		Error(c, http.StatusBadRequest, "invalid store id", nil)
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	top, _ := strconv.Atoi(c.DefaultQuery("top", "10"))
	until := time.Now().UTC()
	since := until.AddDate(0, 0, -days)

	summary, err := h.Service.Summary(c.Request.Context(), storeID, since, until, top)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, summary, map[string]any{"window_days": days})
}
