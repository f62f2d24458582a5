package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# shopsync

Store analytics backend with resumable data imports.

## Sync

- POST   /api/v1/sync/stores/:storeId/:dataType/run      trigger an import (body: start_date, end_date, max_years_back, include_archived, force)
- GET    /api/v1/sync/stores/:storeId/:dataType/status   current in-progress run
- GET    /api/v1/sync/stores/:storeId/history            terminal runs, most recent first
- GET    /api/v1/sync/stores/:storeId/statistics         aggregates over the last 30 days
- GET    /api/v1/sync/active                             all in-progress runs
- GET    /api/v1/sync/runs/:id/details                   per-batch log
- GET    /api/v1/sync/runs/:id/eta                       estimated remaining time
- GET    /api/v1/sync/runs/:id/live                      websocket progress feed

## Ranges & checkpoints

- GET/PUT/DELETE /api/v1/sync/stores/:storeId/:dataType/range
- GET/DELETE     /api/v1/sync/stores/:storeId/:dataType/checkpoint
- POST           /api/v1/sync/stores/:storeId/:dataType/checkpoint/invalidate

## Dashboard

- GET /api/v1/analytics/stores/:storeId/summary?days=30&top=10
- GET/POST /api/v1/stores

Data types: products, customers, orders.
`)
	})
}
