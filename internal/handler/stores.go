package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shopsync/internal/models"
	"shopsync/internal/repository"
)

type StoreHandler struct {
	Repo repository.Repository
}

func (h *StoreHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/stores")
	g.GET("", h.list)
	g.POST("", h.upsert)
	g.GET("/:id", h.get)
}

type upsertStoreRequest struct {
	Domain      string `json:"domain" binding:"required"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	Active      *bool  `json:"active"`
}

func (h *StoreHandler) list(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	stores, err := h.Repo.ListStores(c.Request.Context(), activeOnly)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, stores, map[string]any{"count": len(stores)})
}

func (h *StoreHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, "invalid store id", nil)
		return
	}
	store, err := h.Repo.GetStoreByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if store == nil {
		Error(c, http.StatusNotFound, "store not found", nil)
		return
	}
	Ok(c, store, nil)
}

func (h *StoreHandler) upsert(c *gin.Context) {
	var req upsertStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	item := &models.Store{
		Domain:      strings.ToLower(strings.TrimSpace(req.Domain)),
		Name:        req.Name,
		AccessToken: req.AccessToken,
		Active:      true,
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if err := h.Repo.UpsertStore(c.Request.Context(), item); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Created(c, item)
}
