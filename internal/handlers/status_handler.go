package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/cache"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/database"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/services"
)

// StatusHandler exposes the cache and scheduler state, read-only.
type StatusHandler struct {
	store     *cache.Store
	sched     services.SchedulerControl
	dbManager *database.Manager
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(store *cache.Store, sched services.SchedulerControl, dbManager *database.Manager) *StatusHandler {
	return &StatusHandler{store: store, sched: sched, dbManager: dbManager}
}

// GetStatus serves GET /api/v1/status with a CacheState summary: token
// count, data age, and scheduler/backoff state.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	stats := h.store.Snapshot()
	status := h.sched.Status()

	var dataAge string
	if !status.LastSuccessfulFetch.IsZero() {
		dataAge = time.Since(status.LastSuccessfulFetch).Round(time.Second).String()
	}

	c.JSON(http.StatusOK, gin.H{
		"cache": gin.H{
			"token_count":  stats.TokenCount,
			"oldest_entry": stats.OldestEntry,
			"newest_entry": stats.NewestEntry,
			"data_age":     dataAge,
		},
		"scheduler": status,
	})
}

// Health serves GET /health for liveness checks.
func (h *StatusHandler) Health(c *gin.Context) {
	db := "up"
	statusCode := http.StatusOK
	if err := h.dbManager.Ping(); err != nil {
		db = "down"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":   "ok",
		"database": db,
	})
}
