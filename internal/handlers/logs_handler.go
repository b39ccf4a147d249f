package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "github.com/16navigabraham/Paycrypt-margin-price-api/internal/errors"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/models"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// LogsHandler exposes the append-only audit trails, read-only.
type LogsHandler struct {
	db *gorm.DB
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(db *gorm.DB) *LogsHandler {
	return &LogsHandler{db: db}
}

// GetFetchLogs serves GET /api/v1/logs/fetches?limit=N with the most
// recent fetch attempts.
func (h *LogsHandler) GetFetchLogs(c *gin.Context) {
	limit := parseLimit(c, defaultLogLimit, maxLogLimit)

	var count int64
	if err := h.db.Model(&models.FetchLog{}).Count(&count).Error; err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	var entries []models.FetchLog
	if err := h.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   count,
		"entries": entries,
	})
}

// GetRequestMetrics serves GET /api/v1/logs/requests?limit=N with the most
// recent served-request audit rows.
func (h *LogsHandler) GetRequestMetrics(c *gin.Context) {
	limit := parseLimit(c, defaultLogLimit, maxLogLimit)

	var count int64
	if err := h.db.Model(&models.APICallMetric{}).Count(&count).Error; err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	var entries []models.APICallMetric
	if err := h.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   count,
		"entries": entries,
	})
}
