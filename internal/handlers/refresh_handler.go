package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/scheduler"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/services"
)

// RefreshHandler handles the manual refresh trigger.
type RefreshHandler struct {
	sched services.SchedulerControl
}

// NewRefreshHandler creates a new RefreshHandler.
func NewRefreshHandler(sched services.SchedulerControl) *RefreshHandler {
	return &RefreshHandler{sched: sched}
}

// TriggerRefresh serves POST /api/v1/refresh. The kick is idempotent with
// respect to an already-running fetch: it reports in-progress instead of
// double-firing, and reports the backoff deadline while backed off.
func (h *RefreshHandler) TriggerRefresh(c *gin.Context) {
	result := h.sched.Kick()
	status := h.sched.Status()

	code := http.StatusAccepted
	if result != scheduler.KickTriggered {
		code = http.StatusOK
	}

	c.JSON(code, gin.H{
		"status":    result,
		"scheduler": status,
	})
}
