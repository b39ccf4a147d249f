package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/scheduler"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/testutil"
)

func newRefreshRouter(sched *stubScheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/refresh", NewRefreshHandler(sched).TriggerRefresh)
	return router
}

func TestTriggerRefresh_Triggered(t *testing.T) {
	sched := &stubScheduler{
		kick:   scheduler.KickTriggered,
		status: scheduler.Status{State: scheduler.StateIdle, NextAttempt: time.Now().Add(time.Minute)},
	}
	router := newRefreshRouter(sched)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	testutil.AssertNoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	if body.Status != scheduler.KickTriggered {
		t.Errorf("status = %q, want triggered", body.Status)
	}
}

func TestTriggerRefresh_NoOpOutcomes(t *testing.T) {
	for _, kick := range []string{scheduler.KickInProgress, scheduler.KickBackoff} {
		sched := &stubScheduler{
			kick:   kick,
			status: scheduler.Status{State: scheduler.StateBackoff, NextAttempt: time.Now().Add(time.Minute)},
		}
		router := newRefreshRouter(sched)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("kick %q: status = %d, want 200", kick, w.Code)
		}

		var body struct {
			Status    string           `json:"status"`
			Scheduler scheduler.Status `json:"scheduler"`
		}
		testutil.AssertNoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		if body.Status != kick {
			t.Errorf("status = %q, want %q", body.Status, kick)
		}
		if body.Scheduler.NextAttempt.IsZero() {
			t.Error("response must include the next attempt estimate")
		}
	}
}
