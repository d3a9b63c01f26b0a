package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/internal/infrastructure/monitor"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	tracker *tracker.Tracker
}

func NewHealthHandler(mon *monitor.Monitor, tr *tracker.Tracker, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		tracker:     tr,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	_, cancel := h.requestContext(ctx)
	defer cancel()

	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"store":     status,
		"tracker": map[string]int{
			"tasks":    h.tracker.NumTasks(),
			"projects": len(h.tracker.ProjectNames()),
		},
	}

	if status.Store {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "store unreachable", nil, payload))
}
