package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/internal/notify"
	"github.com/tasknest/backend/pkg/httpcontext"
)

// AlertsHandler serves the in-app reminder channel: clients poll it and show
// whatever is pending. Fetching drains the queue, so an alert is shown once.
type AlertsHandler struct {
	baseHandler
	alerts *notify.AlertChannel
}

func NewAlertsHandler(alerts *notify.AlertChannel, adapter *httpcontext.Adapter, logger *zap.Logger) *AlertsHandler {
	return &AlertsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		alerts:      alerts,
	}
}

// @Summary Fetch pending reminder alerts
// @Tags alerts
// @Router /api/v1/alerts [get]
func (h *AlertsHandler) GetAlerts(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	alerts, err := h.alerts.Pull(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, alerts)
}
