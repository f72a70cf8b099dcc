package http

import (
	"log/slog"
	"net/http"

	"github.com/ledgerline/spendtrack/internal/service"
	"github.com/ledgerline/spendtrack/pkg/httputil"
	"github.com/ledgerline/spendtrack/pkg/middleware"
)

// DashboardHandler handles HTTP requests for the dashboard endpoints.
type DashboardHandler struct {
	service *service.DashboardService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// Summary handles GET /api/dashboard/summary
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	q := r.URL.Query()
	summary, err := h.service.Summary(r.Context(), userID, q.Get("from"), q.Get("to"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}
