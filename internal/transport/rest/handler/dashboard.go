package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"feedbackdesk/internal/service"
)

// DashboardHandler serves the aggregated view and the CSV export
type DashboardHandler struct {
	dashboardSvc *service.DashboardService
	exportSvc    *service.ExportService
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardSvc *service.DashboardService, exportSvc *service.ExportService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardSvc: dashboardSvc,
		exportSvc:    exportSvc,
		logger:       logger,
	}
}

// Get handles GET /v1/admin/dashboard?search=
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardSvc.Current(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// Refresh handles POST /v1/admin/dashboard/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboardSvc.Refresh(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgReloadPrompt, nil)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// Export handles GET /v1/admin/export.csv. The file is built in memory so a
// failure never leaves a truncated download.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	rows, err := h.exportSvc.WriteCSV(r.Context(), &buf)
	if err != nil {
		writeServiceError(w, h.logger, err, service.MsgActionFailed, nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", service.ExportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write interrupted", "rows", rows, "error", err)
		return
	}
	h.logger.Info("responses exported", "rows", rows)
}
