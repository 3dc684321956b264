package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/feedbackdesk/internal/report"
	"github.com/templui/feedbackdesk/internal/service"
)

type StatsHandler struct {
	reportService *service.ReportService
}

func NewStatsHandler(reportService *service.ReportService) *StatsHandler {
	return &StatsHandler{
		reportService: reportService,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode json", "error", err)
	}
}

// statsError maps a stats failure to its response.
func statsError(w http.ResponseWriter, err error, endpoint string) {
	if errors.Is(err, report.ErrInvalidMonth) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	slog.Error("failed to compute stats", "error", err, "endpoint", endpoint)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// params reads the month and the filters shared by the stats endpoints.
func (h *StatsHandler) params(r *http.Request) (string, report.Filter) {
	q := r.URL.Query()
	return q.Get("month"), report.CompileFilter(q, h.reportService.Location())
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	month, filter := h.params(r)

	summary, err := h.reportService.Summary(r.Context(), month, filter)
	if err != nil {
		statsError(w, err, "summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *StatsHandler) Breakdown(w http.ResponseWriter, r *http.Request) {
	month, filter := h.params(r)

	breakdown, err := h.reportService.Breakdown(r.Context(), month, filter)
	if err != nil {
		statsError(w, err, "breakdown")
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}

func (h *StatsHandler) Timeseries(w http.ResponseWriter, r *http.Request) {
	month, filter := h.params(r)

	series, err := h.reportService.Timeseries(r.Context(), month, filter)
	if err != nil {
		statsError(w, err, "timeseries")
		return
	}

	writeJSON(w, http.StatusOK, series)
}

func (h *StatsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	items, err := h.reportService.Recent(r.Context())
	if err != nil {
		statsError(w, err, "recent")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
