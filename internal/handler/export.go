package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/feedbackdesk/internal/export"
	"github.com/templui/feedbackdesk/internal/report"
	"github.com/templui/feedbackdesk/internal/service"
)

type ExportHandler struct {
	reportService *service.ReportService
}

func NewExportHandler(reportService *service.ReportService) *ExportHandler {
	return &ExportHandler{
		reportService: reportService,
	}
}

// sendFile writes a fully built export as an attachment download.
func sendFile(w http.ResponseWriter, contentType, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, err := buf.WriteTo(w)
	if err != nil {
		slog.Warn("export write interrupted", "error", err, "filename", filename)
	}
}

func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	filter := report.CompileFilter(r.URL.Query(), h.reportService.Location())

	rows, err := h.reportService.ExportRows(r.Context(), filter, export.CSVLimit)
	if err != nil {
		slog.Error("failed to export csv", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = export.WriteCSV(&buf, rows, h.reportService.Location())
	if err != nil {
		slog.Error("failed to encode csv", "error", err, "rows", len(rows))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendFile(w, export.ContentTypeCSV, "feedbacks.csv", &buf)
}

func (h *ExportHandler) XLSX(w http.ResponseWriter, r *http.Request) {
	filter := report.CompileFilter(r.URL.Query(), h.reportService.Location())

	rows, err := h.reportService.ExportRows(r.Context(), filter, export.XLSXLimit)
	if err != nil {
		slog.Error("failed to export xlsx", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = export.WriteXLSX(&buf, rows, h.reportService.Location())
	if err != nil {
		slog.Error("failed to encode xlsx", "error", err, "rows", len(rows))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendFile(w, export.ContentTypeXLSX, "feedbacks.xlsx", &buf)
}

// PDF is the monthly report. Its summary and detail ignore the list filters.
func (h *ExportHandler) PDF(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reportService.MonthReport(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		if errors.Is(err, report.ErrInvalidMonth) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("failed to build pdf report", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = export.WritePDF(&buf, rep, h.reportService.Location())
	if err != nil {
		slog.Error("failed to render pdf", "error", err, "month", rep.Month)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sendFile(w, export.ContentTypePDF, "feedbacks-"+rep.Month+".pdf", &buf)
}
