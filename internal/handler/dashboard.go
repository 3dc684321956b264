package handler

import (
	"net/http"

	"github.com/templui/feedbackdesk/internal/report"
	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/ui"
	"github.com/templui/feedbackdesk/internal/ui/pages"
)

type DashboardHandler struct {
	reportService *service.ReportService
}

func NewDashboardHandler(reportService *service.ReportService) *DashboardHandler {
	return &DashboardHandler{
		reportService: reportService,
	}
}

// DashboardPage renders the shell; the numbers are fetched from the stats endpoints.
func (h *DashboardHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ui.Render(w, r, pages.Dashboard(pages.DashboardData{
		Month:  h.reportService.Month(q.Get("month")),
		Filter: report.CompileFilter(q, h.reportService.Location()),
	}))
}
