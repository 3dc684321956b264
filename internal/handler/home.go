package handler

import (
	"net/http"

	"github.com/templui/feedbackdesk/internal/ui"
	"github.com/templui/feedbackdesk/internal/ui/pages"
)

type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

func (h *HomeHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, defaultLanding, http.StatusFound)
}

// Ping is a liveness check for authenticated support staff.
func (h *HomeHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("core ok"))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}
