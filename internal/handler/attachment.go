package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/storage"
	"github.com/templui/feedbackdesk/internal/ui"
	"github.com/templui/feedbackdesk/internal/ui/pages"
)

type AttachmentHandler struct {
	attachmentService *service.AttachmentService
}

func NewAttachmentHandler(attachmentService *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
	}
}

// Download streams the stored bytes inline under the original filename.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}

	att, body, err := h.attachmentService.Open(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAttachmentNotFound) || errors.Is(err, storage.ErrObjectNotFound) {
			slog.Warn("attachment not found", "attachment_id", id, "error", err)
			ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
			return
		}
		slog.Error("failed to open attachment", "error", err, "attachment_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", service.ContentType(att))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": att.OriginalName}))

	_, err = io.Copy(w, body)
	if err != nil {
		slog.Warn("attachment download interrupted", "error", err, "attachment_id", id)
	}
}
