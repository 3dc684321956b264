package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/templui/feedbackdesk/internal/ctxkeys"
	"github.com/templui/feedbackdesk/internal/report"
	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/ui"
	"github.com/templui/feedbackdesk/internal/ui/pages"
)

// maxFormMemory is held in memory while parsing uploads; larger parts spill to disk.
const maxFormMemory = 32 << 20

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	reportService   *service.ReportService
	maxAttachmentMB int
}

func NewFeedbackHandler(feedbackService *service.FeedbackService, reportService *service.ReportService, maxAttachmentMB int) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
		reportService:   reportService,
		maxAttachmentMB: maxAttachmentMB,
	}
}

// pageHref links to page n of the listing, keeping the filters.
func pageHref(filters string, n int) string {
	q := "page=" + strconv.Itoa(n)
	if filters != "" {
		q = filters + "&" + q
	}
	return "?" + q
}

func exportHref(path, filters string) string {
	if filters == "" {
		return path
	}
	return path + "?" + filters
}

func (h *FeedbackHandler) ListPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.CompileFilter(q, h.reportService.Location())

	result, err := h.reportService.List(r.Context(), filter, q.Get("page"))
	if err != nil {
		slog.Error("failed to list feedbacks", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	filters := filter.Values().Encode()
	ui.Render(w, r, pages.FeedbackList(pages.ListData{
		Filter:   filter,
		Rows:     result.Rows,
		Page:     result.Page,
		PrevHref: pageHref(filters, result.Page.Number-1),
		NextHref: pageHref(filters, result.Page.Number+1),
		CSVHref:  exportHref("/export/csv/", filters),
		XLSXHref: exportHref("/export/xlsx/", filters),
	}))
}

func (h *FeedbackHandler) NewPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	ui.Render(w, r, pages.FeedbackForm(pages.FormData{
		OperatorName: user.DisplayName(),
		CreatedID:    r.URL.Query().Get("created_id"),
		MaxMB:        h.maxAttachmentMB,
	}))
}

func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	form := pages.FormData{
		OperatorName: user.DisplayName(),
		StudentName:  r.FormValue(service.FieldStudentName),
		CourseName:   r.FormValue(service.FieldCourseName),
		ClassName:    r.FormValue(service.FieldClassName),
		Type:         r.FormValue(service.FieldType),
		Subject:      r.FormValue(service.FieldSubject),
		Description:  r.FormValue(service.FieldDescription),
		MaxMB:        h.maxAttachmentMB,
	}

	input := service.CreateFeedbackInput{
		StudentName: form.StudentName,
		CourseName:  form.CourseName,
		ClassName:   form.ClassName,
		Type:        form.Type,
		Subject:     form.Subject,
		Description: form.Description,
	}

	// FormValue already parsed urlencoded or multipart bodies
	if r.MultipartForm == nil {
		err := r.ParseMultipartForm(maxFormMemory)
		if err != nil && !errors.Is(err, http.ErrNotMultipart) {
			slog.Warn("failed to parse feedback form", "error", err)
			form.Errors = map[string]string{service.FieldAttachments: "não foi possível ler os anexos enviados"}
			ui.Render(w, r, pages.FeedbackForm(form))
			return
		}
	}
	if r.MultipartForm != nil {
		input.Attachments = r.MultipartForm.File[service.FieldAttachments]
	}

	fb, err := h.feedbackService.Create(r.Context(), input, user)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			form.Errors = verr.Fields
			ui.Render(w, r, pages.FeedbackForm(form))
			return
		}
		slog.Error("failed to create feedback", "error", err, "user_id", user.ID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/feedbacks/novo/?"+url.Values{"created_id": {strconv.FormatInt(fb.ID, 10)}}.Encode(), http.StatusSeeOther)
}

// feedbackID parses the {id} path value; ok is false for non-numeric ids.
func feedbackID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func detailURL(id int64, flash string) string {
	u := "/feedbacks/" + strconv.FormatInt(id, 10) + "/"
	if flash != "" {
		u += "?ok=" + flash
	}
	return u
}

func (h *FeedbackHandler) DetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := feedbackID(r)
	if !ok {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}

	detail, err := h.feedbackService.Detail(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrFeedbackNotFound) {
			ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
			return
		}
		slog.Error("failed to load feedback", "error", err, "feedback_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := pages.DetailData{
		Feedback:      detail.Feedback,
		Attachments:   detail.Attachments,
		Comments:      detail.Comments,
		DefaultAuthor: ctxkeys.User(r.Context()).DisplayName(),
	}
	switch r.URL.Query().Get("ok") {
	case "status":
		data.Flash = "Status atualizado para " + detail.Feedback.StatusLabel() + "."
	case "comment":
		data.Flash = "Comentário adicionado."
	}

	ui.Render(w, r, pages.FeedbackDetail(data))
}

// Update handles the two detail page forms, told apart by the action field.
// Invalid submissions redirect back without changes.
func (h *FeedbackHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := feedbackID(r)
	if !ok {
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	}

	var err error
	flash := ""
	switch r.FormValue("action") {
	case "status":
		_, err = h.feedbackService.ChangeStatus(r.Context(), id, r.FormValue("status"))
		flash = "status"
	case "comment":
		_, err = h.feedbackService.AddComment(r.Context(), id, r.FormValue("author_name"), r.FormValue("comment_text"))
		flash = "comment"
	}

	var verr *service.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrFeedbackNotFound):
		ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
		return
	case errors.As(err, &verr), errors.Is(err, service.ErrEmptyComment):
		flash = ""
	default:
		slog.Error("failed to update feedback", "error", err, "feedback_id", id)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, detailURL(id, flash), http.StatusSeeOther)
}
