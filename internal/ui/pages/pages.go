// Package pages holds the HTML pages of the desk. Each page is a
// templ.Component backed by an html/template definition under templates/.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/templui/feedbackdesk/internal/ctxkeys"
	"github.com/templui/feedbackdesk/internal/markdown"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/report"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = markdown.NewParser()

var templates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"datetime":       datetime,
	"deref":          model.Deref,
	"markdown":       renderMarkdown,
	"filesize":       filesize,
	"typeChoices":    func() []model.Choice { return model.TypeChoices },
	"subjectChoices": func() []model.Choice { return model.SubjectChoices },
	"statusChoices":  func() []model.Choice { return model.StatusChoices },
	"emptyLabel":     func() string { return report.EmptyLabel },
}).ParseFS(templateFS, "templates/*.html"))

// Layout is the data every page shares.
type Layout struct {
	Title     string
	AppName   string
	Path      string
	CSRFToken string
	Nonce     string
	User      *model.User
	Location  *time.Location
}

type view struct {
	Layout Layout
	Data   any
}

func newLayout(ctx context.Context, title string) Layout {
	l := Layout{
		Title:     title,
		AppName:   "Feedback Desk",
		Path:      ctxkeys.URLPath(ctx),
		CSRFToken: ctxkeys.CSRFToken(ctx),
		Nonce:     templ.GetNonce(ctx),
		User:      ctxkeys.User(ctx),
		Location:  ctxkeys.Location(ctx),
	}
	if cfg := ctxkeys.Config(ctx); cfg != nil {
		l.AppName = cfg.AppName
	}
	return l
}

func page(name, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, view{Layout: newLayout(ctx, title), Data: data})
	})
}

// datetime formats a time.Time or *time.Time in loc; nil renders as the empty label.
func datetime(v any, loc *time.Location) string {
	switch t := v.(type) {
	case time.Time:
		return t.In(loc).Format(report.DisplayLayout)
	case *time.Time:
		if t == nil {
			return report.EmptyLabel
		}
		return t.In(loc).Format(report.DisplayLayout)
	default:
		return ""
	}
}

// renderMarkdown accepts a string or *string.
func renderMarkdown(v any) template.HTML {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case *string:
		s = model.Deref(t)
	}
	if s == "" {
		return ""
	}
	// goldmark drops raw HTML from the source, so its output is safe to embed
	return template.HTML(md.HTML(s))
}

func filesize(n *int64) string {
	if n == nil {
		return ""
	}
	switch {
	case *n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(*n)/(1<<20))
	case *n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(*n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", *n)
	}
}

type LoginData struct {
	Username string
	Next     string
	Error    string
}

func Login(data LoginData) templ.Component {
	return page("login", "Entrar", data)
}

type ListData struct {
	Filter   report.Filter
	Rows     []*model.FeedbackRow
	Page     report.Page
	PrevHref string
	NextHref string
	CSVHref  string
	XLSXHref string
}

func FeedbackList(data ListData) templ.Component {
	return page("feedback_list", "Feedbacks", data)
}

// FormData holds the submitted values and per-field errors of the create form.
type FormData struct {
	StudentName  string
	OperatorName string
	CourseName   string
	ClassName    string
	Type         string
	Subject      string
	Description  string
	Errors       map[string]string
	CreatedID    string
	MaxMB        int
}

func FeedbackForm(data FormData) templ.Component {
	return page("feedback_form", "Novo feedback", data)
}

type DetailData struct {
	Feedback      *model.Feedback
	Attachments   []*model.Attachment
	Comments      []*model.Comment
	DefaultAuthor string
	Flash         string
	Error         string
}

func FeedbackDetail(data DetailData) templ.Component {
	return page("feedback_detail", fmt.Sprintf("Feedback #%d", data.Feedback.ID), data)
}

type DashboardData struct {
	Month  string
	Filter report.Filter
}

func Dashboard(data DashboardData) templ.Component {
	return page("dashboard", "Dashboard", data)
}

func NotFound() templ.Component {
	return page("not_found", "Página não encontrada", nil)
}

func Forbidden() templ.Component {
	return page("forbidden", "Acesso negado", nil)
}
