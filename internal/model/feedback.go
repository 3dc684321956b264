package model

import (
	"time"
)

const (
	TypePraise     = "elogio"
	TypeComplaint  = "reclamacao"
	TypeSuggestion = "sugestao"
)

const (
	SubjectFinance  = "financeiro"
	SubjectService  = "atendimento"
	SubjectPlatform = "plataforma"
	SubjectContent  = "conteudo"
	SubjectEvents   = "eventos"
	SubjectOther    = "outros"
)

const (
	StatusPending  = "pendente"
	StatusInReview = "em_analise"
	StatusResolved = "resolvido"
)

// Choice is an enumeration key with its display label.
type Choice struct {
	Key   string
	Label string
}

var (
	TypeChoices = []Choice{
		{TypePraise, "Elogio"},
		{TypeComplaint, "Reclamação"},
		{TypeSuggestion, "Sugestão"},
	}
	SubjectChoices = []Choice{
		{SubjectFinance, "Financeiro"},
		{SubjectService, "Atendimento"},
		{SubjectPlatform, "Plataforma"},
		{SubjectContent, "Conteúdo"},
		{SubjectEvents, "Eventos"},
		{SubjectOther, "Outros"},
	}
	StatusChoices = []Choice{
		{StatusPending, "Pendente"},
		{StatusInReview, "Em análise"},
		{StatusResolved, "Resolvido"},
	}
)

// Label returns the display label for key, or key itself when it is not a known choice.
func Label(choices []Choice, key string) string {
	for _, c := range choices {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

// Valid reports whether key is one of choices.
func Valid(choices []Choice, key string) bool {
	for _, c := range choices {
		if c.Key == key {
			return true
		}
	}
	return false
}

type Feedback struct {
	ID           int64      `db:"id"`
	StudentName  string     `db:"student_name"`
	OperatorName *string    `db:"operator_name"`
	Type         string     `db:"type"`
	Subject      string     `db:"subject"`
	CourseName   *string    `db:"course_name"`
	ClassName    *string    `db:"class_name"`
	Description  *string    `db:"description"`
	Status       string     `db:"status"`
	ResolvedAt   *time.Time `db:"resolved_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (f *Feedback) TypeLabel() string    { return Label(TypeChoices, f.Type) }
func (f *Feedback) SubjectLabel() string { return Label(SubjectChoices, f.Subject) }
func (f *Feedback) StatusLabel() string  { return Label(StatusChoices, f.Status) }

// Deref returns the value behind an optional column, or "" for NULL.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Optional turns a blank string into NULL.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type Attachment struct {
	ID              int64     `db:"id"`
	FeedbackID      int64     `db:"feedback_id"`
	StoragePath     string    `db:"storage_path"`
	OriginalName    string    `db:"original_name"`
	MimeType        *string   `db:"mime_type"`
	FileSize        *int64    `db:"file_size"`
	DurationSeconds *int64    `db:"duration_seconds"` // audio recordings only
	CreatedAt       time.Time `db:"created_at"`
}

type Comment struct {
	ID          int64     `db:"id"`
	FeedbackID  int64     `db:"feedback_id"`
	AuthorName  *string   `db:"author_name"`
	CommentText string    `db:"comment_text"`
	CreatedAt   time.Time `db:"created_at"`
}

const CommentFallbackAuthor = "Suporte"

func (c *Comment) Author() string {
	if c.AuthorName == nil || *c.AuthorName == "" {
		return CommentFallbackAuthor
	}
	return *c.AuthorName
}

// FeedbackRow is a feedback record as read by the listing and export queries.
type FeedbackRow struct {
	Feedback
	AttachmentCount int `db:"attachment_count"`
}
