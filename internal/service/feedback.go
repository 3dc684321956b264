package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"mime/multipart"
	"slices"
	"strings"
	"time"

	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/validation"
)

var ErrEmptyComment = errors.New("comment text is required")

// ValidationError carries one message per invalid form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid feedback: " + strings.Join(parts, "; ")
}

// Form field names shared by the service and the form page.
const (
	FieldStudentName = "student_name"
	FieldCourseName  = "course_name"
	FieldClassName   = "class_name"
	FieldType        = "type"
	FieldSubject     = "subject"
	FieldDescription = "description"
	FieldAttachments = "attachments"
	FieldStatus      = "status"
)

type CreateFeedbackInput struct {
	StudentName string
	CourseName  string
	ClassName   string
	Type        string
	Subject     string
	Description string
	Attachments []*multipart.FileHeader
}

// FeedbackDetail is a record with its attachments and comment thread.
type FeedbackDetail struct {
	Feedback    *model.Feedback
	Attachments []*model.Attachment
	Comments    []*model.Comment
}

type FeedbackService struct {
	feedbackRepository repository.FeedbackRepository
	commentRepository  repository.CommentRepository
	attachmentService  *AttachmentService
	now                func() time.Time
}

func NewFeedbackService(
	feedbackRepository repository.FeedbackRepository,
	commentRepository repository.CommentRepository,
	attachmentService *AttachmentService,
) *FeedbackService {
	return &FeedbackService{
		feedbackRepository: feedbackRepository,
		commentRepository:  commentRepository,
		attachmentService:  attachmentService,
		now:                now,
	}
}

// now is the persisted clock: UTC at the precision both databases keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *FeedbackService) validate(in *CreateFeedbackInput) (*ValidationError, []Upload) {
	fields := map[string]string{}

	in.StudentName = strings.TrimSpace(in.StudentName)
	in.CourseName = strings.TrimSpace(in.CourseName)
	in.ClassName = strings.TrimSpace(in.ClassName)
	in.Type = strings.TrimSpace(in.Type)
	in.Subject = strings.TrimSpace(in.Subject)

	if err := validation.ValidateStudentName(in.StudentName); err != nil {
		fields[FieldStudentName] = err.Error()
	}
	if err := validation.ValidateOptionalName(in.CourseName); err != nil {
		fields[FieldCourseName] = err.Error()
	}
	if err := validation.ValidateOptionalName(in.ClassName); err != nil {
		fields[FieldClassName] = err.Error()
	}
	if !model.Valid(model.TypeChoices, in.Type) {
		fields[FieldType] = "selecione um tipo válido"
	}
	if !model.Valid(model.SubjectChoices, in.Subject) {
		fields[FieldSubject] = "selecione um assunto válido"
	}

	uploads, err := s.attachmentService.Validate(in.Attachments)
	if err != nil {
		fields[FieldAttachments] = err.Error()
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}, nil
	}
	return nil, uploads
}

// Create validates the input and every attachment, then writes the record with
// status pendente and the operator's display name. Nothing is written when
// validation fails, and a failure while storing an attachment removes the
// record and the files already saved.
func (s *FeedbackService) Create(ctx context.Context, in CreateFeedbackInput, operator *model.User) (*model.Feedback, error) {
	verr, uploads := s.validate(&in)
	if verr != nil {
		return nil, verr
	}

	ts := s.now()
	fb := &model.Feedback{
		StudentName:  in.StudentName,
		OperatorName: model.Optional(operator.DisplayName()),
		Type:         in.Type,
		Subject:      in.Subject,
		CourseName:   model.Optional(in.CourseName),
		ClassName:    model.Optional(in.ClassName),
		Description:  model.Optional(strings.TrimSpace(in.Description)),
		Status:       model.StatusPending,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}

	err := s.feedbackRepository.Create(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	stored := make([]*model.Attachment, 0, len(uploads))
	for _, upload := range uploads {
		att, err := s.attachmentService.Store(ctx, fb.ID, upload, ts)
		if err != nil {
			slog.Error("failed to store attachment", "error", err, "feedback_id", fb.ID, "filename", upload.Header.Filename)
			s.rollback(ctx, fb.ID, stored)
			return nil, fmt.Errorf("failed to store attachment: %w", err)
		}
		stored = append(stored, att)
	}

	slog.Info("feedback created", "feedback_id", fb.ID, "operator", operator.Username, "attachments", len(uploads))
	return fb, nil
}

// rollback undoes a partially written Create: the objects already saved and
// the record, whose attachment rows cascade.
func (s *FeedbackService) rollback(ctx context.Context, id int64, stored []*model.Attachment) {
	s.attachmentService.Discard(ctx, stored)
	err := s.feedbackRepository.Delete(ctx, id)
	if err != nil {
		slog.Error("failed to delete feedback during cleanup", "error", err, "feedback_id", id)
	}
}

func (s *FeedbackService) ByID(ctx context.Context, id int64) (*model.Feedback, error) {
	return s.feedbackRepository.ByID(ctx, id)
}

func (s *FeedbackService) Detail(ctx context.Context, id int64) (*FeedbackDetail, error) {
	fb, err := s.feedbackRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachmentService.ByFeedback(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}

	comments, err := s.commentRepository.ByFeedback(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	return &FeedbackDetail{Feedback: fb, Attachments: attachments, Comments: comments}, nil
}

// applyStatus sets status and keeps resolved_at consistent with it: resolvido
// keeps an earlier stamp or takes now, anything else clears it.
func applyStatus(fb *model.Feedback, status string, now time.Time) {
	fb.Status = status
	if status == model.StatusResolved {
		if fb.ResolvedAt == nil {
			fb.ResolvedAt = &now
		}
	} else {
		fb.ResolvedAt = nil
	}
	fb.UpdatedAt = now
}

func (s *FeedbackService) ChangeStatus(ctx context.Context, id int64, status string) (*model.Feedback, error) {
	status = strings.TrimSpace(status)
	if !model.Valid(model.StatusChoices, status) {
		return nil, &ValidationError{Fields: map[string]string{FieldStatus: "selecione um status válido"}}
	}

	fb, err := s.feedbackRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyStatus(fb, status, s.now())

	err = s.feedbackRepository.UpdateStatus(ctx, fb)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	slog.Info("feedback status changed", "feedback_id", fb.ID, "status", fb.Status)
	return fb, nil
}

// AddComment appends a comment. Blank text is rejected with ErrEmptyComment;
// a blank author falls back to model.CommentFallbackAuthor.
func (s *FeedbackService) AddComment(ctx context.Context, id int64, author, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	author = strings.TrimSpace(author)
	if author == "" {
		author = model.CommentFallbackAuthor
	}

	_, err := s.feedbackRepository.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{
		FeedbackID:  id,
		AuthorName:  &author,
		CommentText: text,
		CreatedAt:   s.now(),
	}

	err = s.commentRepository.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	return c, nil
}
