package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/storage"
	"github.com/templui/feedbackdesk/internal/validation"
)

const defaultMimeType = "application/octet-stream"

type AttachmentService struct {
	attachmentRepository repository.AttachmentRepository
	storage              storage.Storage
	constraints          validation.AttachmentConstraints
}

func NewAttachmentService(
	attachmentRepository repository.AttachmentRepository,
	storage storage.Storage,
	constraints validation.AttachmentConstraints,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepository: attachmentRepository,
		storage:              storage,
		constraints:          constraints,
	}
}

// Upload is a validated file waiting to be stored.
type Upload struct {
	Header   *multipart.FileHeader
	MimeType string
}

// Validate checks every file before anything is written. The first failing
// file decides the error.
func (s *AttachmentService) Validate(headers []*multipart.FileHeader) ([]Upload, error) {
	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		mimeType, err := validation.ValidateAttachment(header, s.constraints)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, Upload{Header: header, MimeType: mimeType})
	}
	return uploads, nil
}

// storagePath returns feedbacks/YYYY/MM/<uuid><ext> for a file uploaded at now.
func storagePath(originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return path.Join("feedbacks", now.Format("2006"), now.Format("01"), uuid.New().String()+ext)
}

// Store saves the file and records it against feedbackID.
func (s *AttachmentService) Store(ctx context.Context, feedbackID int64, upload Upload, now time.Time) (*model.Attachment, error) {
	file, err := upload.Header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	key := storagePath(upload.Header.Filename, now)

	err = s.storage.Save(ctx, key, file, upload.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	size := upload.Header.Size
	att := &model.Attachment{
		FeedbackID:   feedbackID,
		StoragePath:  key,
		OriginalName: filepath.Base(upload.Header.Filename),
		MimeType:     model.Optional(upload.MimeType),
		FileSize:     &size,
		CreatedAt:    now,
	}

	err = s.attachmentRepository.Create(ctx, att)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", key)
		}
		return nil, fmt.Errorf("failed to create attachment record: %w", err)
	}

	return att, nil
}

// Discard removes the stored objects of attachments whose record is being
// rolled back. Failures are logged, not returned.
func (s *AttachmentService) Discard(ctx context.Context, attachments []*model.Attachment) {
	for _, att := range attachments {
		err := s.storage.Delete(ctx, att.StoragePath)
		if err != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", err, "path", att.StoragePath)
		}
	}
}

func (s *AttachmentService) ByFeedback(ctx context.Context, feedbackID int64) ([]*model.Attachment, error) {
	return s.attachmentRepository.ByFeedback(ctx, feedbackID)
}

// Open returns the attachment record and a reader over its bytes. A missing
// row yields repository.ErrAttachmentNotFound and a missing object
// storage.ErrObjectNotFound.
func (s *AttachmentService) Open(ctx context.Context, id int64) (*model.Attachment, io.ReadCloser, error) {
	att, err := s.attachmentRepository.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := s.storage.Open(ctx, att.StoragePath)
	if err != nil {
		return att, nil, err
	}

	return att, body, nil
}

// ContentType is the stored MIME type, or application/octet-stream.
func ContentType(att *model.Attachment) string {
	if t := model.Deref(att.MimeType); t != "" {
		return t
	}
	return defaultMimeType
}
