package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/feedbackdesk/internal/model"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
)

type AttachmentRepository interface {
	Create(ctx context.Context, att *model.Attachment) error
	ByID(ctx context.Context, id int64) (*model.Attachment, error)
	ByFeedback(ctx context.Context, feedbackID int64) ([]*model.Attachment, error)
}

type attachmentRepository struct {
	db *sqlx.DB
}

func NewAttachmentRepository(db *sqlx.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, att *model.Attachment) error {
	query := `INSERT INTO feedback_attachments (feedback_id, storage_path, original_name, mime_type, file_size, duration_seconds, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		att.FeedbackID,
		att.StoragePath,
		att.OriginalName,
		att.MimeType,
		att.FileSize,
		att.DurationSeconds,
		att.CreatedAt,
	).Scan(&att.ID)
}

func (r *attachmentRepository) ByID(ctx context.Context, id int64) (*model.Attachment, error) {
	att := &model.Attachment{}
	query := `SELECT * FROM feedback_attachments WHERE id = $1`

	err := r.db.GetContext(ctx, att, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrAttachmentNotFound
	}

	return att, err
}

func (r *attachmentRepository) ByFeedback(ctx context.Context, feedbackID int64) ([]*model.Attachment, error) {
	attachments := []*model.Attachment{}
	query := `SELECT * FROM feedback_attachments WHERE feedback_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &attachments, query, feedbackID)
	if err != nil {
		return nil, err
	}

	return attachments, nil
}
