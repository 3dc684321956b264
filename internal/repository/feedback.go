package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/report"
)

var (
	ErrFeedbackNotFound = errors.New("feedback not found")
)

const feedbackColumns = `id, student_name, operator_name, type, subject, course_name, class_name,
	description, status, resolved_at, created_at, updated_at`

// feedbackOrder is the canonical ordering of every listing: newest first, id breaks ties.
const feedbackOrder = ` ORDER BY created_at DESC, id DESC`

type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	ByID(ctx context.Context, id int64) (*model.Feedback, error)
	UpdateStatus(ctx context.Context, fb *model.Feedback) error
	Delete(ctx context.Context, id int64) error
	Rows(ctx context.Context, filter report.Filter, limit, offset int) ([]*model.FeedbackRow, error)
	Count(ctx context.Context, filter report.Filter) (int, error)
	CreatedBetween(ctx context.Context, filter report.Filter, start, end time.Time) ([]*model.Feedback, error)
}

type feedbackRepository struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sqlx.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *model.Feedback) error {
	query := `INSERT INTO feedbacks (student_name, operator_name, type, subject, course_name, class_name,
	          description, status, resolved_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		fb.StudentName,
		fb.OperatorName,
		fb.Type,
		fb.Subject,
		fb.CourseName,
		fb.ClassName,
		fb.Description,
		fb.Status,
		fb.ResolvedAt,
		fb.CreatedAt,
		fb.UpdatedAt,
	).Scan(&fb.ID)
}

func (r *feedbackRepository) ByID(ctx context.Context, id int64) (*model.Feedback, error) {
	fb := &model.Feedback{}
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks WHERE id = $1`

	err := r.db.GetContext(ctx, fb, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFeedbackNotFound
	}

	return fb, err
}

func (r *feedbackRepository) UpdateStatus(ctx context.Context, fb *model.Feedback) error {
	query := `UPDATE feedbacks SET status = $1, resolved_at = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, fb.Status, fb.ResolvedAt, fb.UpdatedAt, fb.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrFeedbackNotFound
	}

	return nil
}

// Delete removes the record. Attachments and comments go with it by cascade.
func (r *feedbackRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM feedbacks WHERE id = $1`, id)
	return err
}

// Rows is the canonical filtered listing shared by the list page and every
// export. limit <= 0 returns all matching rows.
func (r *feedbackRepository) Rows(ctx context.Context, filter report.Filter, limit, offset int) ([]*model.FeedbackRow, error) {
	args := &report.Args{}
	query := `SELECT ` + feedbackColumns + `,
	          (SELECT COUNT(*) FROM feedback_attachments a WHERE a.feedback_id = feedbacks.id) AS attachment_count
	          FROM feedbacks` + report.Where(filter.Conditions(args)) + feedbackOrder

	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(max(offset, 0))
	}

	rows := []*model.FeedbackRow{}
	err := r.db.SelectContext(ctx, &rows, query, args.Values()...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *feedbackRepository) Count(ctx context.Context, filter report.Filter) (int, error) {
	args := &report.Args{}
	query := `SELECT COUNT(*) FROM feedbacks` + report.Where(filter.Conditions(args))

	var count int
	err := r.db.GetContext(ctx, &count, query, args.Values()...)
	return count, err
}

// CreatedBetween returns the filtered records created in [start, end).
func (r *feedbackRepository) CreatedBetween(ctx context.Context, filter report.Filter, start, end time.Time) ([]*model.Feedback, error) {
	args := &report.Args{}
	conds := filter.Conditions(args)
	conds = append(conds,
		"created_at >= "+args.Add(start.UTC()),
		"created_at < "+args.Add(end.UTC()),
	)
	query := `SELECT ` + feedbackColumns + ` FROM feedbacks` + report.Where(conds) + feedbackOrder

	records := []*model.Feedback{}
	err := r.db.SelectContext(ctx, &records, query, args.Values()...)
	if err != nil {
		return nil, err
	}

	return records, nil
}
