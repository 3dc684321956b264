package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/templui/feedbackdesk/internal/model"
)

// CommentRepository is append-only: comments are never edited or removed.
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	ByFeedback(ctx context.Context, feedbackID int64) ([]*model.Comment, error)
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO feedback_comments (feedback_id, author_name, comment_text, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query, c.FeedbackID, c.AuthorName, c.CommentText, c.CreatedAt).Scan(&c.ID)
}

func (r *commentRepository) ByFeedback(ctx context.Context, feedbackID int64) ([]*model.Comment, error) {
	comments := []*model.Comment{}
	query := `SELECT * FROM feedback_comments WHERE feedback_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.SelectContext(ctx, &comments, query, feedbackID)
	if err != nil {
		return nil, err
	}

	return comments, nil
}
