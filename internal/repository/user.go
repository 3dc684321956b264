package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/templui/feedbackdesk/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByUsername(ctx context.Context, username string) (*model.User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	AddGroup(ctx context.Context, id, group string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO users (id, username, password_hash, full_name, is_superuser, is_active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.FullName,
		user.IsSuperuser,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		// Check for unique constraint violation (works for both SQLite and PostgreSQL)
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value") {
			return ErrDuplicateUsername
		}
		return err
	}

	for _, group := range user.Groups {
		_, err = tx.ExecContext(ctx, `INSERT INTO user_groups (user_id, group_name) VALUES ($1, $2)`, user.ID, group)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.get(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}

	err := r.db.GetContext(ctx, user, query, arg)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Groups = []string{}
	err = r.db.SelectContext(ctx, &user.Groups, `SELECT group_name FROM user_groups WHERE user_id = $1 ORDER BY group_name`, user.ID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) AddGroup(ctx context.Context, id, group string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_groups (user_id, group_name) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, group)
	return err
}
