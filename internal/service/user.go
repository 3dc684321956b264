package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/validation"
)

type UserService struct {
	userRepository repository.UserRepository
	authService    *AuthService
}

func NewUserService(userRepository repository.UserRepository, authService *AuthService) *UserService {
	return &UserService{
		userRepository: userRepository,
		authService:    authService,
	}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

type CreateUserParams struct {
	Username  string
	Password  string
	FullName  string
	Superuser bool
	Groups    []string
}

// Create adds an active user with a bcrypt password.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (*model.User, error) {
	username := strings.TrimSpace(params.Username)

	err := validation.ValidateUsername(username)
	if err != nil {
		return nil, err
	}

	err = validation.ValidatePassword(params.Password)
	if err != nil {
		return nil, err
	}

	hash, err := s.authService.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	groups := []string{}
	for _, g := range params.Groups {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: &hash,
		FullName:     strings.TrimSpace(params.FullName),
		IsSuperuser:  params.Superuser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		Groups:       groups,
	}

	err = s.userRepository.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username, "superuser", user.IsSuperuser)
	return user, nil
}

// SetPassword replaces the password of username.
func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	user, err := s.userRepository.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return err
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.userRepository.SetPassword(ctx, user.ID, hash)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	slog.Info("password updated", "user_id", user.ID)
	return nil
}

// AddGroup grants username membership of group. Adding an existing membership is a no-op.
func (s *UserService) AddGroup(ctx context.Context, username, group string) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return fmt.Errorf("group name is required")
	}

	user, err := s.userRepository.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	return s.userRepository.AddGroup(ctx, user.ID, group)
}
