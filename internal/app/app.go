package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/feedbackdesk/internal/config"
	"github.com/templui/feedbackdesk/internal/db"
	"github.com/templui/feedbackdesk/internal/middleware"
	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/storage"
	"github.com/templui/feedbackdesk/internal/validation"
)

// Login attempts allowed per client IP and window.
const (
	loginAttempts = 5
	loginWindow   = 15 * time.Minute
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	AuthService       *service.AuthService
	UserService       *service.UserService
	FeedbackService   *service.FeedbackService
	AttachmentService *service.AttachmentService
	ReportService     *service.ReportService
	LoginLimiter      *middleware.RateLimiter

	stop chan struct{}
}

// New opens and migrates the database and wires the services.
func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return Wire(cfg, database, fileStorage), nil
}

// Wire builds the services over an open database and storage.
func Wire(cfg *config.Config, database *sqlx.DB, fileStorage storage.Storage) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	feedbackRepository := repository.NewFeedbackRepository(database)
	attachmentRepository := repository.NewAttachmentRepository(database)
	commentRepository := repository.NewCommentRepository(database)

	// Services
	authService := service.NewAuthService(
		userRepository,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
		cfg.SupportGroup,
	)
	userService := service.NewUserService(userRepository, authService)
	attachmentService := service.NewAttachmentService(attachmentRepository, fileStorage, validation.AttachmentConstraints{
		MaxSize:          cfg.MaxAttachmentBytes(),
		AllowedMimeTypes: cfg.AllowedMimeTypes,
	})
	feedbackService := service.NewFeedbackService(feedbackRepository, commentRepository, attachmentService)
	reportService := service.NewReportService(feedbackRepository, cfg.Location)

	stop := make(chan struct{})
	loginLimiter := middleware.NewRateLimiter(loginAttempts, loginWindow)
	loginLimiter.StartCleanup(5*time.Minute, stop)

	return &App{
		Cfg:               cfg,
		DB:                database,
		AuthService:       authService,
		UserService:       userService,
		FeedbackService:   feedbackService,
		AttachmentService: attachmentService,
		ReportService:     reportService,
		LoginLimiter:      loginLimiter,
		stop:              stop,
	}
}

func (a *App) Close() error {
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
