package routes

import (
	"io/fs"
	"net/http"

	"github.com/templui/feedbackdesk/assets"
	"github.com/templui/feedbackdesk/internal/app"
	"github.com/templui/feedbackdesk/internal/handler"
	"github.com/templui/feedbackdesk/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler()
	auth := handler.NewAuthHandler(app.AuthService)
	feedback := handler.NewFeedbackHandler(app.FeedbackService, app.ReportService, app.Cfg.MaxAttachmentMB)
	attachment := handler.NewAttachmentHandler(app.AttachmentService)
	export := handler.NewExportHandler(app.ReportService)
	stats := handler.NewStatsHandler(app.ReportService)
	dashboard := handler.NewDashboardHandler(app.ReportService)

	support := middleware.RequireSupport(app.AuthService)
	loginLimit := middleware.RateLimit(app.LoginLimiter)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))

	// Auth
	mux.HandleFunc("GET /login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("POST /login", loginLimit(auth.Login))
	mux.HandleFunc("POST /logout", auth.Logout)

	// ============================================================================
	// SUPPORT ROUTES (active superusers and members of the support group)
	// ============================================================================

	mux.HandleFunc("GET /{$}", support(home.Root))
	mux.HandleFunc("GET /ping/", support(home.Ping))

	// Feedbacks
	mux.HandleFunc("GET /feedbacks/{$}", support(feedback.ListPage))
	mux.HandleFunc("GET /feedbacks/novo/{$}", support(feedback.NewPage))
	mux.HandleFunc("POST /feedbacks/novo/{$}", support(feedback.Create))
	mux.HandleFunc("GET /feedbacks/{id}/{$}", support(feedback.DetailPage))
	mux.HandleFunc("POST /feedbacks/{id}/{$}", support(feedback.Update))

	// Attachments
	mux.HandleFunc("GET /attachments/{id}/{$}", support(attachment.Download))

	// Exports
	mux.HandleFunc("GET /export/csv/{$}", support(export.CSV))
	mux.HandleFunc("GET /export/xlsx/{$}", support(export.XLSX))
	mux.HandleFunc("GET /export/pdf/{$}", support(export.PDF))

	// Dashboard + stats
	mux.HandleFunc("GET /dashboard/{$}", support(dashboard.DashboardPage))
	mux.HandleFunc("GET /stats/summary/{$}", support(stats.Summary))
	mux.HandleFunc("GET /stats/breakdown/{$}", support(stats.Breakdown))
	mux.HandleFunc("GET /stats/timeseries/{$}", support(stats.Timeseries))
	mux.HandleFunc("GET /stats/recent/{$}", support(stats.Recent))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.RequestContext(app.Cfg),
		middleware.NonceMiddleware, // Generate CSP nonce for each request (must be before SecurityHeaders)
		middleware.SecurityHeaders,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
		middleware.RequestLogging, // after auth so the user is logged
		middleware.CSRFProtection, // CSRF protection for all state-changing requests
	)

	return handler
}
