package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/templui/feedbackdesk/internal/ctxkeys"
	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/ui"
	"github.com/templui/feedbackdesk/internal/ui/pages"
)

// AuthMiddleware checks for JWT token and adds the user to context if valid
func AuthMiddleware(authService *service.AuthService, userService *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get JWT from cookie
			cookie, err := r.Cookie("auth_token")
			if err != nil {
				// No cookie, continue without auth
				next.ServeHTTP(w, r)
				return
			}

			// Verify token
			claims, err := authService.VerifyJWT(cookie.Value)
			if err != nil {
				// Invalid token, clear cookie and continue
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Fetch user on every request so deactivation and group changes apply immediately
			user, err := userService.ByID(r.Context(), userID)
			if err != nil || !user.IsActive {
				authService.ClearJWTCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoginURL is the login page with next set to the requested path and query.
func LoginURL(r *http.Request) string {
	return "/login?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
}

// RequireSupport admits active superusers and members of the support group.
// Anonymous requests are sent to the login page, other users get 403.
func RequireSupport(authService *service.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user := ctxkeys.User(r.Context())
			if user == nil {
				redirect(w, r, LoginURL(r))
				return
			}

			if !authService.IsSupport(user) {
				slog.Warn("support access denied", "user_id", user.ID, "path", r.URL.Path)
				ui.RenderStatus(w, r, http.StatusForbidden, pages.Forbidden())
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}

// RequireGuest ensures the user is not authenticated
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.User(r.Context()) != nil {
			redirect(w, r, "/feedbacks/")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// redirect forces a full page navigation, also for HTMX requests.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
