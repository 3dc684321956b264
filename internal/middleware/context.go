package middleware

import (
	"net/http"

	"github.com/templui/feedbackdesk/internal/config"
	"github.com/templui/feedbackdesk/internal/ctxkeys"
)

// RequestContext stores the sanitized config and the request path in the
// context. Pages read the app name, timezone and active menu entry from it;
// secrets never reach templates.
func RequestContext(cfg *config.Config) func(http.Handler) http.Handler {
	public := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), public)
			ctx = ctxkeys.WithURLPath(ctx, r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
