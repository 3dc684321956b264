package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/ui"
	"github.com/templui/feedbackdesk/internal/ui/pages"
)

const defaultLanding = "/feedbacks/"

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Login(pages.LoginData{
		Next: safeNext(r.URL.Query().Get("next")),
	}))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	data := pages.LoginData{Username: username, Next: next}

	if username == "" || password == "" {
		data.Error = "Informe usuário e senha."
		ui.Render(w, r, pages.Login(data))
		return
	}

	user, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			slog.Warn("login failed", "username", username)
		} else {
			slog.Error("login failed", "error", err, "username", username)
		}
		data.Error = "Usuário ou senha inválidos."
		ui.Render(w, r, pages.Login(data))
		return
	}

	err = h.authService.StartSession(w, user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		data.Error = "Não foi possível entrar. Tente novamente."
		ui.Render(w, r, pages.Login(data))
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site: only absolute paths are
// accepted, anything else lands on the feedback list.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLanding
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return defaultLanding
	}
	return next
}
