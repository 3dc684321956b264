package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/feedbackdesk/internal/ctxkeys"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/service"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "clients are limited independently")

	clock = clock.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "old requests fall out of the window")

	clock = clock.Add(2 * time.Minute)
	rl.Cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, time.Minute))(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", " 10.0.0.2 ")
	assert.Equal(t, "10.0.0.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getClientIP(req))
}

func TestRequireSupport(t *testing.T) {
	auth := service.NewAuthService(nil, "secret", false, time.Hour, "Suporte")
	h := RequireSupport(auth)(okHandler)

	t.Run("anonymous is sent to login", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/feedbacks/?aluno=ana", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/login", loc.Path)
		assert.Equal(t, "/feedbacks/?aluno=ana", loc.Query().Get("next"))
	})

	t.Run("anonymous htmx gets HX-Redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/feedbacks/", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.True(t, strings.HasPrefix(rec.Header().Get("HX-Redirect"), "/login?next="))
		assert.Empty(t, rec.Header().Get("Location"))
	})

	t.Run("non support user is forbidden", func(t *testing.T) {
		user := &model.User{ID: "u", Username: "aluno", IsActive: true}
		req := httptest.NewRequest(http.MethodGet, "/feedbacks/", nil)
		req = req.WithContext(ctxkeys.WithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("support group member passes", func(t *testing.T) {
		user := &model.User{ID: "u", Username: "op", IsActive: true, Groups: []string{"Suporte"}}
		req := httptest.NewRequest(http.MethodGet, "/feedbacks/", nil)
		req = req.WithContext(ctxkeys.WithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value

	post := func(formToken string) int {
		body := url.Values{"csrf_token": {formToken}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post(token))
	assert.Equal(t, http.StatusForbidden, post("wrong"))
	assert.Equal(t, http.StatusForbidden, post(""))
}
