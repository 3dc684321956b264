package routes

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/feedbackdesk/internal/app"
	"github.com/templui/feedbackdesk/internal/config"
	"github.com/templui/feedbackdesk/internal/db/dbtest"
	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/report"
	"github.com/templui/feedbackdesk/internal/service"
	"github.com/templui/feedbackdesk/internal/storage"
	"github.com/xuri/excelize/v2"
)

const (
	testPassword = "correct-horse-battery"
	csrfToken    = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 32 bytes, base64url
)

type testServer struct {
	t       *testing.T
	app     *app.App
	handler http.Handler
	storage *storage.LocalStorage
	loc     *time.Location
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	loc, err := time.LoadLocation("America/Fortaleza")
	require.NoError(t, err)

	cfg := &config.Config{
		AppName:         "Feedback Desk",
		AppEnv:          "development",
		AppTimezone:     "America/Fortaleza",
		Location:        loc,
		JWTSecret:       "test-secret",
		JWTExpiry:       time.Hour,
		SupportGroup:    "Suporte",
		MaxAttachmentMB: 1,
	}

	store := storage.NewLocalStorage(t.TempDir())
	a := app.Wire(cfg, dbtest.New(t), store)
	t.Cleanup(func() { _ = a.Close() })

	return &testServer{t: t, app: a, handler: SetupRoutes(a), storage: store, loc: loc}
}

// user creates an account and returns its session cookie.
func (s *testServer) user(username string, groups ...string) *http.Cookie {
	s.t.Helper()

	u, err := s.app.UserService.Create(context.Background(), service.CreateUserParams{
		Username: username,
		Password: testPassword,
		FullName: strings.ToUpper(username),
		Groups:   groups,
	})
	require.NoError(s.t, err)

	token, err := s.app.AuthService.GenerateJWT(u)
	require.NoError(s.t, err)
	return &http.Cookie{Name: "auth_token", Value: token}
}

func (s *testServer) do(req *http.Request, session *http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	if session != nil {
		req.AddCookie(session)
	}
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: csrfToken})
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(target string, session *http.Cookie) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, target, nil), session)
}

func (s *testServer) postForm(target string, form url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	form.Set("csrf_token", csrfToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, session)
}

func (s *testServer) seed(student, typ string, created time.Time) *model.Feedback {
	s.t.Helper()

	fb, err := s.app.FeedbackService.Create(context.Background(), service.CreateFeedbackInput{
		StudentName: student,
		Type:        typ,
		Subject:     model.SubjectService,
	}, &model.User{Username: "seed"})
	require.NoError(s.t, err)

	// Move the record to a known creation time.
	_, err = s.app.DB.Exec(`UPDATE feedbacks SET created_at = $1 WHERE id = $2`, created.UTC(), fb.ID)
	require.NoError(s.t, err)
	return fb
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)
	outsider := s.user("aluno")
	support := s.user("op", "Suporte")

	rec := s.get("/feedbacks/?aluno=ana", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Ffeedbacks%2F%3Faluno%3Dana", rec.Header().Get("Location"))

	rec = s.get("/export/csv/", outsider)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.get("/stats/summary/", outsider)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.get("/feedbacks/", support)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.get("/", support)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/feedbacks/", rec.Header().Get("Location"))

	rec = s.get("/ping/", support)
	assert.Equal(t, "core ok", strings.TrimSpace(rec.Body.String()))

	rec = s.get("/nada/aqui", support)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.user("op", "Suporte")

	rec := s.get("/login?next=/dashboard/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.postForm("/login", url.Values{"username": {"op"}, "password": {"errada-mas-longa"}}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Usuário ou senha inválidos.")

	rec = s.postForm("/login", url.Values{
		"username": {"op"},
		"password": {testPassword},
		"next":     {"https://evil.example/"},
	}, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/feedbacks/", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			session = c
		}
	}
	require.NotNil(t, session)

	rec = s.get("/dashboard/", session)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_RejectsMissingCSRFToken(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=op&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateFeedback(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("csrf_token", csrfToken))
	require.NoError(t, mw.WriteField(service.FieldStudentName, "Ana Souza"))
	require.NoError(t, mw.WriteField(service.FieldType, model.TypeComplaint))
	require.NoError(t, mw.WriteField(service.FieldSubject, model.SubjectFinance))
	require.NoError(t, mw.WriteField(service.FieldDescription, "Cobrança **duplicada**"))
	part, err := mw.CreateFormFile(service.FieldAttachments, "recibo.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("comprovante"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/feedbacks/novo/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := s.do(req, support)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/feedbacks/novo/?created_id=1", rec.Header().Get("Location"))

	detail, err := s.app.FeedbackService.Detail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "OP", model.Deref(detail.Feedback.OperatorName))
	require.Len(t, detail.Attachments, 1)

	rec = s.get("/feedbacks/1/", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>duplicada</strong>")

	rec = s.get("/attachments/"+itoa(detail.Attachments[0].ID)+"/", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "comprovante", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "recibo.txt")

	rec = s.get("/attachments/999/", support)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload_StreamsCurrentObject(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("csrf_token", csrfToken))
	require.NoError(t, mw.WriteField(service.FieldStudentName, "Ana Souza"))
	require.NoError(t, mw.WriteField(service.FieldType, model.TypeComplaint))
	require.NoError(t, mw.WriteField(service.FieldSubject, model.SubjectFinance))
	part, err := mw.CreateFormFile(service.FieldAttachments, "nota.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("curto"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/feedbacks/novo/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.Equal(t, http.StatusSeeOther, s.do(req, support).Code)

	detail, err := s.app.FeedbackService.Detail(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, detail.Attachments, 1)
	att := detail.Attachments[0]

	// The object no longer matches the size recorded at upload.
	replaced := "um conteúdo bem mais longo que o original"
	require.NoError(t, s.storage.Save(context.Background(), att.StoragePath, strings.NewReader(replaced), "text/plain"))

	rec := s.get("/attachments/"+itoa(att.ID)+"/", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, replaced, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Length"))
}

func TestCreateFeedback_InvalidRerendersForm(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")

	rec := s.postForm("/feedbacks/novo/", url.Values{
		service.FieldStudentName: {""},
		service.FieldType:        {"x"},
		service.FieldSubject:     {model.SubjectFinance},
	}, support)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "informe o nome do aluno")

	count, err := s.app.ReportService.List(context.Background(), report.Filter{}, "")
	require.NoError(t, err)
	assert.Zero(t, count.Page.Total)
}

func TestUpdateFeedback(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")
	fb := s.seed("Ana", model.TypePraise, time.Now())

	rec := s.postForm("/feedbacks/"+itoa(fb.ID)+"/", url.Values{
		"action": {"status"},
		"status": {model.StatusResolved},
	}, support)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/feedbacks/"+itoa(fb.ID)+"/?ok=status", rec.Header().Get("Location"))

	stored, err := s.app.FeedbackService.ByID(context.Background(), fb.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusResolved, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)

	rec = s.postForm("/feedbacks/"+itoa(fb.ID)+"/", url.Values{
		"action": {"status"},
		"status": {"arquivado"},
	}, support)
	assert.Equal(t, "/feedbacks/"+itoa(fb.ID)+"/", rec.Header().Get("Location"), "invalid status: no flash")

	rec = s.postForm("/feedbacks/"+itoa(fb.ID)+"/", url.Values{
		"action":       {"comment"},
		"author_name":  {""},
		"comment_text": {"Contato feito"},
	}, support)
	assert.Equal(t, "/feedbacks/"+itoa(fb.ID)+"/?ok=comment", rec.Header().Get("Location"))

	rec = s.get("/feedbacks/"+itoa(fb.ID)+"/?ok=comment", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Contato feito")
	assert.Contains(t, rec.Body.String(), "Comentário adicionado.")

	rec = s.postForm("/feedbacks/999/", url.Values{"action": {"status"}, "status": {model.StatusPending}}, support)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.get("/feedbacks/abc/", support)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExports(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")
	s.seed("Ana", model.TypePraise, time.Now())
	s.seed("Bruno", model.TypeComplaint, time.Now())

	rec := s.get("/export/csv/?tipo=elogio", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "feedbacks.csv")

	r := csv.NewReader(rec.Body)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Ana", records[1][2])

	rec = s.get("/export/xlsx/", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	rec = s.get("/export/pdf/", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = s.get("/export/pdf/?month=2024-13", support)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// csvIDs returns the id column of a CSV export, header excluded.
func csvIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()

	r := csv.NewReader(rec.Body)
	r.Comma = ';'
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)

	ids := []string{}
	for _, record := range records[1:] {
		ids = append(ids, record[0])
	}
	return ids
}

// xlsxIDs returns the ID column of an XLSX export, header excluded.
func xlsxIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows("Feedbacks")
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	ids := []string{}
	for _, row := range rows[1:] {
		ids = append(ids, row[0])
	}
	return ids
}

func TestExports_AgreeWithListing(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")
	ctx := context.Background()

	base := time.Date(2024, 2, 1, 10, 0, 0, 0, s.loc)
	resolved := map[int]bool{1: true, 3: true, 4: true}
	var want []string
	for i := range 5 {
		fb := s.seed("Aluno "+strconv.Itoa(i), model.TypeComplaint, base.Add(time.Duration(i)*time.Hour))
		if resolved[i] {
			_, err := s.app.FeedbackService.ChangeStatus(ctx, fb.ID, model.StatusResolved)
			require.NoError(t, err)
			want = append([]string{itoa(fb.ID)}, want...)
		}
	}
	require.Len(t, want, 3)

	rec := s.get("/export/csv/?status=resolvido", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, csvIDs(t, rec), "csv")

	rec = s.get("/export/xlsx/?status=resolvido", support)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, want, xlsxIDs(t, rec), "xlsx")

	filter := report.CompileFilter(url.Values{report.ParamStatus: {model.StatusResolved}}, s.loc)
	list, err := s.app.ReportService.List(ctx, filter, "")
	require.NoError(t, err)
	listed := []string{}
	for _, row := range list.Rows {
		listed = append(listed, itoa(row.ID))
	}
	assert.Equal(t, want, listed, "listing")

	// The end date includes its whole local day and nothing after it.
	lastMicro := s.seed("Fim do dia", model.TypePraise, time.Date(2024, 1, 15, 23, 59, 59, 999999000, s.loc))
	nextDay := s.seed("Dia seguinte", model.TypePraise, time.Date(2024, 1, 16, 0, 0, 1, 0, s.loc))

	rec = s.get("/export/csv/?ate=2024-01-15", support)
	require.Equal(t, http.StatusOK, rec.Code)
	ids := csvIDs(t, rec)
	assert.Contains(t, ids, itoa(lastMicro.ID))
	assert.NotContains(t, ids, itoa(nextDay.ID))
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	support := s.user("op", "Suporte")
	s.seed("Ana", model.TypePraise, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC))
	s.seed("Bruno", model.TypeComplaint, time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC))
	s.seed("Carla", model.TypeComplaint, time.Date(2024, 4, 11, 15, 0, 0, 0, time.UTC))

	rec := s.get("/stats/summary/?month=2024-03", support)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary report.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Complaints)

	rec = s.get("/stats/summary/?month=2024-03&tipo=elogio", support)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Total)

	rec = s.get("/stats/timeseries/?month=2024-03", support)
	require.Equal(t, http.StatusOK, rec.Code)
	var series report.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Len(t, series.Labels, 31)

	rec = s.get("/stats/breakdown/?month=marco", support)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.get("/stats/recent/", support)
	require.Equal(t, http.StatusOK, rec.Code)
	var recent struct {
		Items []report.RecentItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recent))
	require.Len(t, recent.Items, 3)
	assert.Equal(t, "Carla", recent.Items[0].Student)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
