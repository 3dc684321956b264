package service

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/templui/feedbackdesk/internal/db/dbtest"
	"github.com/templui/feedbackdesk/internal/repository"
	"github.com/templui/feedbackdesk/internal/storage"
	"github.com/templui/feedbackdesk/internal/validation"
)

type fixture struct {
	feedbacks   repository.FeedbackRepository
	comments    repository.CommentRepository
	attachments *AttachmentService
	feedback    *FeedbackService
	reports     *ReportService
	users       *UserService
	auth        *AuthService
	storageDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database := dbtest.New(t)
	dir := t.TempDir()

	feedbacks := repository.NewFeedbackRepository(database)
	comments := repository.NewCommentRepository(database)
	attachments := NewAttachmentService(
		repository.NewAttachmentRepository(database),
		storage.NewLocalStorage(dir),
		validation.AttachmentConstraints{MaxSize: 1 << 20},
	)
	users := repository.NewUserRepository(database)
	auth := NewAuthService(users, "test-secret", false, time.Hour, "Suporte")

	loc, err := time.LoadLocation("America/Fortaleza")
	require.NoError(t, err)

	return &fixture{
		feedbacks:   feedbacks,
		comments:    comments,
		attachments: attachments,
		feedback:    NewFeedbackService(feedbacks, comments, attachments),
		reports:     NewReportService(feedbacks, loc),
		users:       NewUserService(users, auth),
		auth:        auth,
		storageDir:  dir,
	}
}

// upload builds a parsed multipart file header with the given declared type.
func upload(t *testing.T, name, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="anexos"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(4 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["anexos"][0]
}
