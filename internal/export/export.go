// Package export renders filtered feedback rows as downloadable files.
// Every sink is a pure formatter over rows already selected and ordered by
// the repository; none of them queries or filters on its own.
package export

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/templui/feedbackdesk/internal/model"
	"github.com/templui/feedbackdesk/internal/report"
)

// Row caps per sink. Zero means unlimited.
const (
	CSVLimit        = 0
	XLSXLimit       = 2000
	PDFDetailLimit  = 200
	CSVDescMaxRunes = 500
)

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

var newlines = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// flatten puts a description on one line.
func flatten(desc *string) string {
	return strings.TrimSpace(newlines.Replace(model.Deref(desc)))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func timestamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(report.TimestampLayout)
}
