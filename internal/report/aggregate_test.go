package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/feedbackdesk/internal/model"
)

func feedback(typ, status string, created time.Time) *model.Feedback {
	return &model.Feedback{
		StudentName: "Aluno",
		Type:        typ,
		Subject:     model.SubjectOther,
		Status:      status,
		CreatedAt:   created,
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{}, s)
}

func TestSummarize(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	resolvedAt := base.Add(10 * time.Hour)
	resolvedLater := base.Add(5 * time.Hour)

	r1 := feedback(model.TypeComplaint, model.StatusResolved, base)
	r1.ResolvedAt = &resolvedAt
	r2 := feedback(model.TypePraise, model.StatusResolved, base)
	r2.ResolvedAt = &resolvedLater
	r3 := feedback(model.TypeSuggestion, model.StatusResolved, base) // resolved without timestamp

	records := []*model.Feedback{
		r1, r2, r3,
		feedback(model.TypeComplaint, model.StatusPending, base),
		feedback(model.TypeComplaint, model.StatusInReview, base),
		feedback("legado", model.StatusPending, base),
	}

	s := Summarize(records)
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 1, s.Praise)
	assert.Equal(t, 3, s.Complaints)
	assert.Equal(t, 1, s.Suggestions)
	assert.Equal(t, 3, s.Resolved)
	assert.Equal(t, 7.5, s.AvgResolutionHours)
	assert.Equal(t, 50.0, s.ResolutionRatePct)
}

func TestSummarize_RoundsToOneDecimal(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*model.Feedback{
		feedback(model.TypePraise, model.StatusResolved, base),
		feedback(model.TypePraise, model.StatusPending, base),
		feedback(model.TypePraise, model.StatusPending, base),
	}
	assert.Equal(t, 33.3, Summarize(records).ResolutionRatePct)
}

func TestNewBreakdown(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(typ, status, course, operator string) *model.Feedback {
		fb := feedback(typ, status, base)
		fb.CourseName = model.Optional(course)
		fb.OperatorName = model.Optional(operator)
		return fb
	}

	records := []*model.Feedback{
		mk(model.TypeSuggestion, model.StatusResolved, "Direito", "Bia"),
		mk(model.TypePraise, model.StatusPending, "Direito", "Ana"),
		mk(model.TypePraise, model.StatusPending, "", "Ana"),
		mk(model.TypePraise, model.StatusPending, "Medicina", ""),
	}

	b := NewBreakdown(records)

	assert.Equal(t, []Bucket{{"Elogio", 3}, {"Sugestão", 1}}, b.Type, "choice order, absent keys omitted")
	assert.Equal(t, []Bucket{{"Pendente", 3}, {"Resolvido", 1}}, b.Status)
	assert.Equal(t, []Bucket{{"Outros", 4}}, b.Subject)
	assert.Equal(t, []Bucket{{"Direito", 2}, {"Medicina", 1}, {EmptyLabel, 1}}, b.Course)
	assert.Equal(t, []Bucket{{"Ana", 2}, {"Bia", 1}, {EmptyLabel, 1}}, b.Operator)
}

func TestNewBreakdown_UnknownKeysAfterChoices(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []*model.Feedback{
		feedback("zeta", model.StatusPending, base),
		feedback(model.TypePraise, model.StatusPending, base),
		feedback("alfa", model.StatusPending, base),
	}

	b := NewBreakdown(records)
	assert.Equal(t, []Bucket{{"Elogio", 1}, {"alfa", 1}, {"zeta", 1}}, b.Type)
}

func TestNewBreakdown_OperatorCap(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var records []*model.Feedback
	for i := 0; i < 12; i++ {
		fb := feedback(model.TypePraise, model.StatusPending, base)
		fb.OperatorName = model.Optional(fmt.Sprintf("op%02d", i))
		records = append(records, fb)
	}

	b := NewBreakdown(records)
	require.Len(t, b.Operator, TopOperators)
	assert.Equal(t, "op00", b.Operator[0].Label, "ties broken by label")
	assert.Equal(t, "op07", b.Operator[TopOperators-1].Label)
}

func TestDailySeries(t *testing.T) {
	loc := fortaleza(t)
	start, end, err := MonthBounds("2024-02", loc)
	require.NoError(t, err)

	records := []*model.Feedback{
		// 2024-02-01 01:00 local
		feedback(model.TypePraise, model.StatusResolved, time.Date(2024, 2, 1, 4, 0, 0, 0, time.UTC)),
		// 2024-02-01 23:30 local, already the 2nd in UTC
		feedback(model.TypePraise, model.StatusPending, time.Date(2024, 2, 2, 2, 30, 0, 0, time.UTC)),
		feedback(model.TypePraise, model.StatusInReview, time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC)),
	}

	s := DailySeries(records, start, end, loc)

	require.Len(t, s.Labels, 29, "leap year February")
	assert.Equal(t, "2024-02-01", s.Labels[0])
	assert.Equal(t, "2024-02-29", s.Labels[28])
	assert.Equal(t, 2, s.Total[0])
	assert.Equal(t, 1, s.Resolved[0])
	assert.Equal(t, 1, s.Pending[0])
	assert.Equal(t, 0, s.Total[1])
	assert.Equal(t, 1, s.Pending[28])
}

func TestRecentItems(t *testing.T) {
	loc := fortaleza(t)
	fb := feedback(model.TypePraise, model.StatusInReview, time.Date(2024, 2, 1, 15, 4, 0, 0, time.UTC))
	fb.ID = 7
	fb.Subject = model.SubjectContent

	items := RecentItems([]*model.Feedback{fb}, loc)
	require.Len(t, items, 1)
	assert.Equal(t, RecentItem{
		ID:        7,
		Student:   "Aluno",
		Status:    "Em análise",
		StatusKey: model.StatusInReview,
		Subject:   "Conteúdo",
		Created:   "2024-02-01 12:04",
	}, items[0])
}
