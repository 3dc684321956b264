package report

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/templui/feedbackdesk/internal/model"
)

// EmptyLabel stands in for a missing course or operator name.
const EmptyLabel = "—"

// TopOperators caps the operator breakdown.
const TopOperators = 8

type Summary struct {
	Praise             int     `json:"elogios"`
	Complaints         int     `json:"reclamacoes"`
	Suggestions        int     `json:"sugestoes"`
	Resolved           int     `json:"resolvidos"`
	Total              int     `json:"total"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	ResolutionRatePct  float64 `json:"taxa_resolucao_pct"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Summarize counts records by type and status and derives the resolution metrics.
// An empty set yields zeroes, never NaN.
func Summarize(records []*model.Feedback) Summary {
	var s Summary
	var resolvedWithTime int
	var totalHours float64

	for _, fb := range records {
		s.Total++
		switch fb.Type {
		case model.TypePraise:
			s.Praise++
		case model.TypeComplaint:
			s.Complaints++
		case model.TypeSuggestion:
			s.Suggestions++
		}
		if fb.Status != model.StatusResolved {
			continue
		}
		s.Resolved++
		if fb.ResolvedAt != nil {
			resolvedWithTime++
			totalHours += fb.ResolvedAt.Sub(fb.CreatedAt).Hours()
		}
	}

	if resolvedWithTime > 0 {
		s.AvgResolutionHours = round1(totalHours / float64(resolvedWithTime))
	}
	if s.Total > 0 {
		s.ResolutionRatePct = round1(100 * float64(s.Resolved) / float64(s.Total))
	}
	return s
}

type Bucket struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

type Breakdown struct {
	Type     []Bucket `json:"type"`
	Subject  []Bucket `json:"subject"`
	Status   []Bucket `json:"status"`
	Course   []Bucket `json:"course"`
	Operator []Bucket `json:"operator"`
}

// NewBreakdown groups records per category. Enumerated fields keep their
// declaration order; course and operator are ordered by count, operator capped
// at TopOperators.
func NewBreakdown(records []*model.Feedback) Breakdown {
	types := map[string]int{}
	subjects := map[string]int{}
	statuses := map[string]int{}
	courses := map[string]int{}
	operators := map[string]int{}

	for _, fb := range records {
		types[fb.Type]++
		subjects[fb.Subject]++
		statuses[fb.Status]++
		courses[labelOrEmpty(fb.CourseName)]++
		operators[labelOrEmpty(fb.OperatorName)]++
	}

	return Breakdown{
		Type:     choiceBuckets(model.TypeChoices, types),
		Subject:  choiceBuckets(model.SubjectChoices, subjects),
		Status:   choiceBuckets(model.StatusChoices, statuses),
		Course:   rankedBuckets(courses, 0),
		Operator: rankedBuckets(operators, TopOperators),
	}
}

func labelOrEmpty(s *string) string {
	if s == nil || *s == "" {
		return EmptyLabel
	}
	return *s
}

// choiceBuckets emits known keys in choice order, then unknown keys sorted.
func choiceBuckets(choices []model.Choice, counts map[string]int) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for _, c := range choices {
		if n, ok := counts[c.Key]; ok {
			buckets = append(buckets, Bucket{Label: c.Label, Value: n})
		}
	}
	var unknown []string
	for key := range counts {
		if !model.Valid(choices, key) {
			unknown = append(unknown, key)
		}
	}
	slices.Sort(unknown)
	for _, key := range unknown {
		label := key
		if label == "" {
			label = EmptyLabel
		}
		buckets = append(buckets, Bucket{Label: label, Value: counts[key]})
	}
	return buckets
}

// rankedBuckets orders by count desc, label asc. limit <= 0 keeps all.
func rankedBuckets(counts map[string]int, limit int) []Bucket {
	buckets := make([]Bucket, 0, len(counts))
	for label, n := range counts {
		buckets = append(buckets, Bucket{Label: label, Value: n})
	}
	slices.SortFunc(buckets, func(a, b Bucket) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if limit > 0 && len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

type Series struct {
	Labels   []string `json:"labels"`
	Total    []int    `json:"total"`
	Resolved []int    `json:"resolved"`
	Pending  []int    `json:"pending"`
}

// DailySeries buckets records by local creation day over [start, end). Every day
// in the range is present, including days without records. Resolved counts the
// records created that day that are currently resolved.
func DailySeries(records []*model.Feedback, start, end time.Time, loc *time.Location) Series {
	total := map[string]int{}
	resolved := map[string]int{}
	for _, fb := range records {
		day := fb.CreatedAt.In(loc).Format(dateLayout)
		total[day]++
		if fb.Status == model.StatusResolved {
			resolved[day]++
		}
	}

	s := Series{Labels: []string{}, Total: []int{}, Resolved: []int{}, Pending: []int{}}
	start = start.In(loc)
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for day := first; day.Before(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateLayout)
		t, r := total[key], resolved[key]
		s.Labels = append(s.Labels, key)
		s.Total = append(s.Total, t)
		s.Resolved = append(s.Resolved, r)
		s.Pending = append(s.Pending, max(t-r, 0))
	}
	return s
}

// RecentLimit is the size of the dashboard's recent feed.
const RecentLimit = 8

type RecentItem struct {
	ID        int64  `json:"id"`
	Student   string `json:"student"`
	Status    string `json:"status"`
	StatusKey string `json:"status_key"`
	Subject   string `json:"subject"`
	Created   string `json:"created"`
}

// RecentItems renders the compact dashboard feed, most recent first as given.
func RecentItems(records []*model.Feedback, loc *time.Location) []RecentItem {
	items := make([]RecentItem, 0, len(records))
	for _, fb := range records {
		items = append(items, RecentItem{
			ID:        fb.ID,
			Student:   fb.StudentName,
			Status:    fb.StatusLabel(),
			StatusKey: fb.Status,
			Subject:   fb.SubjectLabel(),
			Created:   fb.CreatedAt.In(loc).Format(TimestampLayout),
		})
	}
	return items
}

// TimestampLayout is the timestamp format shared by every export sink.
const TimestampLayout = "2006-01-02 15:04"

// DisplayLayout is the timestamp format of the HTML pages.
const DisplayLayout = "02/01/2006 15:04"
