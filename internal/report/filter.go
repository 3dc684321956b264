package report

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/templui/feedbackdesk/internal/model"
	"golang.org/x/text/cases"
)

// Query parameter names shared by the list, export and stats endpoints.
const (
	ParamStudent  = "aluno"
	ParamOperator = "operador"
	ParamCourse   = "curso"
	ParamType     = "tipo"
	ParamSubject  = "assunto"
	ParamStatus   = "status"
	ParamFrom     = "de"
	ParamTo       = "ate"
)

// FilterParams lists the filter keys in form order.
var FilterParams = []string{
	ParamStudent, ParamOperator, ParamCourse, ParamType, ParamSubject, ParamStatus, ParamFrom, ParamTo,
}

const dateLayout = "2006-01-02"

type BoundState int

const (
	BoundAbsent  BoundState = iota // parameter missing or blank
	BoundSet                       // parsed, At is the effective instant
	BoundIgnored                   // present but malformed, imposes no constraint
)

// DateBound is the parse result of a de/ate parameter.
type DateBound struct {
	State BoundState
	Raw   string
	At    time.Time
}

func (b DateBound) Set() bool { return b.State == BoundSet }

// Filter is the compiled form of the list filters. Zero value matches everything.
type Filter struct {
	Student  string
	Operator string
	Course   string
	Type     string
	Subject  string
	Status   string
	From     DateBound // inclusive, local midnight
	To       DateBound // inclusive, through the last microsecond of the day
}

// CompileFilter reads the filter parameters from q. Dates are interpreted in loc.
// Bad dates never fail the request: they compile to BoundIgnored.
func CompileFilter(q url.Values, loc *time.Location) Filter {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }

	return Filter{
		Student:  get(ParamStudent),
		Operator: get(ParamOperator),
		Course:   get(ParamCourse),
		Type:     get(ParamType),
		Subject:  get(ParamSubject),
		Status:   get(ParamStatus),
		From:     parseFrom(get(ParamFrom), loc),
		To:       parseTo(get(ParamTo), loc),
	}
}

func parseDay(raw string, loc *time.Location) (time.Time, BoundState) {
	if raw == "" {
		return time.Time{}, BoundAbsent
	}
	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, BoundIgnored
	}
	return day, BoundSet
}

func parseFrom(raw string, loc *time.Location) DateBound {
	day, state := parseDay(raw, loc)
	return DateBound{State: state, Raw: raw, At: day}
}

func parseTo(raw string, loc *time.Location) DateBound {
	day, state := parseDay(raw, loc)
	if state == BoundSet {
		day = time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999000, loc)
	}
	return DateBound{State: state, Raw: raw, At: day}
}

// Active reports whether any predicate constrains the result.
func (f Filter) Active() bool {
	return f.Student != "" || f.Operator != "" || f.Course != "" ||
		f.Type != "" || f.Subject != "" || f.Status != "" ||
		f.From.Set() || f.To.Set()
}

// Values re-encodes the filter as query parameters, keeping malformed dates
// as typed so forms can redisplay them.
func (f Filter) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set(ParamStudent, f.Student)
	set(ParamOperator, f.Operator)
	set(ParamCourse, f.Course)
	set(ParamType, f.Type)
	set(ParamSubject, f.Subject)
	set(ParamStatus, f.Status)
	set(ParamFrom, f.From.Raw)
	set(ParamTo, f.To.Raw)
	return v
}

// containsFold is a Unicode case-insensitive substring test. A NULL column never matches.
func containsFold(value *string, needle string) bool {
	if value == nil {
		return false
	}
	fold := cases.Fold() // Casers carry state, one per call
	return strings.Contains(fold.String(*value), fold.String(needle))
}

// Match is the in-memory form of the filter. It selects the same records as Conditions.
func (f Filter) Match(fb *model.Feedback) bool {
	if f.Student != "" && !containsFold(&fb.StudentName, f.Student) {
		return false
	}
	if f.Operator != "" && !containsFold(fb.OperatorName, f.Operator) {
		return false
	}
	if f.Course != "" && !containsFold(fb.CourseName, f.Course) {
		return false
	}
	if f.Type != "" && fb.Type != f.Type {
		return false
	}
	if f.Subject != "" && fb.Subject != f.Subject {
		return false
	}
	if f.Status != "" && fb.Status != f.Status {
		return false
	}
	if f.From.Set() && fb.CreatedAt.Before(f.From.At) {
		return false
	}
	if f.To.Set() && fb.CreatedAt.After(f.To.At) {
		return false
	}
	return true
}

// Args collects positional query arguments and hands out $n placeholders.
type Args struct {
	values []any
}

func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

func (a *Args) Values() []any {
	return a.values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likeContains(column, needle string, args *Args) string {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
	return "LOWER(" + column + ") LIKE " + args.Add(pattern) + ` ESCAPE '\'`
}

// Conditions renders the filter as SQL predicates over the feedbacks table,
// to be joined with AND. Timestamps are bound in UTC, the storage timezone.
func (f Filter) Conditions(args *Args) []string {
	var conds []string
	if f.Student != "" {
		conds = append(conds, likeContains("student_name", f.Student, args))
	}
	if f.Operator != "" {
		conds = append(conds, likeContains("operator_name", f.Operator, args))
	}
	if f.Course != "" {
		conds = append(conds, likeContains("course_name", f.Course, args))
	}
	if f.Type != "" {
		conds = append(conds, "type = "+args.Add(f.Type))
	}
	if f.Subject != "" {
		conds = append(conds, "subject = "+args.Add(f.Subject))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+args.Add(f.Status))
	}
	if f.From.Set() {
		conds = append(conds, "created_at >= "+args.Add(f.From.At.UTC()))
	}
	if f.To.Set() {
		conds = append(conds, "created_at <= "+args.Add(f.To.At.UTC()))
	}
	return conds
}

// Where joins conds into a WHERE clause, or "" when there are none.
func Where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
