package report

import (
	"errors"
	"fmt"
	"time"
)

const MonthLayout = "2006-01"

var ErrInvalidMonth = errors.New("month must be YYYY-MM")

// MonthBounds returns [start, end) for a YYYY-MM month in loc.
// December rolls over into January of the next year.
func MonthBounds(month string, loc *time.Location) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)
	return start, end, nil
}

// CurrentMonth formats now as YYYY-MM in loc.
func CurrentMonth(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(MonthLayout)
}

// MonthOrCurrent returns month, or the current month when month is blank.
func MonthOrCurrent(month string, now time.Time, loc *time.Location) string {
	if month == "" {
		return CurrentMonth(now, loc)
	}
	return month
}
