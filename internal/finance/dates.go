package finance

import (
	"time"

	apperrors "financemanager/internal/errors"
)

// MonthKeyLayout formats a month bucket as 4-digit year, hyphen, 2-digit month.
const MonthKeyLayout = "2006-01"

// StartOfDay returns midnight at the beginning of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable microsecond of t's day.
// Microsecond precision keeps the bound inside the same day on Postgres.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Microsecond)
}

// StartOfMonth returns midnight on the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last microsecond of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Microsecond)
}

// MonthKey returns the "yyyy-MM" bucket for t.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// DaysBetween counts whole calendar days from the date of from to the date
// of to. The time-of-day of either value is ignored, so the result is the
// same as measuring from the start of from's day to the end of to's day.
func DaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// DateRange is an optional inclusive window. A nil bound is open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// NewDateRange normalises from to the start of its day and to to the end of
// its day. It rejects a range whose start falls after its end.
func NewDateRange(from, to *time.Time) (DateRange, error) {
	var r DateRange
	if from != nil {
		f := StartOfDay(*from)
		r.From = &f
	}
	if to != nil {
		t := EndOfDay(*to)
		r.To = &t
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return DateRange{}, apperrors.ErrInvalidDateRange
	}
	return r, nil
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
