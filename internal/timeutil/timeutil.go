// Package timeutil holds the clock abstraction and the date arithmetic and
// formatting shared by the store, the metrics engine and the transports.
package timeutil

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock. A nil Location means time.Local.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// layouts accepted by ParseISO, most specific first.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 timestamp or calendar date. Values without an
// offset are interpreted in loc (time.Local when nil).
func ParseISO(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: unrecognised timestamp %q", value)
}

// FormatISO renders t as RFC 3339 with its own offset.
func FormatISO(t time.Time) string {
	return t.Format(time.RFC3339)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping the wall-clock time.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// StartOfWeek returns midnight of the Monday on or before t.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return AddDays(day, -offset)
}

// SameDay reports whether a and b fall on the same calendar day in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsToday reports whether t falls on now's calendar day.
func IsToday(t, now time.Time) bool {
	return SameDay(t, now)
}

// IsTomorrow reports whether t falls on the day after now.
func IsTomorrow(t, now time.Time) bool {
	return SameDay(t, AddDays(now, 1))
}

// IsThisWeek reports whether t falls in now's Monday-based week.
func IsThisWeek(t, now time.Time) bool {
	start := StartOfWeek(now)
	end := AddDays(start, 7)
	t = t.In(now.Location())
	return !t.Before(start) && t.Before(end)
}

// IsOverdue reports whether t is before the start of now's day.
func IsOverdue(t, now time.Time) bool {
	return t.Before(StartOfDay(now))
}

// DueLabel renders the short due-date hint shown next to tasks.
func DueLabel(due, now time.Time) string {
	switch {
	case IsToday(due, now):
		return "Due today"
	case IsTomorrow(due, now):
		return "Due tomorrow"
	case IsOverdue(due, now):
		return "Overdue"
	default:
		return "Due " + due.In(now.Location()).Format("Jan 2")
	}
}

// FormatDate renders t as "Jan 2, 2006".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatDateTime renders t as "Jan 2, 2006 3:04 PM".
func FormatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

// Relative renders t relative to now, e.g. "3 days ago" or "2 hours from now".
func Relative(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatCurrency renders a whole-dollar amount such as "$12,000".
func FormatCurrency(amount float64) string {
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return "-$" + humanize.Comma(-rounded)
	}
	return "$" + humanize.Comma(rounded)
}

// FormatPercent renders v with one decimal, e.g. "66.7%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
