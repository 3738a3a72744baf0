package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2026, time.March, 11, 14, 30, 0, 0, time.UTC)

func TestParseISOAcceptsCommonLayouts(t *testing.T) {
	cases := map[string]time.Time{
		"2026-03-11T14:30:00Z":      now,
		"2026-03-11T16:30:00+02:00": now,
		"2026-03-11T14:30:00":       now,
		"2026-03-11":                time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := ParseISO(in, time.UTC)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
	}
	_, err := ParseISO("yesterday", time.UTC)
	assert.Error(t, err)
}

func TestFormatISORoundTrips(t *testing.T) {
	parsed, err := ParseISO(FormatISO(now), nil)
	require.NoError(t, err)
	assert.True(t, now.Equal(parsed))
}

func TestStartOfDayAndWeek(t *testing.T) {
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), StartOfDay(now))
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), StartOfWeek(now))
	sunday := time.Date(2026, time.March, 15, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))
}

func TestDayPredicates(t *testing.T) {
	assert.True(t, IsToday(now.Add(-14*time.Hour), now))
	assert.False(t, IsToday(now.Add(10*time.Hour), now))
	assert.True(t, IsTomorrow(AddDays(now, 1), now))
	assert.True(t, IsThisWeek(time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), now))
	assert.True(t, IsThisWeek(time.Date(2026, time.March, 15, 23, 59, 0, 0, time.UTC), now))
	assert.False(t, IsThisWeek(time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC), now))
	assert.True(t, IsOverdue(StartOfDay(now).Add(-time.Second), now))
	assert.False(t, IsOverdue(StartOfDay(now), now))
}

func TestDueLabel(t *testing.T) {
	assert.Equal(t, "Due today", DueLabel(now.Add(time.Hour), now))
	assert.Equal(t, "Due tomorrow", DueLabel(AddDays(now, 1), now))
	assert.Equal(t, "Overdue", DueLabel(AddDays(now, -2), now))
	assert.Equal(t, "Due Mar 20", DueLabel(AddDays(now, 9), now))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "Mar 11, 2026", FormatDate(now))
	assert.Equal(t, "Mar 11, 2026 2:30 PM", FormatDateTime(now))
	assert.Equal(t, "3 days ago", Relative(AddDays(now, -3), now))
	assert.Equal(t, "$12,000", FormatCurrency(12000))
	assert.Equal(t, "$1,235", FormatCurrency(1234.6))
	assert.Equal(t, "-$950", FormatCurrency(-950))
	assert.Equal(t, "66.7%", FormatPercent(200.0/3))
}

func TestClocks(t *testing.T) {
	assert.Equal(t, now, Fixed(now).Now())
	loc := time.FixedZone("test", 3*3600)
	assert.Equal(t, loc, SystemClock{Location: loc}.Now().Location())
	assert.False(t, SystemClock{}.Now().IsZero())
}
