package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

var now = time.Date(2026, time.March, 11, 14, 30, 0, 0, time.UTC)

func dailySeries(days int) []domain.RevenuePoint {
	series := make([]domain.RevenuePoint, 0, days)
	for i := 0; i < days; i++ {
		series = append(series, domain.RevenuePoint{Date: timeutil.AddDays(now, -(days - 1 - i)), Amount: 100})
	}
	return series
}

func TestTimeframeDays(t *testing.T) {
	expected := map[Timeframe]int{Timeframe7D: 7, Timeframe1M: 30, Timeframe3M: 90, Timeframe6M: 180, Timeframe1Y: 365}
	for tf, days := range expected {
		assert.Equal(t, days, tf.Days(), tf)
	}
	assert.Zero(t, Timeframe("2W").Days())
	assert.Len(t, Timeframes(), 5)
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe(" 1y ")
	require.NoError(t, err)
	assert.Equal(t, Timeframe1Y, tf)

	_, err = ParseTimeframe("2W")
	assert.True(t, errors.Is(err, ErrUnknownTimeframe))
}

func TestWindowStart(t *testing.T) {
	assert.Equal(t, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), WindowStart(now, Timeframe7D))
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), WindowStart(now, Timeframe("1D")))
}

func TestFilterRevenueByTimeframe(t *testing.T) {
	series := dailySeries(365)
	cases := []struct {
		tf   Timeframe
		want int
	}{
		{Timeframe7D, 7},
		{Timeframe1M, 30},
		{Timeframe3M, 90},
		{Timeframe6M, 180},
		{Timeframe1Y, 365},
	}
	for _, tc := range cases {
		t.Run(string(tc.tf), func(t *testing.T) {
			got := FilterRevenueByTimeframe(series, tc.tf, now)
			require.Len(t, got, tc.want)
			assert.True(t, timeutil.SameDay(got[len(got)-1].Date, now))
		})
	}

	week := FilterRevenueByTimeframe(series, Timeframe7D, now)
	assert.True(t, timeutil.SameDay(week[0].Date, timeutil.AddDays(now, -6)))
}

func TestFilterRevenueExcludesThresholdInstant(t *testing.T) {
	threshold := WindowStart(now, Timeframe7D)
	series := []domain.RevenuePoint{
		{Date: threshold, Amount: 1},
		{Date: threshold.Add(time.Second), Amount: 2},
	}
	got := FilterRevenueByTimeframe(series, Timeframe7D, now)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Amount)
}

func TestKPIs(t *testing.T) {
	in := Input{
		Leads: []domain.Lead{
			{Status: "New", EstimatedValue: 1000, CreatedAt: now.Add(-time.Hour)},
			{Status: "Negotiation", EstimatedValue: 2500, CreatedAt: timeutil.AddDays(now, -20)},
			{Status: domain.StatusWon, EstimatedValue: 9000, CreatedAt: timeutil.AddDays(now, -2)},
			{Status: domain.StatusWon, EstimatedValue: 4000, CreatedAt: timeutil.AddDays(now, -40)},
			{Status: domain.StatusLost, EstimatedValue: 700, CreatedAt: timeutil.AddDays(now, -3)},
		},
		Projects: []domain.Project{
			{Status: domain.ProjectInProgress},
			{Status: domain.ProjectComplete},
			{Status: domain.ProjectOnHold},
		},
		Tasks: []domain.Task{
			{Status: domain.TaskTodo, DueDate: timeutil.AddDays(now, -5)},
			{Status: domain.TaskInProgress, DueDate: now.Add(72 * time.Hour)},
			{Status: domain.TaskTodo, DueDate: now.Add(72*time.Hour + time.Minute)},
			{Status: domain.TaskDone, DueDate: now},
		},
		Revenue:   dailySeries(30),
		Timeframe: Timeframe7D,
	}

	kpis := KPIs(in, now)
	assert.Equal(t, 700.0, kpis.TotalRevenue)
	assert.Equal(t, 3, kpis.NewLeads)
	assert.Equal(t, 3500.0, kpis.PipelineValue)
	assert.InDelta(t, 66.666, kpis.ConversionRate, 0.01)
	assert.Equal(t, 2, kpis.ActiveProjects)
	assert.Equal(t, 2, kpis.TasksDueSoon)
}

func TestKPIsWithoutClosedLeads(t *testing.T) {
	kpis := KPIs(Input{
		Leads:     []domain.Lead{{Status: "New"}, {Status: "Contacted"}},
		Timeframe: Timeframe1M,
	}, now)
	assert.Zero(t, kpis.ConversionRate)

	empty := KPIs(Input{Timeframe: Timeframe1Y}, now)
	assert.Equal(t, KPISet{}, empty)
}

func TestLeadBreakdown(t *testing.T) {
	leads := []domain.Lead{{Status: "Won"}, {Status: "New"}, {Status: "Won"}, {Status: "Retired"}}
	got := LeadBreakdown(leads, []string{"New", "Contacted", "Won"})
	assert.Equal(t, []StatusCount{
		{Status: "New", Count: 1},
		{Status: "Contacted", Count: 0},
		{Status: "Won", Count: 2},
	}, got)
}

func TestDashboard(t *testing.T) {
	activity := []domain.ActivityItem{{ID: "activity_1", Message: "Added lead Acme"}}
	overview := Dashboard(Input{
		Leads:     []domain.Lead{{Status: "New", CreatedAt: now}},
		Revenue:   dailySeries(365),
		Timeframe: Timeframe1M,
	}, domain.DefaultLeadStatuses(), activity, now)

	assert.Equal(t, Timeframe1M, overview.Timeframe)
	assert.Len(t, overview.Revenue, 30)
	assert.Len(t, overview.Breakdown, len(domain.DefaultLeadStatuses()))
	assert.Equal(t, 1, overview.KPIs.NewLeads)
	assert.Equal(t, activity, overview.Activity)
}
