// Package analytics derives dashboard metrics from workspace snapshots. Every
// function is pure; the current instant is passed in by the caller.
package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

// ErrUnknownTimeframe is returned by ParseTimeframe for unsupported labels.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Timeframe selects the trailing window used for dashboard metrics.
type Timeframe string

// Supported timeframes.
const (
	Timeframe7D Timeframe = "7D"
	Timeframe1M Timeframe = "1M"
	Timeframe3M Timeframe = "3M"
	Timeframe6M Timeframe = "6M"
	Timeframe1Y Timeframe = "1Y"
)

// dueSoonDays is how far ahead an open task counts as due soon.
const dueSoonDays = 3

var timeframeDays = map[Timeframe]int{
	Timeframe7D: 7,
	Timeframe1M: 30,
	Timeframe3M: 90,
	Timeframe6M: 180,
	Timeframe1Y: 365,
}

// Timeframes lists the supported timeframes in display order.
func Timeframes() []Timeframe {
	return []Timeframe{Timeframe7D, Timeframe1M, Timeframe3M, Timeframe6M, Timeframe1Y}
}

// Days returns the window length, or 0 for an unknown timeframe.
func (tf Timeframe) Days() int {
	return timeframeDays[tf]
}

// Valid reports whether tf is supported.
func (tf Timeframe) Valid() bool {
	_, ok := timeframeDays[tf]
	return ok
}

// ParseTimeframe accepts labels such as "7D" or "1y".
func ParseTimeframe(value string) (Timeframe, error) {
	tf := Timeframe(strings.ToUpper(strings.TrimSpace(value)))
	if !tf.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeframe, value)
	}
	return tf, nil
}

// WindowStart returns the exclusive lower bound of the trailing window: the
// start of the day (days-1) days before now. Points strictly after it fall
// inside the window, so today counts as one of the days.
func WindowStart(now time.Time, tf Timeframe) time.Time {
	return timeutil.StartOfDay(timeutil.AddDays(now, -(tf.Days() - 1)))
}

// FilterRevenueByTimeframe keeps the points dated strictly after WindowStart.
func FilterRevenueByTimeframe(series []domain.RevenuePoint, tf Timeframe, now time.Time) []domain.RevenuePoint {
	threshold := WindowStart(now, tf)
	out := make([]domain.RevenuePoint, 0, len(series))
	for _, point := range series {
		if point.Date.After(threshold) {
			out = append(out, point)
		}
	}
	return out
}

// Input is the snapshot slice KPIs are computed from.
type Input struct {
	Leads     []domain.Lead
	Projects  []domain.Project
	Tasks     []domain.Task
	Revenue   []domain.RevenuePoint
	Timeframe Timeframe
}

// KPISet holds the headline dashboard numbers.
type KPISet struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	NewLeads       int     `json:"newLeads"`
	PipelineValue  float64 `json:"pipelineValue"`
	ConversionRate float64 `json:"conversionRate"`
	ActiveProjects int     `json:"activeProjects"`
	TasksDueSoon   int     `json:"tasksDueSoon"`
}

// KPIs computes the dashboard numbers. Only total revenue and new leads are
// windowed; the other figures describe the workspace as it stands.
func KPIs(in Input, now time.Time) KPISet {
	var kpis KPISet
	for _, point := range FilterRevenueByTimeframe(in.Revenue, in.Timeframe, now) {
		kpis.TotalRevenue += point.Amount
	}

	threshold := WindowStart(now, in.Timeframe)
	var won, lost int
	for _, lead := range in.Leads {
		if lead.CreatedAt.After(threshold) {
			kpis.NewLeads++
		}
		switch lead.Status {
		case domain.StatusWon:
			won++
		case domain.StatusLost:
			lost++
		default:
			kpis.PipelineValue += lead.EstimatedValue
		}
	}
	if won+lost > 0 {
		kpis.ConversionRate = float64(won) / float64(won+lost) * 100
	}

	for _, project := range in.Projects {
		if project.Status != domain.ProjectComplete {
			kpis.ActiveProjects++
		}
	}

	// Overdue tasks count as due soon.
	dueSoon := now.AddDate(0, 0, dueSoonDays)
	for _, task := range in.Tasks {
		if task.Status != domain.TaskDone && !task.DueDate.After(dueSoon) {
			kpis.TasksDueSoon++
		}
	}
	return kpis
}

// StatusCount is one bar of the lead funnel.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// LeadBreakdown counts leads per status in the order of statuses, including
// statuses nobody holds.
func LeadBreakdown(leads []domain.Lead, statuses []string) []StatusCount {
	counts := make(map[string]int, len(statuses))
	for _, lead := range leads {
		counts[lead.Status]++
	}
	out := make([]StatusCount, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	return out
}

// Overview bundles everything the dashboard renders.
type Overview struct {
	Timeframe Timeframe             `json:"timeframe"`
	KPIs      KPISet                `json:"kpis"`
	Revenue   []domain.RevenuePoint `json:"revenue"`
	Breakdown []StatusCount         `json:"breakdown"`
	Activity  []domain.ActivityItem `json:"activity"`
}

// Dashboard assembles the overview for the given timeframe.
func Dashboard(in Input, statuses []string, activity []domain.ActivityItem, now time.Time) Overview {
	return Overview{
		Timeframe: in.Timeframe,
		KPIs:      KPIs(in, now),
		Revenue:   FilterRevenueByTimeframe(in.Revenue, in.Timeframe, now),
		Breakdown: LeadBreakdown(in.Leads, statuses),
		Activity:  append([]domain.ActivityItem{}, activity...),
	}
}
