package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

func leadIDs(leads []domain.Lead) []string {
	out := []string{}
	for _, lead := range leads {
		out = append(out, lead.ID)
	}
	return out
}

func taskIDs(tasks []domain.Task) []string {
	out := []string{}
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func TestFilterLeads(t *testing.T) {
	leads := []domain.Lead{
		{ID: "a", Name: "Ada", Business: "Harbor Cafe", Email: "ada@harbor.example", Status: "New", Source: domain.SourceReferral, Owner: "Kim", CreatedAt: timeutil.AddDays(now, -1)},
		{ID: "b", Name: "Ben", Business: "Peak Fitness", Phone: "555-0100", Status: "Won", Source: domain.SourceWebsite, Owner: "Lee", CreatedAt: timeutil.AddDays(now, -10)},
		{ID: "c", Name: "Cy", Business: "Harbor Books", Status: "New", Source: domain.SourceWebsite, Owner: "Lee", CreatedAt: now},
	}

	cases := []struct {
		name   string
		filter LeadFilter
		want   []string
	}{
		{"all", LeadFilter{Status: FilterAll, Source: FilterAll}, []string{"a", "b", "c"}},
		{"query business", LeadFilter{Query: "HARBOR"}, []string{"a", "c"}},
		{"query phone", LeadFilter{Query: "0100"}, []string{"b"}},
		{"status", LeadFilter{Status: "New"}, []string{"a", "c"}},
		{"source and owner", LeadFilter{Source: string(domain.SourceWebsite), Owner: "Lee"}, []string{"b", "c"}},
		{"from", LeadFilter{From: ptrTime(timeutil.AddDays(now, -2))}, []string{"a", "c"}},
		{"to", LeadFilter{To: ptrTime(timeutil.StartOfDay(timeutil.AddDays(now, -10)))}, []string{"b"}},
		{"none", LeadFilter{Query: "zzz"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, leadIDs(FilterLeads(leads, tc.filter)))
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestPipelineTotal(t *testing.T) {
	leads := []domain.Lead{
		{Status: "New", EstimatedValue: 100},
		{Status: "Won", EstimatedValue: 1000},
		{Status: "Lost", EstimatedValue: 1000},
		{Status: "Proposal Sent", EstimatedValue: 250},
	}
	assert.Equal(t, 350.0, PipelineTotal(leads))
}

func TestFilterTasks(t *testing.T) {
	// now is Wednesday 2026-03-11; the week runs Monday 9th to Sunday 15th.
	tasks := []domain.Task{
		{ID: "today", Title: "Call Ada", DueDate: now.Add(2 * time.Hour), Priority: domain.PriorityHigh, Status: domain.TaskTodo, RelatedType: domain.RelatedLead},
		{ID: "monday", Title: "Review copy", Description: "homepage draft", DueDate: time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC), Priority: domain.PriorityLow, Status: domain.TaskInProgress, RelatedType: domain.RelatedProject},
		{ID: "next-week", Title: "Invoice", DueDate: time.Date(2026, time.March, 16, 9, 0, 0, 0, time.UTC), Priority: domain.PriorityMedium, Status: domain.TaskDone, RelatedType: domain.RelatedClient},
	}

	cases := []struct {
		name   string
		filter TaskFilter
		want   []string
	}{
		{"all", TaskFilter{Due: DueAll}, []string{"today", "monday", "next-week"}},
		{"today", TaskFilter{Due: DueToday}, []string{"today"}},
		{"week", TaskFilter{Due: DueWeek}, []string{"today", "monday"}},
		{"overdue", TaskFilter{Due: DueOverdue}, []string{"monday"}},
		{"query description", TaskFilter{Query: "Homepage"}, []string{"monday"}},
		{"query related type", TaskFilter{Query: "client"}, []string{"next-week"}},
		{"priority", TaskFilter{Priority: string(domain.PriorityHigh)}, []string{"today"}},
		{"status", TaskFilter{Status: string(domain.TaskDone)}, []string{"next-week"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, taskIDs(FilterTasks(tasks, tc.filter, now)))
		})
	}
}

func TestFilterClientsAndProjects(t *testing.T) {
	clients := []domain.Client{
		{ID: "c1", Name: "Northstar Dental", ContactName: "Dr. Jasmine Patel", Email: "jpatel@northstardental.com"},
		{ID: "c2", Name: "Baker Home Realty", ContactName: "Mason Baker", Email: "mason@bakerhome.com"},
	}
	assert.Len(t, FilterClients(clients, ""), 2)
	got := FilterClients(clients, "  PATEL ")
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.Empty(t, FilterClients(clients, "zzz"))

	projects := []domain.Project{
		{ID: "p1", Name: "Growth Site Redesign", Status: domain.ProjectInProgress, Tags: []string{"Web Design", "SEO"}},
		{ID: "p2", Name: "Neighborhood Showcase", Status: domain.ProjectComplete, Tags: []string{"CMS"}},
	}
	got2 := FilterProjects(projects, "seo")
	require.Len(t, got2, 1)
	assert.Equal(t, "p1", got2[0].ID)
	assert.Len(t, FilterProjects(projects, "complete"), 1)
}
