package analytics

import (
	"strings"
	"time"

	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

// FilterAll matches every value of a select-style filter.
const FilterAll = "all"

// LeadFilter narrows the lead list. Empty or "all" fields match everything.
type LeadFilter struct {
	Query  string
	Status string
	Source string
	Owner  string
	// From and To bound CreatedAt by calendar day, both inclusive.
	From *time.Time
	To   *time.Time
}

func matchesSelect(filter, value string) bool {
	return filter == "" || filter == FilterAll || filter == value
}

func containsQuery(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(strings.Join(fields, " ")), query)
}

// FilterLeads applies f to leads, preserving order.
func FilterLeads(leads []domain.Lead, f LeadFilter) []domain.Lead {
	out := []domain.Lead{}
	for _, lead := range leads {
		if !containsQuery(f.Query, lead.Name, lead.Business, lead.Email, lead.Phone) {
			continue
		}
		if !matchesSelect(f.Status, lead.Status) || !matchesSelect(f.Source, string(lead.Source)) || !matchesSelect(f.Owner, lead.Owner) {
			continue
		}
		if f.From != nil && lead.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && lead.CreatedAt.After(f.To.Add(24*time.Hour)) {
			continue
		}
		out = append(out, lead)
	}
	return out
}

// PipelineTotal sums the estimated value of leads that are neither won nor lost.
func PipelineTotal(leads []domain.Lead) float64 {
	var total float64
	for _, lead := range leads {
		if lead.Status != domain.StatusWon && lead.Status != domain.StatusLost {
			total += lead.EstimatedValue
		}
	}
	return total
}

// FilterClients keeps clients whose name, contact or email contains query.
func FilterClients(clients []domain.Client, query string) []domain.Client {
	out := []domain.Client{}
	for _, client := range clients {
		if containsQuery(query, client.Name, client.ContactName, client.Email) {
			out = append(out, client)
		}
	}
	return out
}

// FilterProjects keeps projects whose name, status or tags contain query.
func FilterProjects(projects []domain.Project, query string) []domain.Project {
	out := []domain.Project{}
	for _, project := range projects {
		if containsQuery(query, project.Name, string(project.Status), strings.Join(project.Tags, " ")) {
			out = append(out, project)
		}
	}
	return out
}

// DueFilter selects tasks by due date.
type DueFilter string

// Due filters.
const (
	DueAll     DueFilter = "all"
	DueToday   DueFilter = "today"
	DueWeek    DueFilter = "week"
	DueOverdue DueFilter = "overdue"
)

// TaskFilter narrows the task list.
type TaskFilter struct {
	Query    string
	Due      DueFilter
	Priority string
	Status   string
}

// FilterTasks applies f to tasks, preserving order.
func FilterTasks(tasks []domain.Task, f TaskFilter, now time.Time) []domain.Task {
	out := []domain.Task{}
	for _, task := range tasks {
		if !containsQuery(f.Query, task.Title, task.Description, string(task.RelatedType)) {
			continue
		}
		if !matchesDue(f.Due, task.DueDate, now) {
			continue
		}
		if !matchesSelect(f.Priority, string(task.Priority)) || !matchesSelect(f.Status, string(task.Status)) {
			continue
		}
		out = append(out, task)
	}
	return out
}

func matchesDue(filter DueFilter, due, now time.Time) bool {
	switch filter {
	case DueToday:
		return timeutil.IsToday(due, now)
	case DueWeek:
		return timeutil.IsThisWeek(due, now)
	case DueOverdue:
		return timeutil.IsOverdue(due, now)
	default:
		return true
	}
}
