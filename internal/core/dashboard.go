package core

import (
	"time"

	"crmcore/internal/analytics"
	"crmcore/pkg/domain"
)

// Dashboard computes the overview for tf from one consistent snapshot.
func (s *Service) Dashboard(tf analytics.Timeframe) (analytics.Overview, error) {
	if !tf.Valid() {
		return analytics.Overview{}, analytics.ErrUnknownTimeframe
	}
	snap := s.store.ExportState()
	now := s.store.Now()
	in := analytics.Input{
		Leads:     snap.Leads,
		Projects:  snap.Projects,
		Tasks:     snap.Tasks,
		Revenue:   snap.Revenue,
		Timeframe: tf,
	}
	return analytics.Dashboard(in, snap.LeadStatuses, snap.Activity, now), nil
}

// LeadBoard groups leads by status in status-set order for the kanban view.
// Leads with a status outside the set are left out.
func (s *Service) LeadBoard() []LeadColumn {
	snap := s.store.ExportState()
	columns := make([]LeadColumn, 0, len(snap.LeadStatuses))
	index := make(map[string]int, len(snap.LeadStatuses))
	for i, status := range snap.LeadStatuses {
		index[status] = i
		columns = append(columns, LeadColumn{Status: status, Leads: []domain.Lead{}})
	}
	for _, lead := range snap.Leads {
		if i, ok := index[lead.Status]; ok {
			columns[i].Leads = append(columns[i].Leads, lead)
			columns[i].Value += lead.EstimatedValue
		}
	}
	return columns
}

// LeadColumn is one status lane of the lead board.
type LeadColumn struct {
	Status string        `json:"status"`
	Leads  []domain.Lead `json:"leads"`
	Value  float64       `json:"value"`
}

// FilterLeads returns the leads matching f, newest first.
func (s *Service) FilterLeads(f analytics.LeadFilter) []domain.Lead {
	return analytics.FilterLeads(s.store.ListLeads(), f)
}

// FilterTasks returns the tasks matching f relative to the store clock.
func (s *Service) FilterTasks(f analytics.TaskFilter) []domain.Task {
	return analytics.FilterTasks(s.store.ListTasks(), f, s.store.Now())
}

// Now returns the store clock reading.
func (s *Service) Now() time.Time {
	return s.store.Now()
}
