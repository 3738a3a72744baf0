package core

import (
	"strings"

	"crmcore/pkg/domain"
)

// Search result limits per group and overall.
const (
	searchLeadLimit    = 4
	searchClientLimit  = 3
	searchProjectLimit = 3
	searchTotalLimit   = 8
)

// SearchHit is one entry of the global search.
type SearchHit struct {
	ID    string            `json:"id"`
	Label string            `json:"label"`
	Group domain.EntityType `json:"group"`
}

// Search matches query case-insensitively against leads, clients and projects.
// Leads come first, then clients, then projects. A blank query matches nothing.
func (s *Service) Search(query string) []SearchHit {
	value := strings.ToLower(strings.TrimSpace(query))
	hits := []SearchHit{}
	if value == "" {
		return hits
	}
	match := func(fields ...string) bool {
		return strings.Contains(strings.ToLower(strings.Join(fields, " ")), value)
	}

	n := 0
	for _, lead := range s.store.ListLeads() {
		if n == searchLeadLimit {
			break
		}
		if match(lead.Name, lead.Business, lead.Email) {
			hits = append(hits, SearchHit{ID: lead.ID, Label: lead.Business + " • " + lead.Name, Group: domain.EntityLead})
			n++
		}
	}
	n = 0
	for _, client := range s.store.ListClients() {
		if n == searchClientLimit {
			break
		}
		if match(client.Name, client.ContactName, client.Email) {
			hits = append(hits, SearchHit{ID: client.ID, Label: client.Name, Group: domain.EntityClient})
			n++
		}
	}
	n = 0
	for _, project := range s.store.ListProjects() {
		if n == searchProjectLimit {
			break
		}
		if match(project.Name) {
			hits = append(hits, SearchHit{ID: project.ID, Label: project.Name, Group: domain.EntityProject})
			n++
		}
	}
	if len(hits) > searchTotalLimit {
		hits = hits[:searchTotalLimit]
	}
	return hits
}

// RelationLabel describes what a task is attached to, e.g. "Grant Interiors
// lead". Missing targets fall back to the bare kind.
func (s *Service) RelationLabel(task domain.Task) string {
	switch task.RelatedType {
	case domain.RelatedLead:
		if lead, ok := s.store.GetLead(task.RelatedID); ok {
			return lead.Business + " lead"
		}
		return "Lead"
	case domain.RelatedClient:
		if client, ok := s.store.GetClient(task.RelatedID); ok {
			return client.Name + " client"
		}
		return "Client"
	default:
		if project, ok := s.store.GetProject(task.RelatedID); ok {
			return project.Name + " project"
		}
		return "Project"
	}
}
