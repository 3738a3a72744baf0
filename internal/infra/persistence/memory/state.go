package memory

import (
	"strings"
	"time"

	"crmcore/pkg/domain"
)

// memoryState holds the workspace collections. Every slice is ordered newest
// first except leadStatuses (configuration order) and revenue (chronological).
type memoryState struct {
	leadStatuses []string
	leads        []Lead
	clients      []Client
	projects     []Project
	tasks        []Task
	activity     []ActivityItem
	revenue      []RevenuePoint
}

func newMemoryState() memoryState {
	return memoryState{
		leadStatuses: domain.DefaultLeadStatuses(),
		leads:        []Lead{},
		clients:      []Client{},
		projects:     []Project{},
		tasks:        []Task{},
		activity:     []ActivityItem{},
		revenue:      []RevenuePoint{},
	}
}

func (s memoryState) clone() memoryState {
	cloned := memoryState{
		leadStatuses: append([]string{}, s.leadStatuses...),
		leads:        make([]Lead, len(s.leads)),
		clients:      make([]Client, len(s.clients)),
		projects:     make([]Project, len(s.projects)),
		tasks:        make([]Task, len(s.tasks)),
		activity:     append([]ActivityItem{}, s.activity...),
		revenue:      append([]RevenuePoint{}, s.revenue...),
	}
	for i, v := range s.leads {
		cloned.leads[i] = cloneLead(v)
	}
	for i, v := range s.clients {
		cloned.clients[i] = cloneClient(v)
	}
	for i, v := range s.projects {
		cloned.projects[i] = cloneProject(v)
	}
	for i, v := range s.tasks {
		cloned.tasks[i] = cloneTask(v)
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	cloned := state.clone()
	for i, lead := range cloned.leads {
		cloned.leads[i] = decorateLead(&cloned, lead)
	}
	return Snapshot{
		LeadStatuses: cloned.leadStatuses,
		Leads:        cloned.leads,
		Clients:      cloned.clients,
		Projects:     cloned.projects,
		Tasks:        cloned.tasks,
		Activity:     cloned.activity,
		Revenue:      cloned.revenue,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := memoryState{
		leadStatuses: s.LeadStatuses,
		leads:        s.Leads,
		clients:      s.Clients,
		projects:     s.Projects,
		tasks:        s.Tasks,
		activity:     s.Activity,
		revenue:      s.Revenue,
	}
	return state.clone()
}

// migrateSnapshot normalises a seed before import: nil collections become
// empty, the status set is trimmed and de-duplicated (falling back to the
// defaults when nothing usable remains), the activity feed is capped and
// denormalised task references are dropped in favour of derived ones.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Leads == nil {
		snapshot.Leads = []Lead{}
	}
	if snapshot.Clients == nil {
		snapshot.Clients = []Client{}
	}
	if snapshot.Projects == nil {
		snapshot.Projects = []Project{}
	}
	if snapshot.Tasks == nil {
		snapshot.Tasks = []Task{}
	}
	if snapshot.Activity == nil {
		snapshot.Activity = []ActivityItem{}
	}
	if snapshot.Revenue == nil {
		snapshot.Revenue = []RevenuePoint{}
	}

	statuses := make([]string, 0, len(snapshot.LeadStatuses))
	for _, label := range snapshot.LeadStatuses {
		clean := strings.TrimSpace(label)
		if clean == "" || containsFold(statuses, clean) {
			continue
		}
		statuses = append(statuses, clean)
	}
	if len(statuses) == 0 {
		statuses = domain.DefaultLeadStatuses()
	}
	snapshot.LeadStatuses = statuses

	if len(snapshot.Activity) > domain.ActivityLogCapacity {
		snapshot.Activity = snapshot.Activity[:domain.ActivityLogCapacity]
	}

	leads := make([]Lead, len(snapshot.Leads))
	for i, lead := range snapshot.Leads {
		if lead.Timeline == nil {
			lead.Timeline = []TimelineEntry{}
		}
		if lead.Files == nil {
			lead.Files = []FileLink{}
		}
		lead.TaskIDs = nil
		leads[i] = lead
	}
	snapshot.Leads = leads

	clients := make([]Client, len(snapshot.Clients))
	for i, client := range snapshot.Clients {
		if client.Websites == nil {
			client.Websites = []string{}
		}
		clients[i] = client
	}
	snapshot.Clients = clients

	projects := make([]Project, len(snapshot.Projects))
	for i, project := range snapshot.Projects {
		if project.Tags == nil {
			project.Tags = []string{}
		}
		projects[i] = project
	}
	snapshot.Projects = projects

	return snapshot
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneLead(l Lead) Lead {
	cp := l
	cp.LastContacted = cloneTime(l.LastContacted)
	cp.Timeline = append([]TimelineEntry{}, l.Timeline...)
	cp.Files = append([]FileLink{}, l.Files...)
	if l.TaskIDs != nil {
		cp.TaskIDs = append([]string{}, l.TaskIDs...)
	}
	return cp
}

func cloneClient(c Client) Client {
	cp := c
	cp.Websites = append([]string{}, c.Websites...)
	return cp
}

func cloneProject(p Project) Project {
	cp := p
	cp.Tags = append([]string{}, p.Tags...)
	return cp
}

func cloneTask(t Task) Task {
	cp := t
	cp.Reminder = cloneTime(t.Reminder)
	return cp
}

func containsFold(values []string, candidate string) bool {
	for _, existing := range values {
		if strings.EqualFold(existing, candidate) {
			return true
		}
	}
	return false
}

func relatedTaskIDs(state *memoryState, relatedType domain.RelatedType, id string) []string {
	ids := []string{}
	for _, task := range state.tasks {
		if task.RelatedType == relatedType && task.RelatedID == id {
			ids = append(ids, task.ID)
		}
	}
	return ids
}

func decorateLead(state *memoryState, lead Lead) Lead {
	lead.TaskIDs = relatedTaskIDs(state, domain.RelatedLead, lead.ID)
	return lead
}

func indexOfLead(state *memoryState, id string) int {
	for i := range state.leads {
		if state.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfClient(state *memoryState, id string) int {
	for i := range state.clients {
		if state.clients[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfProject(state *memoryState, id string) int {
	for i := range state.projects {
		if state.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfTask(state *memoryState, id string) int {
	for i := range state.tasks {
		if state.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
