package memory

import "crmcore/pkg/domain"

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) LeadStatuses() []domain.LeadStatus {
	return append([]string{}, v.state.leadStatuses...)
}

func (v transactionView) ListLeads() []Lead {
	out := make([]Lead, 0, len(v.state.leads))
	for _, lead := range v.state.leads {
		out = append(out, decorateLead(v.state, cloneLead(lead)))
	}
	return out
}

func (v transactionView) ListClients() []Client {
	out := make([]Client, 0, len(v.state.clients))
	for _, client := range v.state.clients {
		out = append(out, cloneClient(client))
	}
	return out
}

func (v transactionView) ListProjects() []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, project := range v.state.projects {
		out = append(out, cloneProject(project))
	}
	return out
}

func (v transactionView) ListTasks() []Task {
	out := make([]Task, 0, len(v.state.tasks))
	for _, task := range v.state.tasks {
		out = append(out, cloneTask(task))
	}
	return out
}

func (v transactionView) ListActivity() []ActivityItem {
	return append([]ActivityItem{}, v.state.activity...)
}

func (v transactionView) ListRevenue() []RevenuePoint {
	return append([]RevenuePoint{}, v.state.revenue...)
}

func (v transactionView) FindLead(id string) (Lead, bool) {
	idx := indexOfLead(v.state, id)
	if idx < 0 {
		return Lead{}, false
	}
	return decorateLead(v.state, cloneLead(v.state.leads[idx])), true
}

func (v transactionView) FindClient(id string) (Client, bool) {
	idx := indexOfClient(v.state, id)
	if idx < 0 {
		return Client{}, false
	}
	return cloneClient(v.state.clients[idx]), true
}

func (v transactionView) FindProject(id string) (Project, bool) {
	idx := indexOfProject(v.state, id)
	if idx < 0 {
		return Project{}, false
	}
	return cloneProject(v.state.projects[idx]), true
}

func (v transactionView) FindTask(id string) (Task, bool) {
	idx := indexOfTask(v.state, id)
	if idx < 0 {
		return Task{}, false
	}
	return cloneTask(v.state.tasks[idx]), true
}
