package domain

import (
	"context"
	"time"
)

// Transaction exposes the workspace mutations available within an atomic scope.
// Every mutation is total: unknown ids are silent no-ops and nothing errors.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time

	AddLeadStatus(label string)
	RemoveLeadStatus(label string)

	AddLead(LeadInput) string
	UpdateLead(id string, patch LeadPatch)
	DeleteLead(id string)
	AddLeadTimelineEntry(leadID string, entry TimelineInput)
	AddLeadFile(leadID, label, url string) string

	AddClient(ClientInput) string
	UpdateClient(id string, patch ClientPatch)
	DeleteClient(id string)

	AddProject(ProjectInput) string
	UpdateProject(id string, patch ProjectPatch)
	DeleteProject(id string)

	AddTask(TaskInput) string
	UpdateTask(id string, patch TaskPatch)
	DeleteTask(id string)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListActivity() []ActivityItem
	ListRevenue() []RevenuePoint
}

// WorkspaceStore is the minimal store abstraction consumed by higher layers.
type WorkspaceStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ExportState() Snapshot
	ImportState(Snapshot)
}

// Snapshot is the serialisable shape of the whole workspace. Seed sources
// produce it and the store imports it at process start.
type Snapshot struct {
	LeadStatuses []LeadStatus   `json:"leadStatuses"`
	Leads        []Lead         `json:"leads"`
	Clients      []Client       `json:"clients"`
	Projects     []Project      `json:"projects"`
	Tasks        []Task         `json:"tasks"`
	Activity     []ActivityItem `json:"activity"`
	Revenue      []RevenuePoint `json:"revenue"`
}
