// Package memory provides the in-memory workspace store. It is the sole
// mutator of workspace state and enforces every cross-entity cascade.
package memory

import (
	"context"
	"sync"
	"time"

	"crmcore/internal/ids"
	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.WorkspaceStore = (*Store)(nil)

type (
	// Lead aliases domain.Lead.
	Lead = domain.Lead
	// Client aliases domain.Client.
	Client = domain.Client
	// Project aliases domain.Project.
	Project = domain.Project
	// Task aliases domain.Task.
	Task = domain.Task
	// TimelineEntry aliases domain.TimelineEntry.
	TimelineEntry = domain.TimelineEntry
	// FileLink aliases domain.FileLink.
	FileLink = domain.FileLink
	// ActivityItem aliases domain.ActivityItem.
	ActivityItem = domain.ActivityItem
	// RevenuePoint aliases domain.RevenuePoint.
	RevenuePoint = domain.RevenuePoint
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
)

// ChangeObserver is notified after every committed transaction.
type ChangeObserver func(ctx context.Context, changes []Change, result Result)

// Store is the in-memory workspace. All mutations run under a single writer
// lock against a cloned state that is swapped in on commit.
type Store struct {
	mu        sync.RWMutex
	state     memoryState
	engine    *domain.RulesEngine
	clock     timeutil.Clock
	ids       ids.Generator
	observers []ChangeObserver
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp created records.
func WithClock(clock timeutil.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen ids.Generator) Option {
	return func(s *Store) {
		if gen != nil {
			s.ids = gen
		}
	}
}

// WithRulesEngine sets the rules evaluated before each commit.
func WithRulesEngine(engine *domain.RulesEngine) Option {
	return func(s *Store) { s.engine = engine }
}

// WithChangeObserver registers a callback invoked after each commit.
func WithChangeObserver(observer ChangeObserver) Option {
	return func(s *Store) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// NewStore constructs an empty workspace seeded with the default lead statuses.
func NewStore(opts ...Option) *Store {
	s := &Store{
		state: newMemoryState(),
		clock: timeutil.SystemClock{},
		ids:   ids.UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *domain.RulesEngine {
	return s.engine
}

// ExportState returns a deep copy of the workspace.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the workspace with a normalised copy of snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RunInTransaction executes fn against a cloned state and commits it when fn
// succeeds and no blocking rule violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.clock.Now(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	for _, observer := range s.observers {
		observer(ctx, tx.changes, result)
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()

	return fn(newTransactionView(&snapshot))
}

// mutate runs fn in its own transaction. Mutations never fail on their own;
// a blocking rule leaves the state untouched.
func (s *Store) mutate(fn func(tx Transaction)) {
	_, _ = s.RunInTransaction(context.Background(), func(tx Transaction) error {
		fn(tx)
		return nil
	})
}

func (s *Store) create(fn func(tx Transaction) string) string {
	var id string
	_, err := s.RunInTransaction(context.Background(), func(tx Transaction) error {
		id = fn(tx)
		return nil
	})
	if err != nil {
		return ""
	}
	return id
}

// AddLeadStatus appends label to the status set unless it is blank or
// already present ignoring case.
func (s *Store) AddLeadStatus(label string) {
	s.mutate(func(tx Transaction) { tx.AddLeadStatus(label) })
}

// RemoveLeadStatus drops label and reassigns its leads to the fallback status.
func (s *Store) RemoveLeadStatus(label string) {
	s.mutate(func(tx Transaction) { tx.RemoveLeadStatus(label) })
}

// AddLead creates a lead and returns its id.
func (s *Store) AddLead(in domain.LeadInput) string {
	return s.create(func(tx Transaction) string { return tx.AddLead(in) })
}

// UpdateLead merges patch into the lead. Unknown ids are ignored.
func (s *Store) UpdateLead(id string, patch domain.LeadPatch) {
	s.mutate(func(tx Transaction) { tx.UpdateLead(id, patch) })
}

// DeleteLead removes the lead and its tasks.
func (s *Store) DeleteLead(id string) {
	s.mutate(func(tx Transaction) { tx.DeleteLead(id) })
}

// AddLeadTimelineEntry prepends entry to the lead's timeline.
func (s *Store) AddLeadTimelineEntry(leadID string, entry domain.TimelineInput) {
	s.mutate(func(tx Transaction) { tx.AddLeadTimelineEntry(leadID, entry) })
}

// AddLeadFile attaches a labelled link to the lead and returns the file id.
func (s *Store) AddLeadFile(leadID, label, url string) string {
	return s.create(func(tx Transaction) string { return tx.AddLeadFile(leadID, label, url) })
}

// AddClient creates a client and returns its id.
func (s *Store) AddClient(in domain.ClientInput) string {
	return s.create(func(tx Transaction) string { return tx.AddClient(in) })
}

// UpdateClient merges patch into the client.
func (s *Store) UpdateClient(id string, patch domain.ClientPatch) {
	s.mutate(func(tx Transaction) { tx.UpdateClient(id, patch) })
}

// DeleteClient removes the client, its projects and the tasks related to it.
func (s *Store) DeleteClient(id string) {
	s.mutate(func(tx Transaction) { tx.DeleteClient(id) })
}

// AddProject creates a project and returns its id.
func (s *Store) AddProject(in domain.ProjectInput) string {
	return s.create(func(tx Transaction) string { return tx.AddProject(in) })
}

// UpdateProject merges patch into the project.
func (s *Store) UpdateProject(id string, patch domain.ProjectPatch) {
	s.mutate(func(tx Transaction) { tx.UpdateProject(id, patch) })
}

// DeleteProject removes the project and its tasks.
func (s *Store) DeleteProject(id string) {
	s.mutate(func(tx Transaction) { tx.DeleteProject(id) })
}

// AddTask creates a task and returns its id.
func (s *Store) AddTask(in domain.TaskInput) string {
	return s.create(func(tx Transaction) string { return tx.AddTask(in) })
}

// UpdateTask merges patch into the task.
func (s *Store) UpdateTask(id string, patch domain.TaskPatch) {
	s.mutate(func(tx Transaction) { tx.UpdateTask(id, patch) })
}

// DeleteTask removes the task.
func (s *Store) DeleteTask(id string) {
	s.mutate(func(tx Transaction) { tx.DeleteTask(id) })
}

func (s *Store) read(fn func(state *memoryState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// LeadStatuses returns the ordered status set.
func (s *Store) LeadStatuses() []string {
	var out []string
	s.read(func(state *memoryState) { out = append([]string{}, state.leadStatuses...) })
	return out
}

// ListLeads returns every lead, newest first.
func (s *Store) ListLeads() []Lead {
	var out []Lead
	s.read(func(state *memoryState) { out = newTransactionView(state).ListLeads() })
	return out
}

// GetLead returns the lead with id.
func (s *Store) GetLead(id string) (Lead, bool) {
	var (
		out Lead
		ok  bool
	)
	s.read(func(state *memoryState) { out, ok = newTransactionView(state).FindLead(id) })
	return out, ok
}

// ListClients returns every client, newest first.
func (s *Store) ListClients() []Client {
	var out []Client
	s.read(func(state *memoryState) { out = newTransactionView(state).ListClients() })
	return out
}

// GetClient returns the client with id.
func (s *Store) GetClient(id string) (Client, bool) {
	var (
		out Client
		ok  bool
	)
	s.read(func(state *memoryState) { out, ok = newTransactionView(state).FindClient(id) })
	return out, ok
}

// ListProjects returns every project, newest first.
func (s *Store) ListProjects() []Project {
	var out []Project
	s.read(func(state *memoryState) { out = newTransactionView(state).ListProjects() })
	return out
}

// GetProject returns the project with id.
func (s *Store) GetProject(id string) (Project, bool) {
	var (
		out Project
		ok  bool
	)
	s.read(func(state *memoryState) { out, ok = newTransactionView(state).FindProject(id) })
	return out, ok
}

// ListTasks returns every task, newest first.
func (s *Store) ListTasks() []Task {
	var out []Task
	s.read(func(state *memoryState) { out = newTransactionView(state).ListTasks() })
	return out
}

// GetTask returns the task with id.
func (s *Store) GetTask(id string) (Task, bool) {
	var (
		out Task
		ok  bool
	)
	s.read(func(state *memoryState) { out, ok = newTransactionView(state).FindTask(id) })
	return out, ok
}

// ListActivity returns the activity feed, newest first.
func (s *Store) ListActivity() []ActivityItem {
	var out []ActivityItem
	s.read(func(state *memoryState) { out = append([]ActivityItem{}, state.activity...) })
	return out
}

// ListRevenue returns the revenue series in chronological order.
func (s *Store) ListRevenue() []RevenuePoint {
	var out []RevenuePoint
	s.read(func(state *memoryState) { out = append([]RevenuePoint{}, state.revenue...) })
	return out
}

// TasksFor returns the tasks attached to the given entity.
func (s *Store) TasksFor(relatedType domain.RelatedType, id string) []Task {
	out := []Task{}
	s.read(func(state *memoryState) {
		for _, task := range state.tasks {
			if task.RelatedType == relatedType && task.RelatedID == id {
				out = append(out, cloneTask(task))
			}
		}
	})
	return out
}

// ProjectsForClient returns the client's projects.
func (s *Store) ProjectsForClient(clientID string) []Project {
	out := []Project{}
	s.read(func(state *memoryState) {
		for _, project := range state.projects {
			if project.ClientID == clientID {
				out = append(out, cloneProject(project))
			}
		}
	})
	return out
}

// Now reports the store clock's current time.
func (s *Store) Now() time.Time {
	return s.clock.Now()
}
