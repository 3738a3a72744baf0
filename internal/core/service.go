// Package core is the application facade over the workspace store. Every
// mutation runs in its own transaction and is logged, audited, measured and
// traced; reads return detached copies.
package core

import (
	"context"
	"errors"
	"time"

	blobcore "crmcore/internal/blob/core"
	"crmcore/internal/infra/persistence/memory"
	"crmcore/pkg/domain"
)

// ErrLeadNotFound is returned by operations that require an existing lead.
var ErrLeadNotFound = errors.New("core: lead not found")

// ErrNoBlobStore is returned by AttachLeadFile when no blob store is configured.
var ErrNoBlobStore = errors.New("core: blob store not configured")

// ClockFunc supplies timestamps for audit entries and durations.
type ClockFunc func() time.Time

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger. nil keeps the no-op logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer sets the span factory.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the clock used for audit timestamps and durations.
func WithClock(clock ClockFunc) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithBlobStore enables AttachLeadFile.
func WithBlobStore(store blobcore.Store) ServiceOption {
	return func(s *Service) { s.blobs = store }
}

// Service exposes the workspace operations to transports and tooling.
type Service struct {
	store   *memory.Store
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	clock   ClockFunc
	blobs   blobcore.Store
}

// NewService constructs a service backed by the supplied store.
func NewService(store *memory.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates an empty store with the default rules and wraps it.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(memory.WithRulesEngine(NewDefaultRulesEngine())), opts...)
}

// Store returns the underlying store.
func (s *Service) Store() *memory.Store {
	return s.store
}

func (s *Service) now() time.Time {
	return s.clock()
}

// run executes fn in one transaction and reports the outcome to every sink.
// fn returns the id of the affected entity.
func (s *Service) run(ctx context.Context, operation string, fn func(tx domain.Transaction) string) (string, domain.Result, error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, operation)

	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		entityID = fn(tx)
		return nil
	})
	duration := s.now().Sub(started)

	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error("mutation rejected", "operation", operation, "entity_id", entityID, "error", err)
		s.recordAuditError(ctx, operation, entityID, duration, err)
		return "", res, err
	}
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", operation, "rule", v.Rule, "severity", v.Severity, "entity", v.Entity, "entity_id", v.EntityID, "message", v.Message)
	}
	s.logger.Debug("mutation applied", "operation", operation, "entity_id", entityID, "duration", duration)
	s.recordAuditSuccess(ctx, operation, entityID, duration)
	return entityID, res, nil
}

func (s *Service) exec(ctx context.Context, operation, id string, fn func(tx domain.Transaction)) (domain.Result, error) {
	_, res, err := s.run(ctx, operation, func(tx domain.Transaction) string {
		fn(tx)
		return id
	})
	return res, err
}

// AddLeadStatus appends a status label. Blank and case-insensitive duplicate
// labels are ignored.
func (s *Service) AddLeadStatus(ctx context.Context, label string) (domain.Result, error) {
	return s.exec(ctx, OpAddLeadStatus, label, func(tx domain.Transaction) { tx.AddLeadStatus(label) })
}

// RemoveLeadStatus removes a status label and moves its leads to the first
// remaining status.
func (s *Service) RemoveLeadStatus(ctx context.Context, label string) (domain.Result, error) {
	return s.exec(ctx, OpRemoveLeadStatus, label, func(tx domain.Transaction) { tx.RemoveLeadStatus(label) })
}

// AddLead creates a lead and returns its id.
func (s *Service) AddLead(ctx context.Context, in domain.LeadInput) (string, domain.Result, error) {
	return s.run(ctx, OpAddLead, func(tx domain.Transaction) string { return tx.AddLead(in) })
}

// UpdateLead applies patch to lead id. Unknown ids are ignored.
func (s *Service) UpdateLead(ctx context.Context, id string, patch domain.LeadPatch) (domain.Result, error) {
	return s.exec(ctx, OpUpdateLead, id, func(tx domain.Transaction) { tx.UpdateLead(id, patch) })
}

// DeleteLead removes a lead along with the tasks attached to it.
func (s *Service) DeleteLead(ctx context.Context, id string) (domain.Result, error) {
	return s.exec(ctx, OpDeleteLead, id, func(tx domain.Transaction) { tx.DeleteLead(id) })
}

// AddLeadTimelineEntry prepends a timeline entry to a lead.
func (s *Service) AddLeadTimelineEntry(ctx context.Context, leadID string, entry domain.TimelineInput) (domain.Result, error) {
	return s.exec(ctx, OpAddLeadTimelineEntry, leadID, func(tx domain.Transaction) { tx.AddLeadTimelineEntry(leadID, entry) })
}

// AddLeadFile links an external URL to a lead and returns the file id, or ""
// when the lead does not exist.
func (s *Service) AddLeadFile(ctx context.Context, leadID, label, url string) (string, domain.Result, error) {
	var fileID string
	_, res, err := s.run(ctx, OpAddLeadFile, func(tx domain.Transaction) string {
		fileID = tx.AddLeadFile(leadID, label, url)
		return leadID
	})
	if err != nil {
		return "", res, err
	}
	return fileID, res, nil
}

// AddClient creates a client and returns its id.
func (s *Service) AddClient(ctx context.Context, in domain.ClientInput) (string, domain.Result, error) {
	return s.run(ctx, OpAddClient, func(tx domain.Transaction) string { return tx.AddClient(in) })
}

// UpdateClient applies patch to client id.
func (s *Service) UpdateClient(ctx context.Context, id string, patch domain.ClientPatch) (domain.Result, error) {
	return s.exec(ctx, OpUpdateClient, id, func(tx domain.Transaction) { tx.UpdateClient(id, patch) })
}

// DeleteClient removes a client, its projects and the tasks attached directly
// to the client. Tasks attached to the removed projects are kept.
func (s *Service) DeleteClient(ctx context.Context, id string) (domain.Result, error) {
	return s.exec(ctx, OpDeleteClient, id, func(tx domain.Transaction) { tx.DeleteClient(id) })
}

// AddProject creates a project and returns its id.
func (s *Service) AddProject(ctx context.Context, in domain.ProjectInput) (string, domain.Result, error) {
	return s.run(ctx, OpAddProject, func(tx domain.Transaction) string { return tx.AddProject(in) })
}

// UpdateProject applies patch to project id.
func (s *Service) UpdateProject(ctx context.Context, id string, patch domain.ProjectPatch) (domain.Result, error) {
	return s.exec(ctx, OpUpdateProject, id, func(tx domain.Transaction) { tx.UpdateProject(id, patch) })
}

// DeleteProject removes a project and its tasks.
func (s *Service) DeleteProject(ctx context.Context, id string) (domain.Result, error) {
	return s.exec(ctx, OpDeleteProject, id, func(tx domain.Transaction) { tx.DeleteProject(id) })
}

// AddTask creates a task and returns its id.
func (s *Service) AddTask(ctx context.Context, in domain.TaskInput) (string, domain.Result, error) {
	return s.run(ctx, OpAddTask, func(tx domain.Transaction) string { return tx.AddTask(in) })
}

// UpdateTask applies patch to task id.
func (s *Service) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Result, error) {
	return s.exec(ctx, OpUpdateTask, id, func(tx domain.Transaction) { tx.UpdateTask(id, patch) })
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) (domain.Result, error) {
	return s.exec(ctx, OpDeleteTask, id, func(tx domain.Transaction) { tx.DeleteTask(id) })
}

// LeadStatuses returns the ordered status set.
func (s *Service) LeadStatuses() []string { return s.store.LeadStatuses() }

// ListLeads returns all leads, newest first.
func (s *Service) ListLeads() []domain.Lead { return s.store.ListLeads() }

// GetLead returns one lead.
func (s *Service) GetLead(id string) (domain.Lead, bool) { return s.store.GetLead(id) }

// ListClients returns all clients, newest first.
func (s *Service) ListClients() []domain.Client { return s.store.ListClients() }

// GetClient returns one client.
func (s *Service) GetClient(id string) (domain.Client, bool) { return s.store.GetClient(id) }

// ListProjects returns all projects, newest first.
func (s *Service) ListProjects() []domain.Project { return s.store.ListProjects() }

// GetProject returns one project.
func (s *Service) GetProject(id string) (domain.Project, bool) { return s.store.GetProject(id) }

// ListTasks returns all tasks, newest first.
func (s *Service) ListTasks() []domain.Task { return s.store.ListTasks() }

// GetTask returns one task.
func (s *Service) GetTask(id string) (domain.Task, bool) { return s.store.GetTask(id) }

// ListActivity returns the activity feed, newest first.
func (s *Service) ListActivity() []domain.ActivityItem { return s.store.ListActivity() }

// TasksFor returns the tasks attached to one lead, client or project.
func (s *Service) TasksFor(relatedType domain.RelatedType, id string) []domain.Task {
	return s.store.TasksFor(relatedType, id)
}

// ProjectsForClient returns the projects of one client.
func (s *Service) ProjectsForClient(clientID string) []domain.Project {
	return s.store.ProjectsForClient(clientID)
}
