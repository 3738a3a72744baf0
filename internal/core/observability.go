package core

import (
	"context"
	"time"

	"crmcore/pkg/domain"
)

// Logger is the structured logging surface used by Service. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// AuditStatus reports the outcome of an audited operation.
type AuditStatus string

// Audit outcomes.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one service mutation for compliance trails.
type AuditEntry struct {
	Operation string
	Entity    domain.EntityType
	Action    domain.Action
	EntityID  string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives an entry for every audited operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes and latency.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan is an in-flight operation started by a Tracer.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// operationMeta maps service operation names to the audited entity and action.
var operationMeta = map[string]struct {
	entity domain.EntityType
	action domain.Action
}{
	OpAddLeadStatus:        {domain.EntityLeadStatus, domain.ActionCreate},
	OpRemoveLeadStatus:     {domain.EntityLeadStatus, domain.ActionDelete},
	OpAddLead:              {domain.EntityLead, domain.ActionCreate},
	OpUpdateLead:           {domain.EntityLead, domain.ActionUpdate},
	OpDeleteLead:           {domain.EntityLead, domain.ActionDelete},
	OpAddLeadTimelineEntry: {domain.EntityLead, domain.ActionUpdate},
	OpAddLeadFile:          {domain.EntityLead, domain.ActionUpdate},
	OpAttachLeadFile:       {domain.EntityLead, domain.ActionUpdate},
	OpAddClient:            {domain.EntityClient, domain.ActionCreate},
	OpUpdateClient:         {domain.EntityClient, domain.ActionUpdate},
	OpDeleteClient:         {domain.EntityClient, domain.ActionDelete},
	OpAddProject:           {domain.EntityProject, domain.ActionCreate},
	OpUpdateProject:        {domain.EntityProject, domain.ActionUpdate},
	OpDeleteProject:        {domain.EntityProject, domain.ActionDelete},
	OpAddTask:              {domain.EntityTask, domain.ActionCreate},
	OpUpdateTask:           {domain.EntityTask, domain.ActionUpdate},
	OpDeleteTask:           {domain.EntityTask, domain.ActionDelete},
}

// Service operation names, used for audit, metrics and tracing.
const (
	OpAddLeadStatus        = "add_lead_status"
	OpRemoveLeadStatus     = "remove_lead_status"
	OpAddLead              = "add_lead"
	OpUpdateLead           = "update_lead"
	OpDeleteLead           = "delete_lead"
	OpAddLeadTimelineEntry = "add_lead_timeline_entry"
	OpAddLeadFile          = "add_lead_file"
	OpAttachLeadFile       = "attach_lead_file"
	OpAddClient            = "add_client"
	OpUpdateClient         = "update_client"
	OpDeleteClient         = "delete_client"
	OpAddProject           = "add_project"
	OpUpdateProject        = "update_project"
	OpDeleteProject        = "delete_project"
	OpAddTask              = "add_task"
	OpUpdateTask           = "update_task"
	OpDeleteTask           = "delete_task"
)

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	s.recordAudit(ctx, operation, entityID, duration, nil)
}

func (s *Service) recordAuditError(ctx context.Context, operation, entityID string, duration time.Duration, err error) {
	s.recordAudit(ctx, operation, entityID, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, operation, entityID string, duration time.Duration, err error) {
	meta, ok := operationMeta[operation]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
