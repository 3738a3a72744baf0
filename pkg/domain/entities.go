// Package domain defines the workspace entities, value types, change records
// and rule evaluation primitives used by crmcore.
package domain

import "time"

// EntityType identifies the type of record referenced by activity items and change records.
type EntityType string

// Supported entity type identifiers.
const (
	// EntityLead identifies a lead record.
	EntityLead EntityType = "lead"
	// EntityClient identifies a client record.
	EntityClient EntityType = "client"
	// EntityProject identifies a project record.
	EntityProject EntityType = "project"
	// EntityTask identifies a task record.
	EntityTask EntityType = "task"
	// EntityLeadStatus identifies the workspace lead status configuration.
	EntityLeadStatus EntityType = "lead_status"
)

// RelatedType identifies the kind of entity a task hangs off.
type RelatedType string

// Task relation kinds.
const (
	RelatedLead    RelatedType = "lead"
	RelatedClient  RelatedType = "client"
	RelatedProject RelatedType = "project"
)

// Valid reports whether r is one of the supported relation kinds.
func (r RelatedType) Valid() bool {
	switch r {
	case RelatedLead, RelatedClient, RelatedProject:
		return true
	}
	return false
}

// LeadStatus is a free-text label drawn from the workspace's ordered status set.
type LeadStatus = string

// Lead statuses with special meaning for metrics. Both are ordinary members
// of the default status set and may be removed like any other.
const (
	StatusWon  LeadStatus = "Won"
	StatusLost LeadStatus = "Lost"
)

// FallbackLeadStatus is assigned to leads whose status is removed when no
// other status remains.
const FallbackLeadStatus LeadStatus = "New"

// DefaultLeadStatuses returns the status set a fresh workspace starts with.
func DefaultLeadStatuses() []LeadStatus {
	return []LeadStatus{"New", "Contacted", "Discovery Scheduled", "Proposal Sent", "Negotiation", StatusWon, StatusLost}
}

// LeadSource enumerates where a lead came from.
type LeadSource string

// Lead sources.
const (
	SourceReferral     LeadSource = "Referral"
	SourceWebsite      LeadSource = "Website"
	SourceColdOutreach LeadSource = "Cold Outreach"
	SourceSocial       LeadSource = "Social"
	SourcePartner      LeadSource = "Partner"
	SourceOther        LeadSource = "Other"
)

// LeadSources lists the supported lead sources in display order.
func LeadSources() []LeadSource {
	return []LeadSource{SourceReferral, SourceWebsite, SourceColdOutreach, SourceSocial, SourcePartner, SourceOther}
}

// ProjectStatus enumerates project delivery states.
type ProjectStatus string

// Project statuses.
const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "In Progress"
	ProjectReview     ProjectStatus = "Review"
	ProjectOnHold     ProjectStatus = "On Hold"
	ProjectComplete   ProjectStatus = "Complete"
)

// TaskPriority enumerates task priorities.
type TaskPriority string

// Task priorities.
const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// TaskStatus enumerates task workflow states.
type TaskStatus string

// Task statuses.
const (
	TaskTodo       TaskStatus = "Todo"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

// TimelineType classifies lead timeline entries.
type TimelineType string

// Timeline entry types.
const (
	TimelineNote   TimelineType = "note"
	TimelineStatus TimelineType = "status"
	TimelineTask   TimelineType = "task"
	TimelineSystem TimelineType = "system"
)

// ActivityLogCapacity bounds the global activity feed; older entries are dropped.
const ActivityLogCapacity = 50

// TimelineEntry is one line of a lead's narrative log. Entries are owned by
// exactly one lead and never edited.
type TimelineEntry struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Message   string       `json:"message"`
	Type      TimelineType `json:"type"`
}

// FileLink attaches a labelled URL to a lead.
type FileLink struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Lead is a prospective client moving through the status pipeline.
type Lead struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Business       string          `json:"business"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Status         LeadStatus      `json:"status"`
	Source         LeadSource      `json:"source"`
	Owner          string          `json:"owner"`
	EstimatedValue float64         `json:"estimatedValue"`
	LastContacted  *time.Time      `json:"lastContacted"`
	NextStep       string          `json:"nextStep"`
	CreatedAt      time.Time       `json:"createdAt"`
	Notes          string          `json:"notes"`
	Timeline       []TimelineEntry `json:"timeline"`
	Files          []FileLink      `json:"files"`
	// TaskIDs is derived from Task.RelatedID on read and never stored.
	TaskIDs []string `json:"taskIds"`
}

// Client is a won account with one or more websites.
type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Websites    []string  `json:"websites"`
	Industry    string    `json:"industry"`
	CreatedAt   time.Time `json:"createdAt"`
	Notes       string    `json:"notes"`
}

// Project is a unit of paid work delivered for a client.
type Project struct {
	ID         string        `json:"id"`
	ClientID   string        `json:"clientId"`
	Name       string        `json:"name"`
	Status     ProjectStatus `json:"status"`
	StartDate  time.Time     `json:"startDate"`
	Deadline   time.Time     `json:"deadline"`
	WebsiteURL string        `json:"websiteUrl"`
	Notes      string        `json:"notes"`
	Value      float64       `json:"value"`
	Tags       []string      `json:"tags"`
}

// Task is a to-do attached to a lead, client or project.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	DueDate     time.Time    `json:"dueDate"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	RelatedType RelatedType  `json:"relatedType"`
	RelatedID   string       `json:"relatedId"`
	Description string       `json:"description"`
	Reminder    *time.Time   `json:"reminder"`
}

// ActivityItem is one entry of the global activity feed. EntityID is a loose
// reference and may point at a deleted record.
type ActivityItem struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	Actor      string     `json:"actor"`
	Message    string     `json:"message"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
}

// RevenuePoint is one sample of the seeded revenue series.
type RevenuePoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// LeadInput carries the caller-supplied fields of a new lead.
type LeadInput struct {
	Name           string
	Business       string
	Email          string
	Phone          string
	Status         LeadStatus
	Source         LeadSource
	Owner          string
	EstimatedValue float64
	LastContacted  *time.Time
	NextStep       string
	Notes          string
}

// ClientInput carries the caller-supplied fields of a new client.
type ClientInput struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	Websites    []string
	Industry    string
	Notes       string
}

// ProjectInput carries the caller-supplied fields of a new project.
type ProjectInput struct {
	ClientID   string
	Name       string
	Status     ProjectStatus
	StartDate  time.Time
	Deadline   time.Time
	WebsiteURL string
	Notes      string
	Value      float64
	Tags       []string
}

// TaskInput carries the caller-supplied fields of a new task.
type TaskInput struct {
	Title       string
	DueDate     time.Time
	Priority    TaskPriority
	Status      TaskStatus
	RelatedType RelatedType
	RelatedID   string
	Description string
	Reminder    *time.Time
}

// TimelineInput is the caller-supplied part of a timeline entry.
type TimelineInput struct {
	Message string
	Type    TimelineType
}

// TimePatch replaces a nullable timestamp. A nil *TimePatch leaves the field
// untouched; a TimePatch with a nil Value clears it.
type TimePatch struct {
	Value *time.Time
}

// LeadPatch is a partial lead update; nil fields are left untouched.
type LeadPatch struct {
	Name           *string
	Business       *string
	Email          *string
	Phone          *string
	Status         *LeadStatus
	Source         *LeadSource
	Owner          *string
	EstimatedValue *float64
	LastContacted  *TimePatch
	NextStep       *string
	Notes          *string
}

// ClientPatch is a partial client update; nil fields are left untouched.
type ClientPatch struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	Websites    []string
	Industry    *string
	Notes       *string
}

// ProjectPatch is a partial project update; nil fields are left untouched.
type ProjectPatch struct {
	ClientID   *string
	Name       *string
	Status     *ProjectStatus
	StartDate  *time.Time
	Deadline   *time.Time
	WebsiteURL *string
	Notes      *string
	Value      *float64
	Tags       []string
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	DueDate     *time.Time
	Priority    *TaskPriority
	Status      *TaskStatus
	RelatedType *RelatedType
	RelatedID   *string
	Description *string
	Reminder    *TimePatch
}

// Change describes a single mutation recorded by the store.
type Change struct {
	Entity EntityType
	Action Action
	ID     string
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entityId"`
}

// Result aggregates rule violations.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation blocks commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
