package core

import (
	"context"
	"fmt"

	"crmcore/pkg/domain"
)

// Rule names reported in violations.
const (
	RuleOrphanedTask     = "orphaned_task"
	RuleLeadStatusMember = "lead_status_membership"
)

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// Both rules only warn; workspace mutations are never blocked by default.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewOrphanedTaskRule())
	engine.Register(NewLeadStatusMembershipRule())
	return engine
}

// NewOrphanedTaskRule warns when a transaction leaves a task pointing at a
// lead, client or project that no longer exists. Deleting a client keeps the
// tasks of its projects, so this is the usual way such tasks surface.
func NewOrphanedTaskRule() domain.Rule {
	return orphanedTaskRule{}
}

type orphanedTaskRule struct{}

func (orphanedTaskRule) Name() string { return RuleOrphanedTask }

func (orphanedTaskRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	touched := make(map[string]bool)
	removed := make(map[string]bool)
	for _, change := range changes {
		switch {
		case change.Entity == domain.EntityTask && change.Action != domain.ActionDelete:
			touched[change.ID] = true
		case change.Action == domain.ActionDelete && change.Entity != domain.EntityLeadStatus && change.Entity != domain.EntityTask:
			removed[change.ID] = true
		}
	}
	if len(touched) == 0 && len(removed) == 0 {
		return domain.Result{}, nil
	}

	res := domain.Result{}
	for _, task := range view.ListTasks() {
		if !touched[task.ID] && !removed[task.RelatedID] {
			continue
		}
		if relatedExists(view, task) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleOrphanedTask,
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("task %q references missing %s %s", task.Title, task.RelatedType, task.RelatedID),
			Entity:   domain.EntityTask,
			EntityID: task.ID,
		})
	}
	return res, nil
}

func relatedExists(view domain.RuleView, task domain.Task) bool {
	switch task.RelatedType {
	case domain.RelatedLead:
		_, ok := view.FindLead(task.RelatedID)
		return ok
	case domain.RelatedClient:
		_, ok := view.FindClient(task.RelatedID)
		return ok
	case domain.RelatedProject:
		_, ok := view.FindProject(task.RelatedID)
		return ok
	}
	return false
}

// NewLeadStatusMembershipRule warns when a created or updated lead carries a
// status outside the workspace status set.
func NewLeadStatusMembershipRule() domain.Rule {
	return leadStatusMembershipRule{}
}

type leadStatusMembershipRule struct{}

func (leadStatusMembershipRule) Name() string { return RuleLeadStatusMember }

func (leadStatusMembershipRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var statuses []string
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityLead || change.Action == domain.ActionDelete {
			continue
		}
		lead, ok := view.FindLead(change.ID)
		if !ok {
			continue
		}
		if statuses == nil {
			statuses = view.LeadStatuses()
		}
		if hasStatus(statuses, lead.Status) {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleLeadStatusMember,
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("lead %s has status %q outside the workspace status set", lead.Business, lead.Status),
			Entity:   domain.EntityLead,
			EntityID: lead.ID,
		})
	}
	return res, nil
}

func hasStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
