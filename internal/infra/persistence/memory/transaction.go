package memory

import (
	"strings"
	"time"

	"crmcore/pkg/domain"
)

const (
	defaultActor      = "You"
	leadCreatedNotice = "Lead created"
)

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) newID(kind string) string {
	return tx.store.ids.NewID(kind)
}

// recordActivity prepends an entry to the activity feed, dropping the oldest
// entries beyond domain.ActivityLogCapacity.
func (tx *transaction) recordActivity(actor, message string, entity domain.EntityType, entityID string) {
	item := ActivityItem{
		ID:         tx.newID("activity"),
		CreatedAt:  tx.now,
		Actor:      actor,
		Message:    message,
		EntityType: entity,
		EntityID:   entityID,
	}
	feed := make([]ActivityItem, 0, len(tx.state.activity)+1)
	feed = append(feed, item)
	feed = append(feed, tx.state.activity...)
	if len(feed) > domain.ActivityLogCapacity {
		feed = feed[:domain.ActivityLogCapacity]
	}
	tx.state.activity = feed
}

func (tx *transaction) newTimelineEntry(message string, kind domain.TimelineType) TimelineEntry {
	return TimelineEntry{
		ID:        tx.newID("timeline"),
		CreatedAt: tx.now,
		Message:   message,
		Type:      kind,
	}
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Now returns the instant captured when the transaction started.
func (tx *transaction) Now() time.Time {
	return tx.now
}

func (tx *transaction) AddLeadStatus(label string) {
	clean := strings.TrimSpace(label)
	if clean == "" || containsFold(tx.state.leadStatuses, clean) {
		return
	}
	before := append([]string{}, tx.state.leadStatuses...)
	tx.state.leadStatuses = append(tx.state.leadStatuses, clean)
	tx.recordChange(Change{Entity: domain.EntityLeadStatus, Action: domain.ActionCreate, ID: clean, Before: before, After: append([]string{}, tx.state.leadStatuses...)})
}

func (tx *transaction) RemoveLeadStatus(label string) {
	before := append([]string{}, tx.state.leadStatuses...)
	remaining := make([]string, 0, len(tx.state.leadStatuses))
	for _, status := range tx.state.leadStatuses {
		if status != label {
			remaining = append(remaining, status)
		}
	}
	tx.state.leadStatuses = remaining

	fallback := domain.FallbackLeadStatus
	if len(remaining) > 0 {
		fallback = remaining[0]
	}
	for i := range tx.state.leads {
		if tx.state.leads[i].Status != label {
			continue
		}
		prev := cloneLead(tx.state.leads[i])
		tx.state.leads[i].Status = fallback
		tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionUpdate, ID: prev.ID, Before: prev, After: cloneLead(tx.state.leads[i])})
	}
	if len(remaining) != len(before) {
		tx.recordChange(Change{Entity: domain.EntityLeadStatus, Action: domain.ActionDelete, ID: label, Before: before, After: append([]string{}, remaining...)})
	}
}

func (tx *transaction) AddLead(in domain.LeadInput) string {
	lead := Lead{
		ID:             tx.newID("lead"),
		Name:           in.Name,
		Business:       in.Business,
		Email:          in.Email,
		Phone:          in.Phone,
		Status:         in.Status,
		Source:         in.Source,
		Owner:          in.Owner,
		EstimatedValue: in.EstimatedValue,
		LastContacted:  cloneTime(in.LastContacted),
		NextStep:       in.NextStep,
		CreatedAt:      tx.now,
		Notes:          in.Notes,
		Files:          []FileLink{},
	}
	lead.Timeline = []TimelineEntry{tx.newTimelineEntry(leadCreatedNotice, domain.TimelineSystem)}

	tx.state.leads = append([]Lead{lead}, tx.state.leads...)
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionCreate, ID: lead.ID, After: cloneLead(lead)})
	tx.recordActivity(in.Owner, "Added lead "+in.Business, domain.EntityLead, lead.ID)
	return lead.ID
}

func (tx *transaction) UpdateLead(id string, patch domain.LeadPatch) {
	idx := indexOfLead(&tx.state, id)
	if idx < 0 {
		return
	}
	current := tx.state.leads[idx]
	before := cloneLead(current)
	updated := cloneLead(current)

	statusChanged := patch.Status != nil && *patch.Status != "" && *patch.Status != current.Status
	if statusChanged {
		entry := tx.newTimelineEntry("Status changed from "+current.Status+" to "+*patch.Status, domain.TimelineStatus)
		updated.Timeline = append([]TimelineEntry{entry}, updated.Timeline...)
	}
	applyLeadPatch(&updated, patch)
	tx.state.leads[idx] = updated

	actor := current.Owner
	if patch.Owner != nil {
		actor = *patch.Owner
	}
	message := "Updated lead " + current.Business
	if statusChanged {
		message = "Moved " + current.Business + " to " + *patch.Status
	}
	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionUpdate, ID: id, Before: before, After: cloneLead(updated)})
	tx.recordActivity(actor, message, domain.EntityLead, id)
}

func applyLeadPatch(lead *Lead, patch domain.LeadPatch) {
	if patch.Name != nil {
		lead.Name = *patch.Name
	}
	if patch.Business != nil {
		lead.Business = *patch.Business
	}
	if patch.Email != nil {
		lead.Email = *patch.Email
	}
	if patch.Phone != nil {
		lead.Phone = *patch.Phone
	}
	if patch.Status != nil {
		lead.Status = *patch.Status
	}
	if patch.Source != nil {
		lead.Source = *patch.Source
	}
	if patch.Owner != nil {
		lead.Owner = *patch.Owner
	}
	if patch.EstimatedValue != nil {
		lead.EstimatedValue = *patch.EstimatedValue
	}
	if patch.LastContacted != nil {
		lead.LastContacted = cloneTime(patch.LastContacted.Value)
	}
	if patch.NextStep != nil {
		lead.NextStep = *patch.NextStep
	}
	if patch.Notes != nil {
		lead.Notes = *patch.Notes
	}
}

func (tx *transaction) DeleteLead(id string) {
	if idx := indexOfLead(&tx.state, id); idx >= 0 {
		removed := tx.state.leads[idx]
		tx.state.leads = append(tx.state.leads[:idx:idx], tx.state.leads[idx+1:]...)
		tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionDelete, ID: id, Before: removed})
		tx.cascadeTasks(domain.RelatedLead, id)
	}
	tx.recordActivity(defaultActor, "Removed a lead", domain.EntityLead, id)
}

func (tx *transaction) AddLeadTimelineEntry(leadID string, entry domain.TimelineInput) {
	label := "lead"
	if idx := indexOfLead(&tx.state, leadID); idx >= 0 {
		lead := tx.state.leads[idx]
		before := cloneLead(lead)
		label = lead.Business
		lead.Timeline = append([]TimelineEntry{tx.newTimelineEntry(entry.Message, entry.Type)}, lead.Timeline...)
		tx.state.leads[idx] = lead
		tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionUpdate, ID: leadID, Before: before, After: cloneLead(lead)})
	}
	tx.recordActivity(defaultActor, "Added update to "+label, domain.EntityLead, leadID)
}

func (tx *transaction) AddLeadFile(leadID, label, url string) string {
	idx := indexOfLead(&tx.state, leadID)
	if idx < 0 {
		return ""
	}
	lead := cloneLead(tx.state.leads[idx])
	before := cloneLead(lead)
	file := FileLink{ID: tx.newID("file"), Label: label, URL: url}
	lead.Files = append(lead.Files, file)
	lead.Timeline = append([]TimelineEntry{tx.newTimelineEntry("Attached "+label, domain.TimelineSystem)}, lead.Timeline...)
	tx.state.leads[idx] = lead

	tx.recordChange(Change{Entity: domain.EntityLead, Action: domain.ActionUpdate, ID: leadID, Before: before, After: cloneLead(lead)})
	tx.recordActivity(defaultActor, "Attached "+label+" to "+lead.Business, domain.EntityLead, leadID)
	return file.ID
}

func (tx *transaction) AddClient(in domain.ClientInput) string {
	client := Client{
		ID:          tx.newID("client"),
		Name:        in.Name,
		ContactName: in.ContactName,
		Email:       in.Email,
		Phone:       in.Phone,
		Websites:    append([]string{}, in.Websites...),
		Industry:    in.Industry,
		CreatedAt:   tx.now,
		Notes:       in.Notes,
	}
	tx.state.clients = append([]Client{client}, tx.state.clients...)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionCreate, ID: client.ID, After: cloneClient(client)})
	tx.recordActivity(defaultActor, "Added client "+in.Name, domain.EntityClient, client.ID)
	return client.ID
}

func (tx *transaction) UpdateClient(id string, patch domain.ClientPatch) {
	if idx := indexOfClient(&tx.state, id); idx >= 0 {
		before := cloneClient(tx.state.clients[idx])
		updated := cloneClient(before)
		if patch.Name != nil {
			updated.Name = *patch.Name
		}
		if patch.ContactName != nil {
			updated.ContactName = *patch.ContactName
		}
		if patch.Email != nil {
			updated.Email = *patch.Email
		}
		if patch.Phone != nil {
			updated.Phone = *patch.Phone
		}
		if patch.Websites != nil {
			updated.Websites = append([]string{}, patch.Websites...)
		}
		if patch.Industry != nil {
			updated.Industry = *patch.Industry
		}
		if patch.Notes != nil {
			updated.Notes = *patch.Notes
		}
		tx.state.clients[idx] = updated
		tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, ID: id, Before: before, After: cloneClient(updated)})
	}
	tx.recordActivity(defaultActor, "Updated client profile", domain.EntityClient, id)
}

// DeleteClient removes the client and its projects. Only tasks related to the
// client itself are cascaded; tasks of the removed projects remain.
func (tx *transaction) DeleteClient(id string) {
	if idx := indexOfClient(&tx.state, id); idx >= 0 {
		removed := tx.state.clients[idx]
		tx.state.clients = append(tx.state.clients[:idx:idx], tx.state.clients[idx+1:]...)
		tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionDelete, ID: id, Before: removed})
	}
	kept := make([]Project, 0, len(tx.state.projects))
	for _, project := range tx.state.projects {
		if project.ClientID == id {
			tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, ID: project.ID, Before: project})
			continue
		}
		kept = append(kept, project)
	}
	tx.state.projects = kept
	tx.cascadeTasks(domain.RelatedClient, id)
	tx.recordActivity(defaultActor, "Removed client", domain.EntityClient, id)
}

func (tx *transaction) AddProject(in domain.ProjectInput) string {
	project := Project{
		ID:         tx.newID("project"),
		ClientID:   in.ClientID,
		Name:       in.Name,
		Status:     in.Status,
		StartDate:  in.StartDate,
		Deadline:   in.Deadline,
		WebsiteURL: in.WebsiteURL,
		Notes:      in.Notes,
		Value:      in.Value,
		Tags:       append([]string{}, in.Tags...),
	}
	tx.state.projects = append([]Project{project}, tx.state.projects...)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, ID: project.ID, After: cloneProject(project)})
	tx.recordActivity(defaultActor, "Created project "+in.Name, domain.EntityProject, project.ID)
	return project.ID
}

func (tx *transaction) UpdateProject(id string, patch domain.ProjectPatch) {
	if idx := indexOfProject(&tx.state, id); idx >= 0 {
		before := cloneProject(tx.state.projects[idx])
		updated := cloneProject(before)
		if patch.ClientID != nil {
			updated.ClientID = *patch.ClientID
		}
		if patch.Name != nil {
			updated.Name = *patch.Name
		}
		if patch.Status != nil {
			updated.Status = *patch.Status
		}
		if patch.StartDate != nil {
			updated.StartDate = *patch.StartDate
		}
		if patch.Deadline != nil {
			updated.Deadline = *patch.Deadline
		}
		if patch.WebsiteURL != nil {
			updated.WebsiteURL = *patch.WebsiteURL
		}
		if patch.Notes != nil {
			updated.Notes = *patch.Notes
		}
		if patch.Value != nil {
			updated.Value = *patch.Value
		}
		if patch.Tags != nil {
			updated.Tags = append([]string{}, patch.Tags...)
		}
		tx.state.projects[idx] = updated
		tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, ID: id, Before: before, After: cloneProject(updated)})
	}
	tx.recordActivity(defaultActor, "Updated project", domain.EntityProject, id)
}

func (tx *transaction) DeleteProject(id string) {
	if idx := indexOfProject(&tx.state, id); idx >= 0 {
		removed := tx.state.projects[idx]
		tx.state.projects = append(tx.state.projects[:idx:idx], tx.state.projects[idx+1:]...)
		tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, ID: id, Before: removed})
	}
	tx.cascadeTasks(domain.RelatedProject, id)
	tx.recordActivity(defaultActor, "Removed project", domain.EntityProject, id)
}

func (tx *transaction) AddTask(in domain.TaskInput) string {
	task := Task{
		ID:          tx.newID("task"),
		Title:       in.Title,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Status:      in.Status,
		RelatedType: in.RelatedType,
		RelatedID:   in.RelatedID,
		Description: in.Description,
		Reminder:    cloneTime(in.Reminder),
	}
	tx.state.tasks = append([]Task{task}, tx.state.tasks...)
	tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionCreate, ID: task.ID, After: cloneTask(task)})
	tx.recordActivity(defaultActor, "Created task "+in.Title, domain.EntityTask, task.ID)
	return task.ID
}

func (tx *transaction) UpdateTask(id string, patch domain.TaskPatch) {
	if idx := indexOfTask(&tx.state, id); idx >= 0 {
		before := cloneTask(tx.state.tasks[idx])
		updated := cloneTask(before)
		if patch.Title != nil {
			updated.Title = *patch.Title
		}
		if patch.DueDate != nil {
			updated.DueDate = *patch.DueDate
		}
		if patch.Priority != nil {
			updated.Priority = *patch.Priority
		}
		if patch.Status != nil {
			updated.Status = *patch.Status
		}
		if patch.RelatedType != nil {
			updated.RelatedType = *patch.RelatedType
		}
		if patch.RelatedID != nil {
			updated.RelatedID = *patch.RelatedID
		}
		if patch.Description != nil {
			updated.Description = *patch.Description
		}
		if patch.Reminder != nil {
			updated.Reminder = cloneTime(patch.Reminder.Value)
		}
		tx.state.tasks[idx] = updated
		tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionUpdate, ID: id, Before: before, After: cloneTask(updated)})
	}
	tx.recordActivity(defaultActor, "Updated task", domain.EntityTask, id)
}

func (tx *transaction) DeleteTask(id string) {
	if idx := indexOfTask(&tx.state, id); idx >= 0 {
		removed := tx.state.tasks[idx]
		tx.state.tasks = append(tx.state.tasks[:idx:idx], tx.state.tasks[idx+1:]...)
		tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionDelete, ID: id, Before: removed})
	}
	tx.recordActivity(defaultActor, "Removed task", domain.EntityTask, id)
}

// cascadeTasks removes every task attached to (relatedType, id).
func (tx *transaction) cascadeTasks(relatedType domain.RelatedType, id string) {
	kept := make([]Task, 0, len(tx.state.tasks))
	for _, task := range tx.state.tasks {
		if task.RelatedType == relatedType && task.RelatedID == id {
			tx.recordChange(Change{Entity: domain.EntityTask, Action: domain.ActionDelete, ID: task.ID, Before: task})
			continue
		}
		kept = append(kept, task)
	}
	tx.state.tasks = kept
}
