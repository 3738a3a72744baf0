package rest

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"crmcore/pkg/domain"
)

// newValidator returns a validator with the workspace enum checks registered.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("leadsource", func(fl validator.FieldLevel) bool {
		for _, s := range domain.LeadSources() {
			if fl.Field().String() == string(s) {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("projectstatus", oneOf(
		domain.ProjectPlanning, domain.ProjectInProgress, domain.ProjectReview, domain.ProjectOnHold, domain.ProjectComplete,
	))
	_ = v.RegisterValidation("taskstatus", oneOf(domain.TaskTodo, domain.TaskInProgress, domain.TaskDone))
	_ = v.RegisterValidation("priority", oneOf(domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh))
	_ = v.RegisterValidation("related", oneOf(domain.RelatedLead, domain.RelatedClient, domain.RelatedProject))
	_ = v.RegisterValidation("timeline", oneOf(
		domain.TimelineNote, domain.TimelineStatus, domain.TimelineTask, domain.TimelineSystem,
	))
	return v
}

func oneOf[T ~string](values ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		got := fl.Field().String()
		for _, v := range values {
			if got == string(v) {
				return true
			}
		}
		return false
	}
}

// customValidator adapts validator.Validate to echo.Validator.
type customValidator struct {
	validator *validator.Validate
}

func (cv *customValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// nullableTime distinguishes an absent field from an explicit null.
type nullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *nullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	n.Value = &t
	return nil
}

func (n nullableTime) patch() *domain.TimePatch {
	if !n.Set {
		return nil
	}
	return &domain.TimePatch{Value: n.Value}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type statusRequest struct {
	Label string `json:"label" validate:"required,max=64"`
}

type leadRequest struct {
	Name           string     `json:"name" validate:"required,max=200"`
	Business       string     `json:"business" validate:"required,max=200"`
	Email          string     `json:"email" validate:"omitempty,email"`
	Phone          string     `json:"phone" validate:"max=50"`
	Status         string     `json:"status" validate:"required,max=64"`
	Source         string     `json:"source" validate:"required,leadsource"`
	Owner          string     `json:"owner" validate:"required,max=100"`
	EstimatedValue float64    `json:"estimatedValue" validate:"gte=0"`
	LastContacted  *time.Time `json:"lastContacted"`
	NextStep       string     `json:"nextStep" validate:"max=500"`
	Notes          string     `json:"notes" validate:"max=5000"`
}

func (r leadRequest) input() domain.LeadInput {
	return domain.LeadInput{
		Name:           r.Name,
		Business:       r.Business,
		Email:          r.Email,
		Phone:          r.Phone,
		Status:         r.Status,
		Source:         domain.LeadSource(r.Source),
		Owner:          r.Owner,
		EstimatedValue: r.EstimatedValue,
		LastContacted:  r.LastContacted,
		NextStep:       r.NextStep,
		Notes:          r.Notes,
	}
}

type leadPatchRequest struct {
	Name           *string      `json:"name" validate:"omitempty,max=200"`
	Business       *string      `json:"business" validate:"omitempty,max=200"`
	Email          *string      `json:"email" validate:"omitempty,email"`
	Phone          *string      `json:"phone" validate:"omitempty,max=50"`
	Status         *string      `json:"status" validate:"omitempty,max=64"`
	Source         *string      `json:"source" validate:"omitempty,leadsource"`
	Owner          *string      `json:"owner" validate:"omitempty,max=100"`
	EstimatedValue *float64     `json:"estimatedValue" validate:"omitempty,gte=0"`
	LastContacted  nullableTime `json:"lastContacted"`
	NextStep       *string      `json:"nextStep" validate:"omitempty,max=500"`
	Notes          *string      `json:"notes" validate:"omitempty,max=5000"`
}

func (r leadPatchRequest) patch() domain.LeadPatch {
	p := domain.LeadPatch{
		Name:           r.Name,
		Business:       r.Business,
		Email:          r.Email,
		Phone:          r.Phone,
		Status:         r.Status,
		Owner:          r.Owner,
		EstimatedValue: r.EstimatedValue,
		LastContacted:  r.LastContacted.patch(),
		NextStep:       r.NextStep,
		Notes:          r.Notes,
	}
	if r.Source != nil {
		src := domain.LeadSource(*r.Source)
		p.Source = &src
	}
	return p
}

type timelineRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
	Type    string `json:"type" validate:"omitempty,timeline"`
}

type fileLinkRequest struct {
	Label string `json:"label" validate:"required,max=200"`
	URL   string `json:"url" validate:"required,url"`
}

type clientRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	ContactName string   `json:"contactName" validate:"max=200"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Phone       string   `json:"phone" validate:"max=50"`
	Websites    []string `json:"websites" validate:"required,min=1,dive,url"`
	Industry    string   `json:"industry" validate:"max=100"`
	Notes       string   `json:"notes" validate:"max=5000"`
}

func (r clientRequest) input() domain.ClientInput {
	return domain.ClientInput{
		Name:        r.Name,
		ContactName: r.ContactName,
		Email:       r.Email,
		Phone:       r.Phone,
		Websites:    r.Websites,
		Industry:    r.Industry,
		Notes:       r.Notes,
	}
}

type clientPatchRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	ContactName *string  `json:"contactName" validate:"omitempty,max=200"`
	Email       *string  `json:"email" validate:"omitempty,email"`
	Phone       *string  `json:"phone" validate:"omitempty,max=50"`
	Websites    []string `json:"websites" validate:"omitempty,dive,url"`
	Industry    *string  `json:"industry" validate:"omitempty,max=100"`
	Notes       *string  `json:"notes" validate:"omitempty,max=5000"`
}

func (r clientPatchRequest) patch() domain.ClientPatch {
	return domain.ClientPatch{
		Name:        r.Name,
		ContactName: r.ContactName,
		Email:       r.Email,
		Phone:       r.Phone,
		Websites:    r.Websites,
		Industry:    r.Industry,
		Notes:       r.Notes,
	}
}

type projectRequest struct {
	ClientID   string    `json:"clientId" validate:"required"`
	Name       string    `json:"name" validate:"required,max=200"`
	Status     string    `json:"status" validate:"required,projectstatus"`
	StartDate  time.Time `json:"startDate" validate:"required"`
	Deadline   time.Time `json:"deadline" validate:"required"`
	WebsiteURL string    `json:"websiteUrl" validate:"omitempty,url"`
	Notes      string    `json:"notes" validate:"max=5000"`
	Value      float64   `json:"value" validate:"gte=0"`
	Tags       []string  `json:"tags" validate:"dive,max=50"`
}

func (r projectRequest) input() domain.ProjectInput {
	return domain.ProjectInput{
		ClientID:   r.ClientID,
		Name:       r.Name,
		Status:     domain.ProjectStatus(r.Status),
		StartDate:  r.StartDate,
		Deadline:   r.Deadline,
		WebsiteURL: r.WebsiteURL,
		Notes:      r.Notes,
		Value:      r.Value,
		Tags:       r.Tags,
	}
}

type projectPatchRequest struct {
	ClientID   *string    `json:"clientId" validate:"omitempty,min=1"`
	Name       *string    `json:"name" validate:"omitempty,max=200"`
	Status     *string    `json:"status" validate:"omitempty,projectstatus"`
	StartDate  *time.Time `json:"startDate"`
	Deadline   *time.Time `json:"deadline"`
	WebsiteURL *string    `json:"websiteUrl" validate:"omitempty,url"`
	Notes      *string    `json:"notes" validate:"omitempty,max=5000"`
	Value      *float64   `json:"value" validate:"omitempty,gte=0"`
	Tags       []string   `json:"tags" validate:"omitempty,dive,max=50"`
}

func (r projectPatchRequest) patch() domain.ProjectPatch {
	p := domain.ProjectPatch{
		ClientID:   r.ClientID,
		Name:       r.Name,
		StartDate:  r.StartDate,
		Deadline:   r.Deadline,
		WebsiteURL: r.WebsiteURL,
		Notes:      r.Notes,
		Value:      r.Value,
		Tags:       r.Tags,
	}
	if r.Status != nil {
		status := domain.ProjectStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type taskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	DueDate     time.Time  `json:"dueDate" validate:"required"`
	Priority    string     `json:"priority" validate:"required,priority"`
	Status      string     `json:"status" validate:"required,taskstatus"`
	RelatedType string     `json:"relatedType" validate:"required,related"`
	RelatedID   string     `json:"relatedId" validate:"required"`
	Description string     `json:"description" validate:"max=5000"`
	Reminder    *time.Time `json:"reminder"`
}

func (r taskRequest) input() domain.TaskInput {
	return domain.TaskInput{
		Title:       r.Title,
		DueDate:     r.DueDate,
		Priority:    domain.TaskPriority(r.Priority),
		Status:      domain.TaskStatus(r.Status),
		RelatedType: domain.RelatedType(r.RelatedType),
		RelatedID:   r.RelatedID,
		Description: r.Description,
		Reminder:    r.Reminder,
	}
}

type taskPatchRequest struct {
	Title       *string      `json:"title" validate:"omitempty,max=200"`
	DueDate     *time.Time   `json:"dueDate"`
	Priority    *string      `json:"priority" validate:"omitempty,priority"`
	Status      *string      `json:"status" validate:"omitempty,taskstatus"`
	RelatedType *string      `json:"relatedType" validate:"omitempty,related"`
	RelatedID   *string      `json:"relatedId" validate:"omitempty,min=1"`
	Description *string      `json:"description" validate:"omitempty,max=5000"`
	Reminder    nullableTime `json:"reminder"`
}

func (r taskPatchRequest) patch() domain.TaskPatch {
	p := domain.TaskPatch{
		Title:       r.Title,
		DueDate:     r.DueDate,
		RelatedID:   r.RelatedID,
		Description: r.Description,
		Reminder:    r.Reminder.patch(),
	}
	if r.Priority != nil {
		v := domain.TaskPriority(*r.Priority)
		p.Priority = &v
	}
	if r.Status != nil {
		v := domain.TaskStatus(*r.Status)
		p.Status = &v
	}
	if r.RelatedType != nil {
		v := domain.RelatedType(*r.RelatedType)
		p.RelatedType = &v
	}
	return p
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error      string             `json:"error"`
	Message    string             `json:"message,omitempty"`
	Fields     map[string]string  `json:"fields,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

// MutationResponse acknowledges an update or delete and carries any rule
// warnings raised by the transaction.
type MutationResponse struct {
	OK       bool               `json:"ok"`
	ID       string             `json:"id,omitempty"`
	Warnings []domain.Violation `json:"warnings,omitempty"`
}
