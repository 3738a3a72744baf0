package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"crmcore/internal/analytics"
	"crmcore/internal/auth"
	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

var errNotFound = errors.New("not found")

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if s.gate == nil {
		return echo.NewHTTPError(http.StatusNotFound, "authentication disabled")
	}
	cookie, err := s.gate.Login(req.Email, req.Password, auth.IsSecure(c.Request()))
	if err != nil {
		s.logger.Warn("login rejected", "email", req.Email)
		return err
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, MutationResponse{OK: true})
}

func (s *Server) logout(c echo.Context) error {
	if s.gate != nil {
		c.SetCookie(s.gate.Logout(auth.IsSecure(c.Request())))
	}
	return c.JSON(http.StatusOK, MutationResponse{OK: true})
}

func (s *Server) dashboard(c echo.Context) error {
	tf := analytics.Timeframe1M
	if raw := c.QueryParam("timeframe"); raw != "" {
		parsed, err := analytics.ParseTimeframe(raw)
		if err != nil {
			return err
		}
		tf = parsed
	}
	overview, err := s.svc.Dashboard(tf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}

func (s *Server) search(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.Search(c.QueryParam("q")))
}

func (s *Server) listActivity(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.ListActivity())
}

func (s *Server) listStatuses(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.LeadStatuses())
}

func (s *Server) addStatus(c echo.Context) error {
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := s.svc.AddLeadStatus(c.Request().Context(), req.Label)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation("", res))
}

func (s *Server) removeStatus(c echo.Context) error {
	res, err := s.svc.RemoveLeadStatus(c.Request().Context(), c.Param("label"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation("", res))
}

func (s *Server) listLeads(c echo.Context) error {
	filter := analytics.LeadFilter{
		Query:  c.QueryParam("q"),
		Status: c.QueryParam("status"),
		Source: c.QueryParam("source"),
		Owner:  c.QueryParam("owner"),
	}
	var err error
	if filter.From, err = s.queryDate(c, "from"); err != nil {
		return err
	}
	if filter.To, err = s.queryDate(c, "to"); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.svc.FilterLeads(filter))
}

func (s *Server) leadBoard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.svc.LeadBoard())
}

func (s *Server) createLead(c echo.Context) error {
	var req leadRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkLeadStatus(req.Status); err != nil {
		return err
	}
	id, res, err := s.svc.AddLead(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mutation(id, res))
}

func (s *Server) getLead(c echo.Context) error {
	lead, ok := s.svc.GetLead(c.Param("id"))
	if !ok {
		return errNotFound
	}
	return c.JSON(http.StatusOK, lead)
}

func (s *Server) updateLead(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetLead(id); !ok {
		return errNotFound
	}
	var req leadPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Status != nil {
		if err := s.checkLeadStatus(*req.Status); err != nil {
			return err
		}
	}
	res, err := s.svc.UpdateLead(c.Request().Context(), id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func (s *Server) deleteLead(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetLead(id); !ok {
		return errNotFound
	}
	res, err := s.svc.DeleteLead(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func (s *Server) addTimelineEntry(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetLead(id); !ok {
		return errNotFound
	}
	var req timelineRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry := domain.TimelineInput{Message: req.Message, Type: domain.TimelineType(req.Type)}
	if entry.Type == "" {
		entry.Type = domain.TimelineNote
	}
	res, err := s.svc.AddLeadTimelineEntry(c.Request().Context(), id, entry)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mutation(id, res))
}

func (s *Server) addFileLink(c echo.Context) error {
	var req fileLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	fileID, res, err := s.svc.AddLeadFile(c.Request().Context(), c.Param("id"), req.Label, req.URL)
	if err != nil {
		return err
	}
	if fileID == "" {
		return errNotFound
	}
	return c.JSON(http.StatusCreated, mutation(fileID, res))
}

func (s *Server) uploadAttachment(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required").SetInternal(err)
	}
	if header.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "attachment too large")
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := header.Header.Get(echo.HeaderContentType)
	link, res, err := s.svc.AttachLeadFile(c.Request().Context(), c.Param("id"), c.FormValue("label"), header.Filename, contentType, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, attachmentResponse{File: link, Warnings: res.Violations})
}

func (s *Server) listAttachments(c echo.Context) error {
	infos, err := s.svc.ListLeadAttachments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, infos)
}

type attachmentResponse struct {
	File     domain.FileLink    `json:"file"`
	Warnings []domain.Violation `json:"warnings,omitempty"`
}

func (s *Server) listClients(c echo.Context) error {
	return c.JSON(http.StatusOK, analytics.FilterClients(s.svc.ListClients(), c.QueryParam("q")))
}

// clientDetail is a client with its projects and directly related tasks.
type clientDetail struct {
	domain.Client
	Projects []domain.Project `json:"projects"`
	Tasks    []domain.Task    `json:"tasks"`
}

func (s *Server) getClient(c echo.Context) error {
	client, ok := s.svc.GetClient(c.Param("id"))
	if !ok {
		return errNotFound
	}
	return c.JSON(http.StatusOK, clientDetail{
		Client:   client,
		Projects: s.svc.ProjectsForClient(client.ID),
		Tasks:    s.svc.TasksFor(domain.RelatedClient, client.ID),
	})
}

func (s *Server) createClient(c echo.Context) error {
	var req clientRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, res, err := s.svc.AddClient(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mutation(id, res))
}

func (s *Server) updateClient(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetClient(id); !ok {
		return errNotFound
	}
	var req clientPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Websites != nil && len(req.Websites) == 0 {
		return fieldError{Field: "Websites", Tag: "min"}
	}
	res, err := s.svc.UpdateClient(c.Request().Context(), id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func (s *Server) deleteClient(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetClient(id); !ok {
		return errNotFound
	}
	res, err := s.svc.DeleteClient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func (s *Server) listProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, analytics.FilterProjects(s.svc.ListProjects(), c.QueryParam("q")))
}

type projectDetail struct {
	domain.Project
	Tasks []domain.Task `json:"tasks"`
}

func (s *Server) getProject(c echo.Context) error {
	project, ok := s.svc.GetProject(c.Param("id"))
	if !ok {
		return errNotFound
	}
	return c.JSON(http.StatusOK, projectDetail{Project: project, Tasks: s.svc.TasksFor(domain.RelatedProject, project.ID)})
}

func (s *Server) createProject(c echo.Context) error {
	var req projectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkClient(req.ClientID); err != nil {
		return err
	}
	id, res, err := s.svc.AddProject(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mutation(id, res))
}

func (s *Server) updateProject(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetProject(id); !ok {
		return errNotFound
	}
	var req projectPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.ClientID != nil {
		if err := s.checkClient(*req.ClientID); err != nil {
			return err
		}
	}
	res, err := s.svc.UpdateProject(c.Request().Context(), id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func (s *Server) deleteProject(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetProject(id); !ok {
		return errNotFound
	}
	res, err := s.svc.DeleteProject(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

// taskView adds the display label of the related record.
type taskView struct {
	domain.Task
	RelatedLabel string `json:"relatedLabel"`
	DueLabel     string `json:"dueLabel"`
}

func (s *Server) taskView(task domain.Task, now time.Time) taskView {
	return taskView{Task: task, RelatedLabel: s.svc.RelationLabel(task), DueLabel: timeutil.DueLabel(task.DueDate, now)}
}

func (s *Server) listTasks(c echo.Context) error {
	filter := analytics.TaskFilter{
		Query:    c.QueryParam("q"),
		Due:      analytics.DueFilter(c.QueryParam("due")),
		Priority: c.QueryParam("priority"),
		Status:   c.QueryParam("status"),
	}
	now := s.svc.Now()
	tasks := s.svc.FilterTasks(filter)
	out := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, s.taskView(task, now))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c echo.Context) error {
	task, ok := s.svc.GetTask(c.Param("id"))
	if !ok {
		return errNotFound
	}
	return c.JSON(http.StatusOK, s.taskView(task, s.svc.Now()))
}

func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := s.checkRelated(domain.RelatedType(req.RelatedType), req.RelatedID); err != nil {
		return err
	}
	id, res, err := s.svc.AddTask(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, mutation(id, res))
}

func (s *Server) updateTask(c echo.Context) error {
	id := c.Param("id")
	task, ok := s.svc.GetTask(id)
	if !ok {
		return errNotFound
	}
	var req taskPatchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.RelatedType != nil || req.RelatedID != nil {
		relatedType, relatedID := task.RelatedType, task.RelatedID
		if req.RelatedType != nil {
			relatedType = domain.RelatedType(*req.RelatedType)
		}
		if req.RelatedID != nil {
			relatedID = *req.RelatedID
		}
		if err := s.checkRelated(relatedType, relatedID); err != nil {
			return err
		}
	}
	res, err := s.svc.UpdateTask(c.Request().Context(), id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func (s *Server) deleteTask(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.svc.GetTask(id); !ok {
		return errNotFound
	}
	res, err := s.svc.DeleteTask(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mutation(id, res))
}

func mutation(id string, res domain.Result) MutationResponse {
	return MutationResponse{OK: true, ID: id, Warnings: res.Violations}
}

func (s *Server) queryDate(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	t, err := timeutil.ParseISO(raw, s.loc)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+" date").SetInternal(err)
	}
	return &t, nil
}
