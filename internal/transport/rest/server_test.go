package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/auth"
	blobcore "crmcore/internal/blob/core"
	"crmcore/internal/config"
	"crmcore/internal/core"
	"crmcore/internal/ids"
	blobmemory "crmcore/internal/infra/blob/memory"
	"crmcore/internal/infra/persistence/memory"
	"crmcore/internal/infra/seed"
	"crmcore/internal/metrics"
	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

const testToken = "test-token"

var testNow = time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC)

type harness struct {
	handler http.Handler
	svc     *core.Service
}

func newHarness(t *testing.T, opts ...core.ServiceOption) *harness {
	t.Helper()
	store := memory.NewStore(
		memory.WithClock(timeutil.Fixed(testNow)),
		memory.WithIDGenerator(ids.NewSequenceGenerator()),
		memory.WithRulesEngine(core.NewDefaultRulesEngine()),
	)
	store.ImportState(seed.Demo(testNow))
	svc := core.NewService(store, opts...)

	reg := prometheus.NewRegistry()
	gate := auth.NewGate(config.AuthConfig{Email: "owner@example.com", Password: "hometown", SessionToken: testToken})
	srv := NewServer(svc, "test", Options{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Gate:           gate,
		Metrics:        metrics.New(reg, "crmcore"),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Location:       time.UTC,
	})
	return &harness{handler: srv.Handler(), svc: svc}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "owner@example.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[ErrorResponse](t, rec).Error)

	rec = h.do(t, http.MethodPost, "/api/auth/login", loginRequest{Email: " Owner@Example.com", Password: "hometown"})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "crm_session", cookies[0].Name)
	assert.Equal(t, testToken, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/api/statuses", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListLeadsFilters(t *testing.T) {
	h := newHarness(t)

	all := decode[[]domain.Lead](t, h.do(t, http.MethodGet, "/api/leads", nil))
	assert.Len(t, all, 7)

	owned := decode[[]domain.Lead](t, h.do(t, http.MethodGet, "/api/leads?owner=Kyle&q=dental", nil))
	require.Len(t, owned, 1)
	assert.Equal(t, "lead_1", owned[0].ID)

	rec := h.do(t, http.MethodGet, "/api/leads?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLeadValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/leads", map[string]any{"name": "Riley", "source": "Carrier Pigeon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, "required", body.Fields["Business"])
	assert.Equal(t, "leadsource", body.Fields["Source"])

	rec = h.do(t, http.MethodPost, "/api/leads", leadRequest{
		Name: "Riley Chen", Business: "Chen Bakery", Status: "New",
		Source: string(domain.SourceReferral), Owner: "Kyle", EstimatedValue: 2400,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[MutationResponse](t, rec)
	assert.True(t, created.OK)
	lead, ok := h.svc.GetLead(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Chen Bakery", lead.Business)
}

func TestRejectsUnknownReferences(t *testing.T) {
	h := newHarness(t)
	due := testNow.Add(48 * time.Hour)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		field  string
		tag    string
	}{
		{"lead status", http.MethodPost, "/api/leads", leadRequest{
			Name: "Riley Chen", Business: "Chen Bakery", Status: "NotAStatus",
			Source: string(domain.SourceReferral), Owner: "Kyle",
		}, "Status", "leadstatus"},
		{"lead status patch", http.MethodPatch, "/api/leads/lead_1", map[string]any{"status": "new"}, "Status", "leadstatus"},
		{"client websites", http.MethodPost, "/api/clients", map[string]any{"name": "Acme", "websites": []string{}}, "Websites", ""},
		{"client websites missing", http.MethodPost, "/api/clients", map[string]any{"name": "Acme"}, "Websites", "required"},
		{"client websites patch", http.MethodPatch, "/api/clients/client_1", map[string]any{"websites": []string{}}, "Websites", "min"},
		{"project client", http.MethodPost, "/api/projects", projectRequest{
			ClientID: "client_does_not_exist", Name: "Refresh", Status: string(domain.ProjectPlanning),
			StartDate: testNow, Deadline: due,
		}, "ClientID", "exists"},
		{"project client patch", http.MethodPatch, "/api/projects/project_1", map[string]any{"clientId": "client_nope"}, "ClientID", "exists"},
		{"task related", http.MethodPost, "/api/tasks", taskRequest{
			Title: "Call back", DueDate: due, Priority: string(domain.PriorityHigh), Status: string(domain.TaskTodo),
			RelatedType: string(domain.RelatedLead), RelatedID: "lead_nope",
		}, "RelatedID", "exists"},
		{"task related type mismatch", http.MethodPost, "/api/tasks", taskRequest{
			Title: "Call back", DueDate: due, Priority: string(domain.PriorityHigh), Status: string(domain.TaskTodo),
			RelatedType: string(domain.RelatedProject), RelatedID: "client_1",
		}, "RelatedID", "exists"},
		{"task related type patch", http.MethodPatch, "/api/tasks/task_1", map[string]any{"relatedType": "project", "relatedId": "lead_1"}, "RelatedID", "exists"},
	}
	before := h.svc.Store().ExportState()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.do(t, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode[ErrorResponse](t, rec)
			assert.Equal(t, "validation_error", body.Error)
			if tc.tag == "" {
				assert.Contains(t, body.Fields, tc.field)
				return
			}
			assert.Equal(t, tc.tag, body.Fields[tc.field])
		})
	}
	after := h.svc.Store().ExportState()
	assert.Len(t, after.Leads, len(before.Leads))
	assert.Len(t, after.Clients, len(before.Clients))
	assert.Len(t, after.Projects, len(before.Projects))
	assert.Len(t, after.Tasks, len(before.Tasks))
	assert.Equal(t, before.Activity, after.Activity)
}

func TestAcceptsLiveReferences(t *testing.T) {
	h := newHarness(t)
	due := testNow.Add(48 * time.Hour)

	rec := h.do(t, http.MethodPost, "/api/projects", projectRequest{
		ClientID: "client_2", Name: "Refresh", Status: string(domain.ProjectPlanning),
		StartDate: testNow, Deadline: due,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	project := decode[MutationResponse](t, rec)

	rec = h.do(t, http.MethodPost, "/api/tasks", taskRequest{
		Title: "Kickoff", DueDate: due, Priority: string(domain.PriorityMedium), Status: string(domain.TaskTodo),
		RelatedType: string(domain.RelatedProject), RelatedID: project.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, decode[MutationResponse](t, rec).Warnings)

	rec = h.do(t, http.MethodPatch, "/api/tasks/task_1", map[string]any{"relatedType": "client", "relatedId": "client_3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/clients", clientRequest{Name: "Acme", Websites: []string{"https://acme.example"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestLeadLifecycle(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPatch, "/api/leads/lead_3", map[string]any{"status": "Contacted", "lastContacted": nil})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lead, _ := h.svc.GetLead("lead_3")
	assert.Equal(t, "Contacted", lead.Status)
	assert.Nil(t, lead.LastContacted)

	rec = h.do(t, http.MethodPost, "/api/leads/lead_3/timeline", timelineRequest{Message: "Left a voicemail"})
	require.Equal(t, http.StatusCreated, rec.Code)
	lead, _ = h.svc.GetLead("lead_3")
	require.NotEmpty(t, lead.Timeline)
	assert.Equal(t, "Left a voicemail", lead.Timeline[0].Message)
	assert.Equal(t, domain.TimelineNote, lead.Timeline[0].Type)

	rec = h.do(t, http.MethodPost, "/api/leads/lead_3/files", fileLinkRequest{Label: "Brief", URL: "https://example.com/brief.pdf"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(t, http.MethodPost, "/api/leads/lead_404/files", fileLinkRequest{Label: "Brief", URL: "https://example.com/brief.pdf"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/api/leads/lead_3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/leads/lead_3", nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodDelete, "/api/leads/lead_3", nil).Code)
}

func TestClientDetailAndCascadeWarning(t *testing.T) {
	h := newHarness(t)

	detail := decode[clientDetail](t, h.do(t, http.MethodGet, "/api/clients/client_1", nil))
	assert.Equal(t, "client_1", detail.ID)
	assert.NotEmpty(t, detail.Projects)
	for _, project := range detail.Projects {
		assert.Equal(t, "client_1", project.ClientID)
	}

	rec := h.do(t, http.MethodDelete, "/api/clients/client_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.svc.ProjectsForClient("client_1"))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/clients/client_1", nil).Code)
}

func TestTasksCarryLabels(t *testing.T) {
	h := newHarness(t)
	tasks := decode[[]taskView](t, h.do(t, http.MethodGet, "/api/tasks?status=all", nil))
	require.NotEmpty(t, tasks)
	for _, task := range tasks {
		assert.NotEmpty(t, task.RelatedLabel, task.ID)
		assert.NotEmpty(t, task.DueLabel, task.ID)
	}

	rec := h.do(t, http.MethodPost, "/api/tasks", map[string]any{"title": "Call back", "priority": "Urgent"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/dashboard?timeframe=2W", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/dashboard?timeframe=7D", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview struct {
		Timeframe string            `json:"timeframe"`
		Revenue   []json.RawMessage `json:"revenue"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Equal(t, "7D", overview.Timeframe)
	assert.NotEmpty(t, overview.Revenue)
}

func TestSearchEndpoint(t *testing.T) {
	h := newHarness(t)
	hits := decode[[]core.SearchHit](t, h.do(t, http.MethodGet, "/api/search?q=dental", nil))
	require.NotEmpty(t, hits)
	assert.Equal(t, "lead_1", hits[0].ID)
	assert.Empty(t, decode[[]core.SearchHit](t, h.do(t, http.MethodGet, "/api/search?q=", nil)))
}

func multipartUpload(t *testing.T, path, filename, label string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("label", label))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestUploadAttachment(t *testing.T) {
	h := newHarness(t, core.WithBlobStore(blobmemory.New()))

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, multipartUpload(t, "/api/leads/lead_2/attachments", "contract.pdf", "Signed contract"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[attachmentResponse](t, rec)
	assert.Equal(t, "Signed contract", body.File.Label)
	assert.True(t, strings.HasPrefix(body.File.URL, blobmemory.Scheme+"leads/lead_2/"))

	listed := decode[[]blobcore.Info](t, h.do(t, http.MethodGet, "/api/leads/lead_2/attachments", nil))
	require.Len(t, listed, 1)
	assert.Equal(t, body.File.URL, listed[0].URL)
	assert.Equal(t, "Signed contract", listed[0].Metadata["label"])
	assert.Empty(t, decode[[]blobcore.Info](t, h.do(t, http.MethodGet, "/api/leads/lead_1/attachments", nil)))
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/leads/lead_404/attachments", nil).Code)

	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, multipartUpload(t, "/api/leads/lead_404/attachments", "contract.pdf", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadAttachmentWithoutStore(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, multipartUpload(t, "/api/leads/lead_2/attachments", "contract.pdf", ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, http.StatusServiceUnavailable, h.do(t, http.MethodGet, "/api/leads/lead_2/attachments", nil).Code)
}

func TestStatusesEndpoints(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/api/statuses", statusRequest{Label: "On Ice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, h.svc.LeadStatuses(), "On Ice")

	rec = h.do(t, http.MethodDelete, "/api/statuses/On%20Ice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, h.svc.LeadStatuses(), "On Ice")

	board := decode[[]core.LeadColumn](t, h.do(t, http.MethodGet, "/api/leads/board", nil))
	assert.Len(t, board, len(h.svc.LeadStatuses()))
}
