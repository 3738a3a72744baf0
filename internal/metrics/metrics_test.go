package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/pkg/domain"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New(prometheus.NewRegistry(), "crm_test")
}

func TestObserve(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	m.Observe(ctx, "add_lead", true, 2*time.Millisecond)
	m.Observe(ctx, "add_lead", true, time.Millisecond)
	m.Observe(ctx, "add_lead", false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("add_lead", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("add_lead", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestCollectionsTrackChanges(t *testing.T) {
	m := newTestMetrics(t)
	m.SetCollections(domain.Snapshot{
		Leads: make([]domain.Lead, 3),
		Tasks: make([]domain.Task, 2),
	})

	m.TrackChanges(context.Background(), []domain.Change{
		{Entity: domain.EntityLead, Action: domain.ActionDelete, ID: "lead_1"},
		{Entity: domain.EntityTask, Action: domain.ActionDelete, ID: "task_1"},
		{Entity: domain.EntityClient, Action: domain.ActionCreate, ID: "client_1"},
		{Entity: domain.EntityLead, Action: domain.ActionUpdate, ID: "lead_2"},
		{Entity: domain.EntityLeadStatus, Action: domain.ActionCreate, ID: "Paused"},
	}, domain.Result{Violations: []domain.Violation{{Rule: "orphaned_task", Severity: domain.SeverityWarn}}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Collection.WithLabelValues("lead")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collection.WithLabelValues("task")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Collection.WithLabelValues("client")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Collection.WithLabelValues("project")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleViolations.WithLabelValues("orphaned_task", "warn")))
}

func TestMiddlewareCountsRoutePattern(t *testing.T) {
	m := newTestMetrics(t)
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/leads/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Param("id"))
	})
	e.GET("/api/fail", func(echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	for _, target := range []string{"/api/leads/lead_1", "/api/leads/lead_2", "/api/fail"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/leads/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/fail", "418")))
}
