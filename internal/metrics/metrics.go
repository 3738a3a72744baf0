// Package metrics exposes crmcore's prometheus collectors: HTTP traffic,
// service operations, rule violations and workspace collection sizes.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crmcore/pkg/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Service metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	RuleViolations    *prometheus.CounterVec

	// Workspace metrics
	Collection *prometheus.GaugeVec
}

// New registers the collectors with reg under namespace. Passing a fresh
// prometheus.NewRegistry keeps tests independent of the default registry.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Workspace mutations by operation and outcome",
			},
			[]string{"operation", "status"}, // success, error
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Workspace mutation latency in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"operation"},
		),
		RuleViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_violations_total",
				Help:      "Rule violations reported by committed transactions",
			},
			[]string{"rule", "severity"},
		),
		Collection: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workspace_records",
				Help:      "Number of records per workspace collection",
			},
			[]string{"collection"}, // lead, client, project, task
		),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			path := c.Path() // route pattern, e.g. /api/leads/:id
			status := strconv.Itoa(c.Response().Status)
			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Observe records a service operation outcome.
func (m *Metrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetCollections resets the record gauges from a full snapshot.
func (m *Metrics) SetCollections(snapshot domain.Snapshot) {
	m.Collection.WithLabelValues(string(domain.EntityLead)).Set(float64(len(snapshot.Leads)))
	m.Collection.WithLabelValues(string(domain.EntityClient)).Set(float64(len(snapshot.Clients)))
	m.Collection.WithLabelValues(string(domain.EntityProject)).Set(float64(len(snapshot.Projects)))
	m.Collection.WithLabelValues(string(domain.EntityTask)).Set(float64(len(snapshot.Tasks)))
}

// TrackChanges adjusts the record gauges and violation counters after a
// commit. Its signature matches memory.ChangeObserver; it must not read the
// store because observers run under the store lock.
func (m *Metrics) TrackChanges(_ context.Context, changes []domain.Change, res domain.Result) {
	for _, change := range changes {
		if change.Entity == domain.EntityLeadStatus {
			continue
		}
		switch change.Action {
		case domain.ActionCreate:
			m.Collection.WithLabelValues(string(change.Entity)).Inc()
		case domain.ActionDelete:
			m.Collection.WithLabelValues(string(change.Entity)).Dec()
		}
	}
	for _, v := range res.Violations {
		m.RuleViolations.WithLabelValues(v.Rule, string(v.Severity)).Inc()
	}
}
