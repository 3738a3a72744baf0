package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/config"
	"crmcore/pkg/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Log:       config.LogConfig{Level: "info", Format: "json"},
		Auth:      config.AuthConfig{Email: "owner@example.com", Password: "pw", SessionToken: "tok"},
		Seed:      config.SeedConfig{Source: config.SeedDemo},
		Blob:      config.BlobConfig{Driver: config.BlobMemory},
		Metrics:   config.MetricsConfig{Enabled: true, Namespace: "crmcore_test", Path: "/metrics"},
		Workspace: config.WorkspaceConfig{Timezone: "UTC"},
	}
}

func TestBootstrapDemoWorkspace(t *testing.T) {
	ws, err := Bootstrap(context.Background(), testConfig(t), slog.Default())
	require.NoError(t, err)

	assert.Len(t, ws.Service.ListLeads(), 7)
	require.NotNil(t, ws.Metrics)

	ctx := context.Background()
	_, _, err = ws.Service.AddClient(ctx, domain.ClientInput{Name: "Harbor Coffee"})
	require.NoError(t, err)
	stats := ws.Expvar.Snapshot().Operations
	assert.Equal(t, int64(1), stats["add_client"].Count)

	srv := ws.Server()
	for _, path := range []string{"/healthz", "/metrics", "/debug/vars"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestBootstrapWithoutMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Enabled = false
	cfg.Seed.Source = config.SeedNone

	ws, err := Bootstrap(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, ws.Metrics)
	assert.Empty(t, ws.Service.ListLeads())
	assert.NotEmpty(t, ws.Service.LeadStatuses())

	rec := httptest.NewRecorder()
	ws.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBootstrapRejectsBadSeed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Seed = config.SeedConfig{Source: config.SeedJSON}
	_, err := Bootstrap(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg.Seed = config.SeedConfig{Source: config.SeedJSON, Path: t.TempDir() + "/missing.json"}
	_, err = Bootstrap(context.Background(), cfg, nil)
	assert.Error(t, err)
}
