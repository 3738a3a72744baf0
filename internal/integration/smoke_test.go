package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/app"
	"crmcore/internal/config"
	"crmcore/internal/infra/blob/fs"
	"crmcore/internal/infra/seed"
)

const smokeToken = "smoke-token"

// TestIntegrationSmoke boots a workspace from every file-backed seed source
// and drives a short write/read cycle through the HTTP API.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()
	demo := seed.Demo(time.Now().UTC())

	variants := []struct {
		name    string
		prepare func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "json-seed/memory-blob",
			prepare: func(t *testing.T, cfg *config.Config) {
				path := filepath.Join(t.TempDir(), "workspace.json")
				require.NoError(t, seed.WriteJSONFile(path, demo))
				cfg.Seed = config.SeedConfig{Source: config.SeedJSON, Path: path}
				cfg.Blob = config.BlobConfig{Driver: config.BlobMemory}
			},
		},
		{
			name: "sqlite-seed/fs-blob",
			prepare: func(t *testing.T, cfg *config.Config) {
				dir := t.TempDir()
				path := filepath.Join(dir, "seed.db")
				require.NoError(t, seed.WriteSQL(ctx, seed.DriverSQLite, path, demo))
				cfg.Seed = config.SeedConfig{Source: config.SeedSQLite, Path: path}
				cfg.Blob = config.BlobConfig{Driver: config.BlobFilesystem, FSRoot: filepath.Join(dir, "blobs")}
			},
		},
		{
			name: "blob-seed/fs-blob",
			prepare: func(t *testing.T, cfg *config.Config) {
				root := t.TempDir()
				store, err := fs.New(root)
				require.NoError(t, err)
				_, err = seed.WriteBlob(ctx, store, seed.DefaultBlobKey, demo)
				require.NoError(t, err)
				cfg.Seed = config.SeedConfig{Source: config.SeedBlob, BlobKey: seed.DefaultBlobKey}
				cfg.Blob = config.BlobConfig{Driver: config.BlobFilesystem, FSRoot: root}
			},
		},
	}

	for _, v := range variants {
		t.Run(v.name, func(t *testing.T) {
			cfg := &config.Config{
				Auth:      config.AuthConfig{Email: "owner@example.com", Password: "pw", SessionToken: smokeToken},
				Metrics:   config.MetricsConfig{Enabled: true, Namespace: "smoke", Path: "/metrics"},
				Workspace: config.WorkspaceConfig{Timezone: "UTC"},
			}
			v.prepare(t, cfg)

			ws, err := app.Bootstrap(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			require.NoError(t, err)
			require.Len(t, ws.Service.ListLeads(), len(demo.Leads))
			handler := ws.Server().Handler()

			rec := call(t, handler, http.MethodPost, "/api/leads", "application/json", jsonBody(t, map[string]any{
				"name": "Quinn Park", "business": "Park Pilates", "status": "New",
				"source": "Referral", "owner": "Kyle", "estimatedValue": 3200,
			}))
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var created struct {
				ID string `json:"id"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

			body, contentType := attachment(t, "scope.txt")
			rec = call(t, handler, http.MethodPost, "/api/leads/"+created.ID+"/attachments", contentType, body)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			rec = call(t, handler, http.MethodGet, "/api/dashboard?timeframe=7D", "", nil)
			require.Equal(t, http.StatusOK, rec.Code)

			lead, ok := ws.Service.GetLead(created.ID)
			require.True(t, ok)
			require.Len(t, lead.Files, 1)
			assert.Equal(t, "scope.txt", lead.Files[0].Label)
			assert.Len(t, ws.Store.ExportState().Leads, len(demo.Leads)+1)
		})
	}
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func attachment(t *testing.T, filename string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("phase one: landing page"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func call(t *testing.T, handler http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+smokeToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
