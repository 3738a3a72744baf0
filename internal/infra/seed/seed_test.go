package seed

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmcore/internal/blob/core"
	"crmcore/internal/config"
	blobmemory "crmcore/internal/infra/blob/memory"
	"crmcore/internal/infra/persistence/memory"
	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

var seedNow = time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC)

func TestDemoShape(t *testing.T) {
	snap := Demo(seedNow)

	assert.Equal(t, domain.DefaultLeadStatuses(), snap.LeadStatuses)
	assert.Len(t, snap.Leads, 7)
	assert.Len(t, snap.Clients, 3)
	assert.Len(t, snap.Projects, 3)
	assert.Len(t, snap.Tasks, 6)
	assert.Len(t, snap.Activity, 5)
	require.Len(t, snap.Revenue, RevenueDays)

	assert.Nil(t, snap.Leads[2].LastContacted, "Ortiz has never been contacted")
	assert.Equal(t, time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC), *snap.Leads[0].LastContacted)
	assert.Equal(t, time.Date(2026, 4, 8, 10, 0, 0, 0, time.UTC), snap.Projects[0].Deadline)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 12, 0, 0, time.UTC), snap.Activity[0].CreatedAt)
}

func TestDemoRevenueCurve(t *testing.T) {
	points := DemoRevenue(seedNow)
	require.Len(t, points, RevenueDays)

	assert.Equal(t, 900.0, points[0].Amount)
	// i=1: 900 + sin(1/23)*260 + 7 + 42 = 960.30...
	assert.Equal(t, 960.0, points[1].Amount)
	assert.Equal(t, seedNow, points[RevenueDays-1].Date)
	assert.Equal(t, timeutil.AddDays(seedNow, -364), points[0].Date)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Date.After(points[i-1].Date), "series is oldest first")
		assert.GreaterOrEqual(t, points[i].Amount, 0.0)
	}
}

func TestDemoImportsCleanly(t *testing.T) {
	store := memory.NewStore(memory.WithClock(timeutil.Fixed(seedNow)))
	store.ImportState(Demo(seedNow))

	lead, ok := store.GetLead("lead_1")
	require.True(t, ok)
	assert.Equal(t, []string{"task_1"}, lead.TaskIDs)
	assert.Len(t, store.TasksFor(domain.RelatedProject, "project_1"), 1)
	assert.Len(t, store.ProjectsForClient("client_2"), 1)
}

func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "workspace.json")
	want := Demo(seedNow)
	require.NoError(t, WriteJSONFile(path, want))

	got, err := JSONFile{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(want.Leads), len(got.Leads))
	assert.Equal(t, want.Leads[0].Business, got.Leads[0].Business)
	assert.True(t, want.Revenue[10].Date.Equal(got.Revenue[10].Date))
	assert.Equal(t, want.Revenue[10].Amount, got.Revenue[10].Amount)
}

func TestJSONFileMissing(t *testing.T) {
	_, err := JSONFile{Path: filepath.Join(t.TempDir(), "absent.json")}.Load(context.Background())
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewBufferString("{not json"))
	assert.Error(t, err)
}

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobmemory.New()
	want := Demo(seedNow)

	info, err := WriteBlob(ctx, store, "", want)
	require.NoError(t, err)
	assert.Equal(t, DefaultBlobKey, info.Key)

	// writing again replaces the object instead of failing with ErrExists
	_, err = WriteBlob(ctx, store, "", want)
	require.NoError(t, err)

	got, err := BlobSource{Store: store}.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 6)
	assert.Equal(t, want.Clients[1].Websites, got.Clients[1].Websites)
}

func TestBlobSourceMissingKey(t *testing.T) {
	_, err := BlobSource{Store: blobmemory.New(), Key: "nope.json"}.Load(context.Background())
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed", "workspace.db")
	want := Demo(seedNow)

	if err := WriteSQL(ctx, DriverSQLite, path, want); err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	want.Leads = want.Leads[:2]
	require.NoError(t, WriteSQL(ctx, DriverSQLite, path, want), "second write upserts")

	got, err := SQLSource{Driver: DriverSQLite, DSN: path}.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Leads, 2)
	assert.Len(t, got.Revenue, RevenueDays)
	assert.Equal(t, want.LeadStatuses, got.LeadStatuses)
	assert.Equal(t, want.Activity[3].Message, got.Activity[3].Message)
}

func TestSQLSourceIgnoresUnknownBuckets(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workspace.db")
	if err := WriteSQL(ctx, DriverSQLite, path, domain.Snapshot{LeadStatuses: []string{"New"}}); err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	db, err := sql.Open(DriverSQLite, path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES('legacy','[]')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	got, err := SQLSource{Driver: DriverSQLite, DSN: path}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"New"}, got.LeadStatuses)
}

func TestSQLSourceRejectsUnknownDriver(t *testing.T) {
	_, err := SQLSource{Driver: "mysql", DSN: "x"}.Load(context.Background())
	assert.Error(t, err)
}

func TestSQLSourcePostgresUsesPGXDriver(t *testing.T) {
	var gotDriver, gotDSN string
	prev := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return nil, errors.New("offline")
	}
	t.Cleanup(func() { sqlOpen = prev })

	_, err := SQLSource{Driver: DriverPostgres, DSN: "postgres://crm@localhost/crm"}.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, "postgres://crm@localhost/crm", gotDSN)
}

func TestOpen(t *testing.T) {
	blobs := blobmemory.New()
	now := func() time.Time { return seedNow }

	cases := []struct {
		name    string
		cfg     config.SeedConfig
		blobs   core.Store
		want    Source
		wantErr error
	}{
		{name: "json", cfg: config.SeedConfig{Source: config.SeedJSON, Path: "w.json"}, want: JSONFile{Path: "w.json"}},
		{name: "json without path", cfg: config.SeedConfig{Source: config.SeedJSON}, wantErr: ErrNoSource},
		{name: "blob", cfg: config.SeedConfig{Source: config.SeedBlob, BlobKey: "k"}, blobs: blobs, want: BlobSource{Store: blobs, Key: "k"}},
		{name: "blob without store", cfg: config.SeedConfig{Source: config.SeedBlob}, wantErr: ErrNoSource},
		{name: "sqlite path", cfg: config.SeedConfig{Source: config.SeedSQLite, Path: "w.db"}, want: SQLSource{Driver: DriverSQLite, DSN: "w.db"}},
		{name: "postgres", cfg: config.SeedConfig{Source: config.SeedPostgres, DSN: "postgres://x"}, want: SQLSource{Driver: DriverPostgres, DSN: "postgres://x"}},
		{name: "postgres without dsn", cfg: config.SeedConfig{Source: config.SeedPostgres}, wantErr: ErrNoSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Open(tc.cfg, tc.blobs, now)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Open(config.SeedConfig{Source: "ftp"}, nil, now)
	assert.Error(t, err)
}

func TestOpenDemoAndNone(t *testing.T) {
	ctx := context.Background()
	src, err := Open(config.SeedConfig{Source: config.SeedDemo}, nil, func() time.Time { return seedNow })
	require.NoError(t, err)
	snap, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Leads, 7)

	src, err = Open(config.SeedConfig{Source: config.SeedNone}, nil, nil)
	require.NoError(t, err)
	snap, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Leads)
	assert.Equal(t, domain.DefaultLeadStatuses(), snap.LeadStatuses)
}
