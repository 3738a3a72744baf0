package seed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"crmcore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// database/sql driver names understood by SQLSource and WriteSQL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Snapshot buckets, one row each in the state table.
const (
	bucketLeadStatuses = "leadStatuses"
	bucketLeads        = "leads"
	bucketClients      = "clients"
	bucketProjects     = "projects"
	bucketTasks        = "tasks"
	bucketActivity     = "activity"
	bucketRevenue      = "revenue"
)

var stateBuckets = []string{
	bucketLeadStatuses, bucketLeads, bucketClients, bucketProjects,
	bucketTasks, bucketActivity, bucketRevenue,
}

// SQLSource loads a snapshot from a state(bucket, payload) table where each
// payload is the JSON encoding of one snapshot collection. Missing buckets
// leave the collection empty.
type SQLSource struct {
	Driver string
	DSN    string
}

// Load implements Source.
func (s SQLSource) Load(ctx context.Context) (domain.Snapshot, error) {
	db, err := openDB(ctx, s.Driver, s.DSN)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer func() { _ = db.Close() }()
	return loadSnapshot(ctx, db)
}

// WriteSQL stores snapshot into the state table at dsn, creating the table
// when needed and replacing existing buckets.
func WriteSQL(ctx context.Context, driver, dsn string, snapshot domain.Snapshot) (retErr error) {
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("seed: create dirs: %w", err)
		}
	}
	db, err := openDB(ctx, driver, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := ensureStateTable(ctx, db, driver); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	upsert := upsertStatement(driver)
	for _, bucket := range stateBuckets {
		data, err := json.Marshal(bucketTarget(&snapshot, bucket))
		if err != nil {
			return fmt.Errorf("seed: encode %s: %w", bucket, err)
		}
		if _, err := tx.ExecContext(ctx, upsert, bucket, data); err != nil {
			return fmt.Errorf("seed: upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

func openDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("seed: unsupported sql driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty dsn", ErrNoSource)
	}
	openMu.Lock()
	db, err := sqlOpen(driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("seed: open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed: ping %s: %w", driver, err)
	}
	return db, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB, driver string) error {
	payloadType := "BLOB"
	if driver == DriverPostgres {
		payloadType = "JSONB"
	}
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload ` + payloadType + ` NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("seed: ensure state table: %w", err)
	}
	return nil
}

func upsertStatement(driver string) string {
	if driver == DriverPostgres {
		return `INSERT INTO state (bucket, payload) VALUES ($1, $2)
			ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload`
	}
	return `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`
}

func loadSnapshot(ctx context.Context, db *sql.DB) (domain.Snapshot, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("seed: select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snapshot domain.Snapshot
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.Snapshot{}, fmt.Errorf("seed: scan: %w", err)
		}
		target := bucketTarget(&snapshot, bucket)
		if target == nil {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return domain.Snapshot{}, fmt.Errorf("seed: decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("seed: iterate state: %w", err)
	}
	return snapshot, nil
}

// bucketTarget returns a pointer to the snapshot field stored under bucket,
// or nil for unknown buckets.
func bucketTarget(snapshot *domain.Snapshot, bucket string) any {
	switch bucket {
	case bucketLeadStatuses:
		return &snapshot.LeadStatuses
	case bucketLeads:
		return &snapshot.Leads
	case bucketClients:
		return &snapshot.Clients
	case bucketProjects:
		return &snapshot.Projects
	case bucketTasks:
		return &snapshot.Tasks
	case bucketActivity:
		return &snapshot.Activity
	case bucketRevenue:
		return &snapshot.Revenue
	}
	return nil
}
