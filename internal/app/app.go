// Package app assembles the workspace service from configuration and runs the
// HTTP server.
package app

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crmcore/internal/auth"
	"crmcore/internal/blob"
	blobcore "crmcore/internal/blob/core"
	"crmcore/internal/config"
	"crmcore/internal/core"
	"crmcore/internal/infra/persistence/memory"
	"crmcore/internal/infra/seed"
	"crmcore/internal/metrics"
	"crmcore/internal/timeutil"
	"crmcore/internal/transport/rest"
)

// Workspace is a fully wired service plus the collaborators the HTTP layer
// and crmctl need.
type Workspace struct {
	Config   *config.Config
	Logger   *slog.Logger
	Location *time.Location
	Store    *memory.Store
	Service  *core.Service
	Blobs    blobcore.Store
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Expvar   *core.ExpvarMetricsRecorder
}

// Bootstrap opens the blob store, loads the seed snapshot and builds the
// service. Prometheus collectors are registered on a private registry.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Workspace.Location()
	clock := timeutil.SystemClock{Location: loc}

	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("app: blob store: %w", err)
	}

	source, err := seed.Open(cfg.Seed, blobs, clock.Now)
	if err != nil {
		return nil, fmt.Errorf("app: seed: %w", err)
	}
	snapshot, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: load seed %s: %w", cfg.Seed.Source, err)
	}

	ws := &Workspace{
		Config:   cfg,
		Logger:   logger,
		Location: loc,
		Blobs:    blobs,
		Expvar:   core.NewExpvarMetricsRecorder(""),
	}

	storeOpts := []memory.Option{
		memory.WithClock(clock),
		memory.WithRulesEngine(core.NewDefaultRulesEngine()),
	}
	recorders := multiRecorder{ws.Expvar}
	if cfg.Metrics.Enabled {
		ws.Registry = prometheus.NewRegistry()
		ws.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		ws.Metrics = metrics.New(ws.Registry, cfg.Metrics.Namespace)
		storeOpts = append(storeOpts, memory.WithChangeObserver(ws.Metrics.TrackChanges))
		recorders = append(recorders, ws.Metrics)
	}

	ws.Store = memory.NewStore(storeOpts...)
	ws.Store.ImportState(snapshot)
	if ws.Metrics != nil {
		ws.Metrics.SetCollections(ws.Store.ExportState())
	}

	svcOpts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithAuditRecorder(core.LogAuditRecorder{Logger: logger}),
		core.WithMetricsRecorder(recorders),
		core.WithClock(clock.Now),
		core.WithBlobStore(blobs),
	}
	if strings.EqualFold(cfg.Log.Level, "debug") {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(os.Stderr)))
	}
	ws.Service = core.NewService(ws.Store, svcOpts...)

	logger.Info("workspace loaded",
		slog.String("seed", cfg.Seed.Source),
		slog.String("blob", string(blobs.Driver())),
		slog.Int("leads", len(snapshot.Leads)),
		slog.Int("clients", len(snapshot.Clients)),
		slog.Int("projects", len(snapshot.Projects)),
		slog.Int("tasks", len(snapshot.Tasks)),
		slog.String("timezone", loc.String()),
	)
	return ws, nil
}

// Server builds the HTTP surface for the workspace.
func (w *Workspace) Server() *rest.Server {
	opts := rest.Options{
		Logger:      w.Logger,
		Gate:        auth.NewGate(w.Config.Auth),
		Metrics:     w.Metrics,
		MetricsPath: w.Config.Metrics.Path,
		VarsHandler: expvar.Handler(),
		Location:    w.Location,
	}
	if w.Registry != nil {
		opts.MetricsHandler = promhttp.HandlerFor(w.Registry, promhttp.HandlerOpts{})
	}
	return rest.NewServer(w.Service, BuildVersion(), opts)
}

// Run loads configuration, serves HTTP until ctx is cancelled and then shuts
// down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := NewLogger(cfg.Log)
	logger.Info("starting crmd",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	ws, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	srv := ws.Server()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return <-errCh
}

// multiRecorder fans observations out to several recorders.
type multiRecorder []core.MetricsRecorder

func (m multiRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		r.Observe(ctx, operation, success, duration)
	}
}
