// Package app wires configuration into the long-lived services of a crawl
// run. It is the only place that knows every concrete implementation.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/dream-symbol-crawler/internal/clock/system"
	"github.com/JakeFAU/dream-symbol-crawler/internal/config"
	"github.com/JakeFAU/dream-symbol-crawler/internal/discovery"
	"github.com/JakeFAU/dream-symbol-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/dream-symbol-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/dream-symbol-crawler/internal/hash/sha256"
	"github.com/JakeFAU/dream-symbol-crawler/internal/id/uuid"
	"github.com/JakeFAU/dream-symbol-crawler/internal/metrics"
	"github.com/JakeFAU/dream-symbol-crawler/internal/pipeline"
	"github.com/JakeFAU/dream-symbol-crawler/internal/policy/ratelimit"
	"github.com/JakeFAU/dream-symbol-crawler/internal/storage"
	"github.com/JakeFAU/dream-symbol-crawler/internal/storage/local"
)

// Option customizes App construction.
type Option func(*options)

type options struct {
	mirror storage.Provider
}

// WithMirror replaces the GCS mirror selected by configuration.
func WithMirror(p storage.Provider) Option {
	return func(o *options) {
		o.mirror = p
	}
}

// App holds the services shared by the CLI commands.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	runID        string
	snapshots    *local.SnapshotStore
	orchestrator *pipeline.Orchestrator
	closers      []func() error
}

// New builds every service described by cfg and fails fast when one cannot
// be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	runID, err := uuid.New().NewID()
	if err != nil {
		return nil, fmt.Errorf("run id: %w", err)
	}
	logger = logger.With(zap.String("run_id", runID))
	metrics.Init()

	a := &App{cfg: cfg, logger: logger, runID: runID}

	mirror, err := a.buildMirror(ctx, o.mirror)
	if err != nil {
		return nil, err
	}
	mirrorObject := ""
	if _, noop := mirror.(*storage.NoOpProvider); !noop {
		mirrorObject = cfg.Storage.GCSObject
	}
	a.snapshots, err = local.New(local.Config{
		Path:         cfg.Storage.SnapshotPath,
		MirrorObject: mirrorObject,
	}, mirror, sha256.New(), logger.Named("snapshot"))
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}

	profiles, err := cfg.Profiles()
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("source profiles: %w", err)
	}
	lex := cfg.BuildLexicon()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		AcceptLanguage: cfg.HTTP.AcceptLanguage,
		Timeout:        cfg.HTTPTimeout(),
		Limiter: ratelimit.New(ratelimit.Config{
			HostRPS:   cfg.HTTP.HostRPS,
			HostBurst: cfg.HTTP.HostBurst,
		}),
	}, logger.Named("fetcher"))

	registry, err := extract.NewRegistry(fetcher, lex, extract.Config{
		Profiles: profiles,
	}, logger.Named("extract"))
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("init extractors: %w", err)
	}

	delayMin, delayMax := cfg.Delays()
	a.orchestrator, err = pipeline.New(pipeline.Config{
		CheckpointEvery:      cfg.Pipeline.CheckpointEvery,
		DelayMin:             delayMin,
		DelayMax:             delayMax,
		DiscoveryParallelism: cfg.Pipeline.DiscoveryParallelism,
		MaxTasks:             cfg.Pipeline.MaxTasks,
	}, profiles, pipeline.Deps{
		Classifier: discovery.New(fetcher, lex, logger.Named("discovery")),
		Extractor:  registry,
		Store:      a.snapshots,
		Clock:      system.New(),
		RunID:      runID,
		Logger:     logger,
	})
	if err != nil {
		a.closeAll()
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	logger.Info("services initialized",
		zap.String("snapshot", cfg.Storage.SnapshotPath),
		zap.Int("sources", len(profiles)),
		zap.Bool("mirror", mirrorObject != ""),
	)
	return a, nil
}

func (a *App) buildMirror(ctx context.Context, override storage.Provider) (storage.Provider, error) {
	if override != nil {
		return override, nil
	}
	bucket := a.cfg.Storage.GCSBucket
	if bucket == "" {
		return &storage.NoOpProvider{}, nil
	}
	a.logger.Info("mirroring snapshots to GCS",
		zap.String("bucket", bucket), zap.String("object", a.cfg.Storage.GCSObject))
	gcs, err := storage.NewGCSProvider(ctx, bucket, a.logger.Named("gcs"))
	if err != nil {
		return nil, fmt.Errorf("init gcs mirror: %w", err)
	}
	a.closers = append(a.closers, gcs.Close)
	return gcs, nil
}

// Orchestrator returns the configured run driver.
func (a *App) Orchestrator() *pipeline.Orchestrator {
	return a.orchestrator
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// RunID identifies this process's run in logs.
func (a *App) RunID() string {
	return a.runID
}

// SnapshotPath returns where the snapshot is written.
func (a *App) SnapshotPath() string {
	return a.snapshots.Path()
}

// WriteMetrics exports counters to the configured textfile, if any.
func (a *App) WriteMetrics() error {
	return metrics.WriteTextfile(a.cfg.Metrics.Textfile) //nolint:wrapcheck
}

// Close releases clients and flushes the logger.
func (a *App) Close() error {
	err := a.closeAll()
	_ = a.logger.Sync()
	return err
}

func (a *App) closeAll() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
