// Package pipeline drives a crawl run: discover candidates, drop the ones
// already known, extract the rest one at a time with pacing, and checkpoint
// the catalog along the way.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dream-symbol-crawler/internal/crawler"
	"github.com/JakeFAU/dream-symbol-crawler/internal/dedup"
	"github.com/JakeFAU/dream-symbol-crawler/internal/discovery"
	"github.com/JakeFAU/dream-symbol-crawler/internal/metrics"
	"github.com/JakeFAU/dream-symbol-crawler/internal/store"
)

const finalSnapshotAttempts = 2

// Config tunes a run.
type Config struct {
	// CheckpointEvery snapshots after this many successful extractions.
	CheckpointEvery int
	// DelayMin and DelayMax bound the random pause between tasks.
	DelayMin time.Duration
	DelayMax time.Duration
	// DiscoveryParallelism caps how many hosts are scanned at once.
	DiscoveryParallelism int
	// MaxTasks caps extraction attempts per run. Zero means no cap.
	MaxTasks int
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Classifier crawler.Classifier
	Extractor  crawler.Extractor
	Store      crawler.SnapshotStore
	Clock      crawler.Clock
	// Rand orders the queue and draws delays. Nil seeds a fresh source.
	Rand   *rand.Rand
	RunID  string
	Logger *zap.Logger
}

// Summary reports the counts of one run.
type Summary struct {
	Discovered  int
	Queued      int
	Duplicates  int
	Extracted   int
	Failed      int
	Checkpoints int
	Canceled    bool
}

// Orchestrator runs the crawl state machine. A single goroutine performs
// extraction, so the catalog and membership set have one writer.
type Orchestrator struct {
	cfg        Config
	profiles   []crawler.SourceProfile
	classifier crawler.Classifier
	extractor  crawler.Extractor
	snapshots  crawler.SnapshotStore
	clock      crawler.Clock
	rng        *rand.Rand
	logger     *zap.Logger

	mu    sync.Mutex
	state State
}

// New constructs an Orchestrator.
func New(cfg Config, profiles []crawler.SourceProfile, deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Classifier == nil:
		return nil, errors.New("pipeline: classifier is required")
	case deps.Extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: snapshot store is required")
	case deps.Clock == nil:
		return nil, errors.New("pipeline: clock is required")
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 10
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	rng := deps.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // ordering and jitter only
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pipeline")
	if deps.RunID != "" {
		logger = logger.With(zap.String("run_id", deps.RunID))
	}
	return &Orchestrator{
		cfg:        cfg,
		profiles:   profiles,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		snapshots:  deps.Store,
		clock:      deps.Clock,
		rng:        rng,
		logger:     logger,
	}, nil
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Debug("state", zap.Stringer("state", s))
}

// Plan reads the snapshot and returns the shuffled queue of new tasks
// without extracting or writing anything, a corrupt snapshot included.
func (o *Orchestrator) Plan(ctx context.Context) ([]crawler.CandidateTask, Summary, error) {
	var summary Summary
	catalog, err := o.load(ctx, o.snapshots.Peek)
	if err != nil {
		return nil, summary, err
	}
	seen := dedup.New()
	seen.Seed(catalog.Clone())

	queue, err := o.plan(ctx, seen, &summary)
	if err != nil {
		return nil, summary, err
	}
	return queue, summary, nil
}

// Run executes a full crawl. Once the snapshot is loaded, the final snapshot
// is always attempted, including after cancellation. Cancellation is not an
// error; the only error after loading is a failed final snapshot.
func (o *Orchestrator) Run(ctx context.Context) (summary Summary, err error) {
	started := o.clock.Now()
	catalog, err := o.load(ctx, o.snapshots.Load)
	if err != nil {
		return summary, err
	}
	seen := dedup.New()
	seen.Seed(catalog.Clone())

	defer func() {
		o.setState(StateFinalizing)
		if ferr := o.finalize(ctx, catalog, &summary); ferr != nil && err == nil {
			err = ferr
		}
		o.setState(StateDone)
		o.logger.Info("run finished",
			zap.Int("discovered", summary.Discovered),
			zap.Int("queued", summary.Queued),
			zap.Int("duplicates", summary.Duplicates),
			zap.Int("extracted", summary.Extracted),
			zap.Int("failed", summary.Failed),
			zap.Int("checkpoints", summary.Checkpoints),
			zap.Bool("canceled", summary.Canceled),
			zap.Int("records", catalog.Len()),
			zap.Duration("elapsed", o.clock.Now().Sub(started)),
		)
	}()

	queue, err := o.plan(ctx, seen, &summary)
	if err != nil {
		if ctx.Err() != nil {
			summary.Canceled = true
			return summary, nil
		}
		return summary, err
	}

	o.setState(StateExtracting)
	o.extractAll(ctx, queue, catalog, seen, &summary)
	return summary, nil
}

func (o *Orchestrator) load(
	ctx context.Context,
	read func(context.Context) ([]crawler.SymbolRecord, error),
) (*store.Catalog, error) {
	o.setState(StateIdle)
	existing, err := read(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	catalog, dropped := store.NewCatalog(existing)
	if dropped > 0 {
		o.logger.Warn("snapshot held repeated ids, kept the first of each", zap.Int("dropped", dropped))
	}
	o.logger.Info("snapshot loaded", zap.Int("records", catalog.Len()))
	return catalog, nil
}

// plan covers Discovering and Dispatching.
func (o *Orchestrator) plan(ctx context.Context, seen *dedup.Set, summary *Summary) ([]crawler.CandidateTask, error) {
	o.setState(StateDiscovering)
	tasks, err := discovery.DiscoverAll(ctx, o.classifier, o.profiles, o.cfg.DiscoveryParallelism, o.logger)
	if err != nil {
		return nil, err
	}
	summary.Discovered = len(tasks)

	o.setState(StateDispatching)
	queue, known := seen.Filter(tasks)
	summary.Duplicates = len(known)
	for _, t := range known {
		metrics.ObserveTask(string(t.Kind), metrics.OutcomeDuplicate)
	}
	o.rng.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	if o.cfg.MaxTasks > 0 && len(queue) > o.cfg.MaxTasks {
		queue = queue[:o.cfg.MaxTasks]
	}
	summary.Queued = len(queue)
	o.logger.Info("queue ready",
		zap.Int("discovered", summary.Discovered),
		zap.Int("known", summary.Duplicates),
		zap.Int("queued", summary.Queued),
	)
	return queue, nil
}

func (o *Orchestrator) extractAll(
	ctx context.Context,
	queue []crawler.CandidateTask,
	catalog *store.Catalog,
	seen *dedup.Set,
	summary *Summary,
) {
	sinceCheckpoint := 0
	for i, task := range queue {
		if ctx.Err() != nil {
			summary.Canceled = true
			return
		}
		log := o.logger.With(
			zap.String("keyword", task.Keyword),
			zap.String("source_kind", string(task.Kind)),
			zap.String("url", task.URL),
		)
		log.Debug("processing", zap.Int("position", i+1), zap.Int("queued", len(queue)))

		rec, err := o.process(ctx, task)
		switch {
		case err == nil:
			stored, aerr := catalog.Append(rec)
			if aerr != nil {
				summary.Duplicates++
				metrics.ObserveTask(string(task.Kind), metrics.OutcomeDuplicate)
				log.Warn("record rejected", zap.Error(aerr))
				break
			}
			seen.Admit(task.Keyword, rec.ID)
			summary.Extracted++
			sinceCheckpoint++
			metrics.ObserveTask(string(task.Kind), metrics.OutcomeExtracted)
			log.Info("record added", zap.String("filename", stored.Filename))
			if sinceCheckpoint >= o.cfg.CheckpointEvery {
				if o.checkpoint(ctx, catalog) == nil {
					summary.Checkpoints++
				}
				sinceCheckpoint = 0
			}
		case ctx.Err() != nil:
			summary.Canceled = true
			metrics.ObserveTask(string(task.Kind), metrics.OutcomeCanceled)
			log.Info("task abandoned on cancellation")
			return
		default:
			summary.Failed++
			metrics.ObserveTask(string(task.Kind), metrics.OutcomeFailed)
			if crawler.IsSoft(err) {
				log.Warn("task skipped", zap.Error(err))
			} else {
				log.Error("task failed", zap.Error(err))
			}
		}

		if i == len(queue)-1 {
			break
		}
		if err := o.clock.Sleep(ctx, o.delay()); err != nil {
			summary.Canceled = true
			return
		}
	}
}

func (o *Orchestrator) process(ctx context.Context, task crawler.CandidateTask) (crawler.SymbolRecord, error) {
	block, err := o.extractor.Extract(ctx, task)
	if err != nil {
		return crawler.SymbolRecord{}, err
	}
	rec := buildRecord(task, block)
	if err := rec.Validate(); err != nil {
		return crawler.SymbolRecord{}, fmt.Errorf("%w: %w", crawler.ErrNoContent, err)
	}
	return rec, nil
}

// checkpoint writes the catalog. A mid-run failure is only logged; the next
// checkpoint retries with the full catalog.
func (o *Orchestrator) checkpoint(ctx context.Context, catalog *store.Catalog) error {
	records := catalog.Clone()
	err := o.snapshots.Snapshot(ctx, records)
	metrics.ObserveCheckpoint(err)
	if err != nil {
		o.logger.Error("checkpoint failed", zap.Int("records", len(records)), zap.Error(err))
		return err
	}
	o.logger.Info("checkpoint written", zap.Int("records", len(records)))
	return nil
}

// finalize writes the catalog on a context that ignores cancellation, so an
// interrupt still persists everything extracted so far.
func (o *Orchestrator) finalize(ctx context.Context, catalog *store.Catalog, summary *Summary) error {
	fctx := context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= finalSnapshotAttempts; attempt++ {
		if err = o.checkpoint(fctx, catalog); err == nil {
			summary.Checkpoints++
			return nil
		}
	}
	return fmt.Errorf("final snapshot failed after %d attempts: %w", finalSnapshotAttempts, err)
}

func (o *Orchestrator) delay() time.Duration {
	span := o.cfg.DelayMax - o.cfg.DelayMin
	if span <= 0 {
		return o.cfg.DelayMin
	}
	return o.cfg.DelayMin + time.Duration(o.rng.Int64N(int64(span)+1))
}
