package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"vigil/internal/attention"
	"vigil/internal/config"
	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/store"
	"vigil/internal/temporal"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// sceneRetention bounds the scene timeline independently of detection
// history so modest backward seeks still find their scene context.
const sceneRetention = 300.0

// shutdownTimeout caps how long Stop waits on final persistence.
const shutdownTimeout = 5 * time.Second

// Engine hosts the fusion pipeline: attention weighting, routing,
// validation, per-category temporal regularization, warning deduplication,
// and the journal. One engine serves one playback session.
type Engine struct {
	cfg       *config.Config
	table     *trigger.Table
	logger    *slog.Logger
	store     *store.Store
	router    *fusion.Router
	validator *fusion.Validator
	attention *attention.Mechanism
	dedup     *warnings.Deduplicator
	scenes    *temporal.SceneTimeline
	temporal  temporal.Params

	mu        sync.RWMutex
	shards    map[trigger.Category]*shard
	lastEvent float64
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	processed atomic.Uint64
	surfaced  atomic.Uint64
	observed  atomic.Uint64
	feedback  atomic.Uint64
}

// shard serializes temporal state for one category. Detection history is
// strictly per category, so shards never take each other's locks.
type shard struct {
	mu sync.Mutex
	// reg holds the category's regularizer; last remembers the most recent
	// surfaced detection for feedback attribution.
	reg  *temporal.Regularizer
	last *fusion.Detection
}

// New constructs an engine over the embedded route table. The store may be
// nil, in which case warnings and feedback are not journaled and attention
// state lives only in memory.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("engine requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	table, err := trigger.LoadTable()
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		table:     table,
		logger:    logging.NewComponentLogger(logger, "engine"),
		store:     st,
		router:    fusion.NewRouter(table, logger),
		validator: fusion.NewValidator(table, logger),
		attention: attention.NewMechanism(table, attention.ParamsFromConfig(cfg.Attention), logger),
		dedup:     warnings.NewDeduplicator(warnings.ParamsFromConfig(cfg.Dedup), logger),
		scenes:    temporal.NewSceneTimeline(sceneRetention),
		temporal:  temporal.ParamsFromConfig(cfg.Temporal),
		shards:    make(map[trigger.Category]*shard),
	}, nil
}

// Table exposes the loaded route table for host surfaces.
func (e *Engine) Table() *trigger.Table {
	return e.table
}

// Start restores persisted attention state and begins the background sweep
// and persistence loops.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true
	e.wg.Add(1)
	e.mu.Unlock()

	if err := e.restoreAttention(ctx); err != nil {
		e.logger.Warn("failed to restore attention state; starting from base weights",
			logging.Args(logging.Error(err), logging.String(logging.FieldErrorHint, "check database access"))...)
	}

	go e.run(runCtx)
	return nil
}

// Stop terminates the background loops, flushes pending merged warnings,
// and persists attention state.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel := e.cancel
	e.running = false
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.wg.Wait()

	ctx, cancelFlush := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelFlush()
	e.SweepNow(ctx)
	if err := e.PersistAttention(ctx); err != nil {
		e.logger.Warn("failed to persist attention state on shutdown",
			logging.Args(logging.Error(err), logging.String(logging.FieldErrorHint, "check database access"))...)
	}
}

// Running reports whether the background loops are active.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	sweepEvery := time.Duration(e.cfg.Engine.SweepInterval) * time.Second
	if sweepEvery <= 0 {
		sweepEvery = time.Second
	}
	persistEvery := time.Duration(e.cfg.Engine.PersistInterval) * time.Second
	if persistEvery <= 0 {
		persistEvery = time.Minute
	}

	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()
	persist := time.NewTicker(persistEvery)
	defer persist.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			e.SweepNow(ctx)
		case <-persist.C:
			if err := e.PersistAttention(ctx); err != nil {
				e.logger.Warn("periodic attention persistence failed",
					logging.Args(logging.Error(err), logging.String(logging.FieldErrorHint, "check database access"))...)
			}
		}
	}
}

// SweepNow flushes merged warnings for groups that have gone quiet, using
// the newest observed playback time so offline replays merge identically to
// live sessions.
func (e *Engine) SweepNow(ctx context.Context) []warnings.Warning {
	merged := e.dedup.Sweep(e.LastEventTime())
	for _, w := range merged {
		e.surfaced.Add(1)
		e.journal(ctx, w)
		e.logger.Info("merged warning surfaced",
			logging.Args(
				logging.String(logging.FieldCategory, string(w.Category)),
				logging.String(logging.FieldWarningID, w.ID),
				logging.Float64("confidence", w.Confidence),
				logging.Float64("start", w.StartTime),
				logging.Float64("end", w.EndTime),
				logging.Int("sources", len(w.Sources)),
			)...)
	}
	return merged
}

// PersistAttention writes the current learned-weight snapshot to the store.
func (e *Engine) PersistAttention(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	snapshot := e.attention.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	return e.store.SaveAttention(ctx, snapshot)
}

// ResetAttention discards learned weights in memory and in the store. With
// no categories named everything resets.
func (e *Engine) ResetAttention(ctx context.Context, categories ...trigger.Category) error {
	if len(categories) == 0 {
		e.attention.ResetAll()
	} else {
		for _, category := range categories {
			e.attention.ResetCategory(category)
		}
	}
	if e.store == nil {
		return nil
	}
	return e.store.ClearAttention(ctx, categories...)
}

func (e *Engine) restoreAttention(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	snapshot, err := e.store.LoadAttention(ctx)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return nil
	}
	e.attention.Restore(snapshot)
	e.logger.Info("attention state restored",
		logging.Args(logging.Int("categories", len(snapshot)))...)
	return nil
}

// LastEventTime returns the newest playback timestamp the engine has seen.
func (e *Engine) LastEventTime() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastEvent
}

func (e *Engine) observeEventTime(ts float64) {
	e.mu.Lock()
	if ts > e.lastEvent {
		e.lastEvent = ts
	}
	e.mu.Unlock()
}

// shardFor returns the category's shard, creating it on first use.
func (e *Engine) shardFor(category trigger.Category) *shard {
	e.mu.RLock()
	sh, ok := e.shards[category]
	e.mu.RUnlock()
	if ok {
		return sh
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if sh, ok := e.shards[category]; ok {
		return sh
	}
	route, ok := e.table.Lookup(category)
	if !ok {
		route = trigger.Fallback()
	}
	sh = &shard{reg: temporal.NewRegularizer(category, route, e.temporal, e.scenes, e.logger)}
	e.shards[category] = sh
	return sh
}

func (e *Engine) journal(ctx context.Context, w warnings.Warning) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveWarning(ctx, w); err != nil {
		e.logger.Warn("failed to journal warning; pipeline continues without persistence",
			logging.Args(
				logging.Error(err),
				logging.String(logging.FieldWarningID, w.ID),
				logging.String(logging.FieldErrorHint, "check database access"),
			)...)
	}
}
