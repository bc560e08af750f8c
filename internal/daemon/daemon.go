package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"vigil/internal/config"
	"vigil/internal/engine"
	"vigil/internal/logging"
	"vigil/internal/logs"
	"vigil/internal/preflight"
	"vigil/internal/services"
	"vigil/internal/store"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// Daemon coordinates the fusion engine, the HTTP ingestion API, and
// single-instance enforcement.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	engine *engine.Engine

	lockPath string
	logPath  string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Engine        engine.StatusSummary
	Database      store.DatabaseHealth
	DatabasePath  string
	LockFilePath  string
	SocketPath    string
	APIBind       string
	WarningCounts map[trigger.Category]int
	Preflight     []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, eng *engine.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || eng == nil {
		return nil, errors.New("daemon requires config, store, and engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		engine:     eng,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		shutdownCh: make(chan struct{}),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks, and launches the
// engine and the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another vigil daemon instance is already running")
	}

	for _, result := range preflight.RunAll(d.cfg) {
		if result.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.Args(
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldEventType, "preflight_failed"),
				logging.String(logging.FieldErrorHint, "fix the reported issue and restart"),
			)...)
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start engine: %w", err)
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			d.engine.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("vigil daemon started", logging.Args(logging.String("lock", d.lockPath))...)
	return nil
}

// Stop stops the engine and the HTTP API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.engine.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Args(logging.Error(err))...)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("vigil daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RequestShutdown asks the host process to exit. Safe to call repeatedly.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdownCh)
	})
}

// ShutdownRequested is closed when a client has asked the host to exit.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// Ingest runs one detection event through the fusion pipeline.
func (d *Daemon) Ingest(ctx context.Context, event engine.DetectionEvent) (*engine.ProcessResult, error) {
	return d.engine.Process(ctx, event)
}

// IngestScene records a scene observation on the shared timeline.
func (d *Daemon) IngestScene(ctx context.Context, event engine.SceneEvent) error {
	return d.engine.ObserveScene(ctx, event)
}

// Feedback applies a viewer verdict to the learned weights.
func (d *Daemon) Feedback(ctx context.Context, req engine.FeedbackRequest) error {
	return d.engine.Feedback(ctx, req)
}

// EngineStatus returns the pipeline telemetry snapshot.
func (d *Daemon) EngineStatus() engine.StatusSummary {
	return d.engine.Status()
}

// Sweep forces a deduplication sweep and returns any merged warnings it
// surfaced.
func (d *Daemon) Sweep(ctx context.Context) []warnings.Warning {
	return d.engine.SweepNow(ctx)
}

// ListWarnings returns journaled warnings, optionally filtered.
func (d *Daemon) ListWarnings(ctx context.Context, filter store.WarningFilter) ([]warnings.Warning, error) {
	if d.store == nil {
		return nil, errors.New("warning journal unavailable")
	}
	return d.store.ListWarnings(ctx, filter)
}

// ClearWarnings empties the warning journal.
func (d *Daemon) ClearWarnings(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("warning journal unavailable")
	}
	return d.store.ClearWarnings(ctx)
}

// ResetAttention discards learned weights for the named categories, or all
// of them when none are named.
func (d *Daemon) ResetAttention(ctx context.Context, names []string) error {
	categories := make([]trigger.Category, 0, len(names))
	for _, name := range names {
		category, ok := trigger.ParseCategory(name)
		if !ok {
			return services.Wrap(services.ErrValidation, "daemon", "reset attention",
				fmt.Sprintf("unusable category %q", name), nil)
		}
		categories = append(categories, category)
	}
	return d.engine.ResetAttention(ctx, categories...)
}

// FeedbackSummary returns journaled feedback counts grouped by outcome.
func (d *Daemon) FeedbackSummary(ctx context.Context) (map[string]int, error) {
	if d.store == nil {
		return nil, errors.New("feedback journal unavailable")
	}
	return d.store.FeedbackCounts(ctx)
}

// DatabaseHealth returns detailed diagnostics for the warning journal.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	if d.store == nil {
		return store.DatabaseHealth{}, errors.New("warning journal unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// SetLogPath records the active run log so TailLog can serve it.
func (d *Daemon) SetLogPath(path string) {
	d.logPath = path
}

// LogPath returns the active run log, falling back to the stable
// vigil.log pointer maintained at startup.
func (d *Daemon) LogPath() string {
	if d.logPath != "" {
		return d.logPath
	}
	return filepath.Join(d.cfg.Paths.LogDir, "vigil.log")
}

// TailLog reads daemon log lines starting at offset. A negative offset
// returns the last limit lines.
func (d *Daemon) TailLog(offset int64, limit int) (logs.TailResult, error) {
	return logs.Tail(d.LogPath(), logs.TailOptions{Offset: offset, Limit: limit})
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	health, err := d.store.CheckHealth(ctx)
	if err != nil && health.Error == "" {
		health.Error = err.Error()
	}
	counts, err := d.store.WarningCounts(ctx)
	if err != nil {
		counts = nil
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Engine:        d.engine.Status(),
		Database:      health,
		DatabasePath:  d.cfg.DatabasePath(),
		LockFilePath:  d.lockPath,
		SocketPath:    d.cfg.SocketPath(),
		APIBind:       d.cfg.Paths.APIBind,
		WarningCounts: counts,
		Preflight:     preflight.RunAll(d.cfg),
	}
}
