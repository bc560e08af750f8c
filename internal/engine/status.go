package engine

import (
	"vigil/internal/attention"
	"vigil/internal/fusion"
	"vigil/internal/temporal"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// StatusSummary is a point-in-time snapshot of pipeline telemetry.
type StatusSummary struct {
	Running          bool
	Categories       int
	ActiveShards     int
	EventsProcessed  uint64
	WarningsSurfaced uint64
	ScenesObserved   uint64
	FeedbackApplied  uint64
	LastEventTime    float64
	SceneCount       int
	Router           fusion.RouterStats
	Validator        fusion.ValidatorStats
	Temporal         temporal.RegularizerStats
	Dedup            warnings.DedupStats
	Attention        map[trigger.Category]attention.CategoryStats
}

// Status aggregates counters from every pipeline component. Temporal stats
// sum across category shards.
func (e *Engine) Status() StatusSummary {
	e.mu.RLock()
	running := e.running
	lastEvent := e.lastEvent
	shards := make([]*shard, 0, len(e.shards))
	for _, sh := range e.shards {
		shards = append(shards, sh)
	}
	e.mu.RUnlock()

	var regs temporal.RegularizerStats
	for _, sh := range shards {
		stats := sh.reg.Stats()
		regs.Regularized += stats.Regularized
		regs.Boosted += stats.Boosted
		regs.Penalized += stats.Penalized
		regs.SceneAdjusted += stats.SceneAdjusted
		regs.Surfaced += stats.Surfaced
		regs.Suppressed += stats.Suppressed
		regs.Overrides += stats.Overrides
	}

	return StatusSummary{
		Running:          running,
		Categories:       e.table.Len(),
		ActiveShards:     len(shards),
		EventsProcessed:  e.processed.Load(),
		WarningsSurfaced: e.surfaced.Load(),
		ScenesObserved:   e.observed.Load(),
		FeedbackApplied:  e.feedback.Load(),
		LastEventTime:    lastEvent,
		SceneCount:       e.scenes.Len(),
		Router:           e.router.Stats(),
		Validator:        e.validator.Stats(),
		Temporal:         regs,
		Dedup:            e.dedup.Stats(),
		Attention:        e.attention.All(),
	}
}
