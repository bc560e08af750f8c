package fusion

import (
	"log/slog"
	"sync/atomic"

	"vigil/internal/logging"
	"vigil/internal/trigger"
)

// Pre-check thresholds. The router only gates obviously underpowered inputs;
// the validator owns the authoritative decision.
const strongSignalPrecheck = 70.0

// RouterStats is a point-in-time snapshot of routing telemetry.
type RouterStats struct {
	Routed    uint64
	Fallbacks uint64
	ByRoute   map[trigger.Route]uint64
}

// Router fuses per-modality confidences into a single Detection using the
// category route table. Routing is a total function: unknown categories fall
// back to the balanced route and absent modalities are renormalized away, so
// there is no error path.
type Router struct {
	table  *trigger.Table
	logger *slog.Logger

	routed    atomic.Uint64
	fallbacks atomic.Uint64
	byRoute   map[trigger.Route]*atomic.Uint64
}

// NewRouter builds a router over the given route table.
func NewRouter(table *trigger.Table, logger *slog.Logger) *Router {
	byRoute := make(map[trigger.Route]*atomic.Uint64, len(trigger.Routes()))
	for _, route := range trigger.Routes() {
		byRoute[route] = &atomic.Uint64{}
	}
	return &Router{
		table:   table,
		logger:  logging.NewComponentLogger(logger, "router"),
		byRoute: byRoute,
	}
}

// Route computes the weighted confidence for one fusion cycle. Weights come
// from the route table; present modalities keep their relative weights while
// absent ones are dropped and the remainder renormalized, so a lone present
// modality carries its raw confidence unchanged. Weights optionally supplied
// by the attention mechanism replace the table weights for this cycle.
func (r *Router) Route(category trigger.Category, input MultiModalInput) Detection {
	cfg, ok := r.table.Lookup(category)
	if !ok {
		cfg = trigger.Fallback()
		r.fallbacks.Add(1)
		r.logger.Warn("category missing from route table, using balanced fallback",
			logging.String(logging.FieldCategory, string(category)))
	}
	return r.routeWith(category, cfg, cfg.Weights, input)
}

// RouteWeighted is Route with the attention mechanism's learned weights
// substituted for the table's static triple. Validation level, temporal
// pattern, and the route label still come from the table entry.
func (r *Router) RouteWeighted(category trigger.Category, weights trigger.Weights, input MultiModalInput) Detection {
	cfg, ok := r.table.Lookup(category)
	if !ok {
		cfg = trigger.Fallback()
		r.fallbacks.Add(1)
		r.logger.Warn("category missing from route table, using balanced fallback",
			logging.String(logging.FieldCategory, string(category)))
	}
	return r.routeWith(category, cfg, weights, input)
}

func (r *Router) routeWith(category trigger.Category, cfg trigger.RouteConfig, weights trigger.Weights, input MultiModalInput) Detection {
	var (
		numerator   float64
		totalWeight float64
		present     int
	)
	for _, m := range allModalities {
		sig, ok := input.Signal(m)
		if !ok {
			continue
		}
		present++
		w := weightFor(weights, m)
		numerator += ClampConfidence(sig.Confidence) * w
		totalWeight += w
	}

	det := Detection{
		Category:  category,
		Timestamp: input.Timestamp,
		Route:     cfg.Route,
		Temporal:  TemporalContext{Pattern: cfg.Pattern},
	}

	// All-zero weight over the present set would divide by zero; report
	// zero confidence instead.
	if totalWeight > 0 {
		for _, m := range allModalities {
			sig, ok := input.Signal(m)
			if !ok {
				continue
			}
			contribution := ClampConfidence(sig.Confidence) * weightFor(weights, m) / totalWeight
			switch m {
			case ModalityVisual:
				det.Contributions.Visual = contribution
			case ModalityAudio:
				det.Contributions.Audio = contribution
			case ModalityText:
				det.Contributions.Text = contribution
			}
		}
		det.Confidence = numerator / totalWeight
	}

	det.ValidationPassed = precheck(cfg.Validation, present, input.MaxConfidence())

	r.routed.Add(1)
	if counter, ok := r.byRoute[cfg.Route]; ok {
		counter.Add(1)
	}
	return det
}

// precheck is the router's coarse admission gate per validation level.
func precheck(level trigger.ValidationLevel, present int, maxConfidence float64) bool {
	switch level {
	case trigger.ValidationHighSensitivity:
		return present >= 2
	case trigger.ValidationStandard:
		return maxConfidence >= strongSignalPrecheck || present >= 2
	case trigger.ValidationSingleModality:
		return present >= 1
	}
	return present >= 1
}

func weightFor(weights trigger.Weights, m Modality) float64 {
	switch m {
	case ModalityVisual:
		return weights.Visual
	case ModalityAudio:
		return weights.Audio
	case ModalityText:
		return weights.Text
	}
	return 0
}

// Stats snapshots the routing counters.
func (r *Router) Stats() RouterStats {
	stats := RouterStats{
		Routed:    r.routed.Load(),
		Fallbacks: r.fallbacks.Load(),
		ByRoute:   make(map[trigger.Route]uint64, len(r.byRoute)),
	}
	for route, counter := range r.byRoute {
		stats.ByRoute[route] = counter.Load()
	}
	return stats
}
