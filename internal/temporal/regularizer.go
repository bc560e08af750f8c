package temporal

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"vigil/internal/config"
	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/trigger"
)

// Boost and damping magnitudes on the canonical 0..100 confidence scale.
const (
	// agreementBoostMax is the confidence added at perfect coherence when
	// adjacent history agrees with the new detection.
	agreementBoostMax = 5.0
	// jumpPenaltyCap bounds how hard a sudden spike is damped.
	jumpPenaltyCap = 15.0
	// neutralCoherence is assigned when no adjacent history exists. It sits
	// below the warn threshold, so isolated detections surface only through
	// the sustained or override paths.
	neutralCoherence = 0.5
)

// maxHistory bounds the per-category sample buffer regardless of retention.
const maxHistory = 64

// Params are the regularizer tuning knobs, in seconds and confidence points.
type Params struct {
	AdjacentWindow     float64
	Retention          float64
	Smoothing          float64
	JumpThreshold      float64
	MinSustained       float64
	CoherenceThreshold float64
	OverrideConfidence float64
	SceneAdjustment    float64
}

// ParamsFromConfig converts the millisecond-based configuration section into
// regularizer parameters.
func ParamsFromConfig(cfg config.Temporal) Params {
	return Params{
		AdjacentWindow:     float64(cfg.AdjacentWindowMs) / 1000.0,
		Retention:          float64(cfg.RetentionMs) / 1000.0,
		Smoothing:          cfg.Smoothing,
		JumpThreshold:      cfg.JumpThreshold,
		MinSustained:       float64(cfg.MinSustainedMs) / 1000.0,
		CoherenceThreshold: cfg.CoherenceThreshold,
		OverrideConfidence: cfg.OverrideConfidence,
		SceneAdjustment:    cfg.SceneAdjustment,
	}
}

func (p Params) withDefaults() Params {
	d := ParamsFromConfig(config.Default().Temporal)
	if p.AdjacentWindow <= 0 {
		p.AdjacentWindow = d.AdjacentWindow
	}
	if p.Retention <= 0 {
		p.Retention = d.Retention
	}
	if p.Smoothing <= 0 || p.Smoothing > 1 {
		p.Smoothing = d.Smoothing
	}
	if p.JumpThreshold <= 0 {
		p.JumpThreshold = d.JumpThreshold
	}
	if p.MinSustained <= 0 {
		p.MinSustained = d.MinSustained
	}
	if p.CoherenceThreshold <= 0 || p.CoherenceThreshold > 1 {
		p.CoherenceThreshold = d.CoherenceThreshold
	}
	if p.OverrideConfidence <= 0 {
		p.OverrideConfidence = d.OverrideConfidence
	}
	if p.SceneAdjustment < 0 {
		p.SceneAdjustment = d.SceneAdjustment
	}
	return p
}

// RegularizedDetection is the regularizer's verdict for one detection: the
// smoothed confidence, the adjustments that produced it, and whether the
// detection should surface as a warning.
type RegularizedDetection struct {
	Detection             fusion.Detection
	OriginalConfidence    float64
	RegularizedConfidence float64
	TemporalBoost         float64
	TemporalPenalty       float64
	SceneAdjustment       float64
	CoherenceScore        float64
	Sustained             bool
	ShouldWarn            bool
	// WarnReason names the path that surfaced (or suppressed) the detection:
	// "coherent", "sustained", "override", or "suppressed".
	WarnReason string
}

// RegularizerStats is a point-in-time snapshot of regularization telemetry.
type RegularizerStats struct {
	Regularized   uint64
	Boosted       uint64
	Penalized     uint64
	SceneAdjusted uint64
	Surfaced      uint64
	Suppressed    uint64
	Overrides     uint64
}

type sample struct {
	ts         float64
	confidence float64
}

// Regularizer smooths one category's detection stream against its own recent
// history and decides which detections surface as warnings. All cross-call
// state is private to the category, so the host serializes calls per category
// and needs no cross-category locks. Stats counters are atomic and may be
// read at any time.
type Regularizer struct {
	category trigger.Category
	route    trigger.RouteConfig
	params   Params
	scenes   *SceneTimeline
	logger   *slog.Logger

	history  []sample
	runStart float64
	lastSeen float64
	smoothed float64
	seeded   bool

	regularized   atomic.Uint64
	boosted       atomic.Uint64
	penalized     atomic.Uint64
	sceneAdjusted atomic.Uint64
	surfaced      atomic.Uint64
	suppressed    atomic.Uint64
	overrides     atomic.Uint64
}

// NewRegularizer builds a regularizer for one category. The scene timeline is
// shared across categories and may be nil when scene context is unavailable.
func NewRegularizer(category trigger.Category, route trigger.RouteConfig, params Params, scenes *SceneTimeline, logger *slog.Logger) *Regularizer {
	return &Regularizer{
		category: category,
		route:    route,
		params:   params.withDefaults(),
		scenes:   scenes,
		logger:   logging.NewComponentLogger(logger, "temporal"),
		runStart: -1,
		lastSeen: -1,
	}
}

// Regularize smooths a validated detection against the category's recent
// history and decides whether it should surface. Total function: every
// detection yields a verdict, never an error.
func (r *Regularizer) Regularize(det fusion.Detection, now float64) RegularizedDetection {
	r.regularized.Add(1)
	r.purge(now)

	original := fusion.ClampConfidence(det.Confidence)
	ts := det.Timestamp

	// Seeking backwards past the adjacent window starts a fresh run; stale
	// smoothing state from the pre-seek position must not bleed through.
	if r.lastSeen >= 0 && ts < r.lastSeen-r.params.AdjacentWindow {
		r.resetRun()
	}

	coherence := r.coherence(ts, original)
	boost := 0.0
	if r.adjacentCount(ts) > 0 && coherence >= r.params.CoherenceThreshold {
		boost = agreementBoostMax * coherence
		r.boosted.Add(1)
	}

	penalty := 0.0
	if prev, ok := r.previous(); ok {
		// Only upward spikes are damped. A collapse in confidence needs no
		// penalty; the warn thresholds already ignore it.
		if jump := original - prev.confidence; jump > r.params.JumpThreshold {
			penalty = math.Min(jump-r.params.JumpThreshold, jumpPenaltyCap)
			r.penalized.Add(1)
		}
	}

	adjusted := fusion.ClampConfidence(original + boost - penalty)
	if r.seeded {
		r.smoothed = r.params.Smoothing*adjusted + (1-r.params.Smoothing)*r.smoothed
	} else {
		r.smoothed = adjusted
		r.seeded = true
	}

	sceneAdj := 0.0
	if r.scenes != nil && r.params.SceneAdjustment > 0 {
		for _, scene := range r.scenes.ActiveAt(ts) {
			if r.route.MatchesScene(scene.Type) {
				sceneAdj = r.params.SceneAdjustment
				r.sceneAdjusted.Add(1)
				break
			}
		}
	}
	regularized := fusion.ClampConfidence(r.smoothed + sceneAdj)

	// Run bookkeeping: samples spaced within the adjacent window extend the
	// current run, anything else starts a new one.
	if r.runStart < 0 || ts-r.lastSeen > r.params.AdjacentWindow {
		r.runStart = ts
	}
	r.lastSeen = ts
	duration := ts - r.runStart
	sustained := duration >= r.params.MinSustained

	result := RegularizedDetection{
		Detection:             det,
		OriginalConfidence:    original,
		RegularizedConfidence: regularized,
		TemporalBoost:         boost,
		TemporalPenalty:       penalty,
		SceneAdjustment:       sceneAdj,
		CoherenceScore:        coherence,
		Sustained:             sustained,
	}
	result.Detection.Confidence = regularized
	result.Detection.Temporal.Duration = duration

	switch {
	case coherence >= r.params.CoherenceThreshold:
		result.ShouldWarn = true
		result.WarnReason = "coherent"
	case sustained:
		result.ShouldWarn = true
		result.WarnReason = "sustained"
	// The override reads the raw confidence: the spike penalty must never
	// silence an obvious strong signal.
	case original >= r.params.OverrideConfidence:
		result.ShouldWarn = true
		result.WarnReason = "override"
		r.overrides.Add(1)
	default:
		result.WarnReason = "suppressed"
	}

	if result.ShouldWarn {
		r.surfaced.Add(1)
	} else {
		r.suppressed.Add(1)
		attrs := logging.DecisionAttrs(
			"temporal_regularize",
			"suppress",
			fmt.Sprintf("coherence %.2f below %.2f, run %.2fs below %.2fs, confidence %.1f below override",
				coherence, r.params.CoherenceThreshold, duration, r.params.MinSustained, original),
		)
		attrs = append(attrs, logging.String(logging.FieldCategory, string(r.category)))
		r.logger.Debug("detection suppressed", logging.Args(attrs...)...)
	}

	r.remember(sample{ts: ts, confidence: original})
	return result
}

// Stats returns a snapshot of the telemetry counters.
func (r *Regularizer) Stats() RegularizerStats {
	return RegularizerStats{
		Regularized:   r.regularized.Load(),
		Boosted:       r.boosted.Load(),
		Penalized:     r.penalized.Load(),
		SceneAdjusted: r.sceneAdjusted.Load(),
		Surfaced:      r.surfaced.Load(),
		Suppressed:    r.suppressed.Load(),
		Overrides:     r.overrides.Load(),
	}
}

// Reset discards history and smoothing state, e.g. when playback switches
// titles. Telemetry counters survive.
func (r *Regularizer) Reset() {
	r.history = nil
	r.resetRun()
}

// HistoryLen returns the number of retained samples.
func (r *Regularizer) HistoryLen() int {
	return len(r.history)
}

func (r *Regularizer) resetRun() {
	r.runStart = -1
	r.lastSeen = -1
	r.smoothed = 0
	r.seeded = false
}

// coherence measures how well a confidence fits the mean of adjacent history.
// The denominator is the full confidence scale, so a detection within
// jump-threshold distance of the local mean scores at or above the default
// warn threshold.
func (r *Regularizer) coherence(ts, confidence float64) float64 {
	sum := 0.0
	count := 0
	for _, s := range r.history {
		if math.Abs(ts-s.ts) <= r.params.AdjacentWindow {
			sum += s.confidence
			count++
		}
	}
	if count == 0 {
		return neutralCoherence
	}
	mean := sum / float64(count)
	diff := math.Abs(confidence - mean)
	return 1.0 - math.Min(diff/100.0, 1.0)
}

func (r *Regularizer) adjacentCount(ts float64) int {
	count := 0
	for _, s := range r.history {
		if math.Abs(ts-s.ts) <= r.params.AdjacentWindow {
			count++
		}
	}
	return count
}

func (r *Regularizer) previous() (sample, bool) {
	if len(r.history) == 0 {
		return sample{}, false
	}
	return r.history[len(r.history)-1], true
}

func (r *Regularizer) purge(now float64) {
	cutoff := now - r.params.Retention
	kept := r.history[:0]
	for _, s := range r.history {
		if s.ts >= cutoff {
			kept = append(kept, s)
		}
	}
	r.history = kept
	if len(r.history) == 0 && r.lastSeen >= 0 && now-r.lastSeen > r.params.Retention {
		r.resetRun()
	}
}

func (r *Regularizer) remember(s sample) {
	r.history = append(r.history, s)
	if overflow := len(r.history) - maxHistory; overflow > 0 {
		r.history = append(r.history[:0], r.history[overflow:]...)
	}
}
