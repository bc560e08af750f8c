package attention

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"vigil/internal/config"
	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/trigger"
)

var modalityOrder = [3]fusion.Modality{fusion.ModalityVisual, fusion.ModalityAudio, fusion.ModalityText}

// Outcome labels a feedback verdict on a surfaced warning.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// ParseOutcome normalizes a raw outcome string.
func ParseOutcome(value string) (Outcome, bool) {
	switch Outcome(strings.ToLower(strings.TrimSpace(value))) {
	case OutcomeCorrect:
		return OutcomeCorrect, true
	case OutcomeIncorrect:
		return OutcomeIncorrect, true
	}
	return "", false
}

// Performance tracks per-modality contribution shares observed on correct
// detections, EMA-smoothed. Values live in the unit interval.
type Performance struct {
	Visual float64
	Audio  float64
	Text   float64
}

// CategoryStats is the learned state for one category. The mechanism owns
// the canonical copy; accessors hand out value copies.
type CategoryStats struct {
	Learned             trigger.Weights
	Performance         Performance
	TotalDetections     uint64
	CorrectDetections   uint64
	IncorrectDetections uint64
	LastUpdated         time.Time
}

// Params are the online-learning tuning knobs.
type Params struct {
	LearningRate         float64
	PerformanceSmoothing float64
	AgreementBoost       float64
	IsolationPenalty     float64
	ConfidenceNudge      float64
	StrongSignal         float64
}

// ParamsFromConfig lifts the configuration section into mechanism parameters.
func ParamsFromConfig(cfg config.Attention) Params {
	return Params{
		LearningRate:         cfg.LearningRate,
		PerformanceSmoothing: cfg.PerformanceSmoothing,
		AgreementBoost:       cfg.AgreementBoost,
		IsolationPenalty:     cfg.IsolationPenalty,
		ConfidenceNudge:      cfg.ConfidenceNudge,
		StrongSignal:         cfg.StrongSignal,
	}
}

func (p Params) withDefaults() Params {
	d := ParamsFromConfig(config.Default().Attention)
	if p.LearningRate <= 0 || p.LearningRate > 1 {
		p.LearningRate = d.LearningRate
	}
	if p.PerformanceSmoothing <= 0 || p.PerformanceSmoothing > 1 {
		p.PerformanceSmoothing = d.PerformanceSmoothing
	}
	if p.AgreementBoost <= 0 {
		p.AgreementBoost = d.AgreementBoost
	}
	if p.IsolationPenalty <= 0 {
		p.IsolationPenalty = d.IsolationPenalty
	}
	if p.ConfidenceNudge < 0 {
		p.ConfidenceNudge = d.ConfidenceNudge
	}
	if p.StrongSignal <= 0 {
		p.StrongSignal = d.StrongSignal
	}
	return p
}

// Mechanism adapts the static route-table weights with online feedback. It
// never mutates the table itself; learned state lives in its own per-category
// map, created lazily from the table's base weights and discarded only on
// explicit reset. One mutex guards the map: attention is consulted once per
// pipeline pass and updated only on user feedback, so contention is nil.
type Mechanism struct {
	mu     sync.Mutex
	table  *trigger.Table
	params Params
	logger *slog.Logger
	stats  map[trigger.Category]*CategoryStats
}

// NewMechanism builds an attention mechanism over the given route table.
func NewMechanism(table *trigger.Table, params Params, logger *slog.Logger) *Mechanism {
	return &Mechanism{
		table:  table,
		params: params.withDefaults(),
		logger: logging.NewComponentLogger(logger, "attention"),
		stats:  make(map[trigger.Category]*CategoryStats),
	}
}

// Compute derives the modality weights for one fusion cycle. Applied in
// order: learned weights, per-modality reliability, cross-modal agreement
// boost or isolation penalty, a confidence-proportional nudge centered at 50,
// then clamp and renormalize. The result always sums to 1.0 with every
// component inside [MinWeight, MaxWeight].
func (m *Mechanism) Compute(category trigger.Category, input fusion.MultiModalInput) trigger.Weights {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.statsLocked(category)
	weights := toArray(normalizeWeights(stats.Learned))

	for i, mod := range modalityOrder {
		if sig, ok := input.Signal(mod); ok {
			weights[i] *= sig.EffectiveReliability()
		}
	}

	strong := m.strongModalities(input)
	if len(strong) >= 2 {
		for _, i := range strong {
			weights[i] *= m.params.AgreementBoost
		}
	} else if len(strong) == 1 {
		// A single loud modality with no second opinion earns skepticism,
		// not extra trust.
		weights[strong[0]] *= m.params.IsolationPenalty
	}

	for i, mod := range modalityOrder {
		if sig, ok := input.Signal(mod); ok {
			conf := fusion.ClampConfidence(sig.Confidence)
			weights[i] *= 1 + m.params.ConfidenceNudge*((conf-50)/50)
		}
	}

	for i := range weights {
		weights[i] = clampWeight(weights[i])
	}
	return fromArray(boundedNormalize(weights))
}

// RecordOutcome feeds one feedback verdict into the learned state. Correct
// outcomes pull each modality's performance EMA toward its contribution share
// and nudge the learned weight toward that performance. Incorrect outcomes
// decay the learned weight of contributing modalities in proportion to their
// share, with no performance update.
func (m *Mechanism) RecordOutcome(category trigger.Category, det fusion.Detection, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.statsLocked(category)
	stats.TotalDetections++
	shares := contributionShares(det.Contributions)
	learned := toArray(stats.Learned)

	switch outcome {
	case OutcomeCorrect:
		stats.CorrectDetections++
		perf := [3]float64{stats.Performance.Visual, stats.Performance.Audio, stats.Performance.Text}
		for i := range perf {
			perf[i] = (1-m.params.PerformanceSmoothing)*perf[i] + m.params.PerformanceSmoothing*shares[i]
			learned[i] += m.params.LearningRate * (perf[i] - learned[i])
		}
		stats.Performance = Performance{Visual: perf[0], Audio: perf[1], Text: perf[2]}
	case OutcomeIncorrect:
		stats.IncorrectDetections++
		for i := range learned {
			learned[i] *= 1 - m.params.LearningRate*shares[i]
		}
	default:
		return
	}

	stats.Learned = normalizeWeights(fromArray(learned))
	stats.LastUpdated = time.Now()

	m.logger.Debug("learned weights updated",
		logging.Args(
			logging.String(logging.FieldCategory, string(category)),
			logging.String("outcome", string(outcome)),
			logging.Float64("visual", stats.Learned.Visual),
			logging.Float64("audio", stats.Learned.Audio),
			logging.Float64("text", stats.Learned.Text),
		)...)
}

// Stats returns a copy of one category's learned state.
func (m *Mechanism) Stats(category trigger.Category) (CategoryStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.stats[category]
	if !ok {
		return CategoryStats{}, false
	}
	return *stats, true
}

// All returns a copy of every tracked category's learned state.
func (m *Mechanism) All() map[trigger.Category]CategoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[trigger.Category]CategoryStats, len(m.stats))
	for category, stats := range m.stats {
		out[category] = *stats
	}
	return out
}

// Snapshot exports the learned state for host persistence.
func (m *Mechanism) Snapshot() map[trigger.Category]CategoryStats {
	return m.All()
}

// Restore replaces the learned state from a persisted snapshot. Weights are
// re-clamped on the way in so a hand-edited snapshot cannot violate bounds.
func (m *Mechanism) Restore(snapshot map[trigger.Category]CategoryStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = make(map[trigger.Category]*CategoryStats, len(snapshot))
	for category, stats := range snapshot {
		copied := stats
		copied.Learned = normalizeWeights(copied.Learned)
		m.stats[category] = &copied
	}
}

// ResetCategory discards one category's learned state; the next use starts
// from the table's base weights again.
func (m *Mechanism) ResetCategory(category trigger.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stats, category)
}

// ResetAll discards every category's learned state.
func (m *Mechanism) ResetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = make(map[trigger.Category]*CategoryStats)
}

// statsLocked returns the category's learned state, creating it from the
// route table's base weights on first use. Performance seeds at the base
// weights so early correct feedback nudges rather than yanks.
func (m *Mechanism) statsLocked(category trigger.Category) *CategoryStats {
	if stats, ok := m.stats[category]; ok {
		return stats
	}
	base := trigger.Fallback().Weights
	if cfg, ok := m.table.Lookup(category); ok {
		base = cfg.Weights
	}
	stats := &CategoryStats{
		Learned:     normalizeWeights(base),
		Performance: Performance{Visual: base.Visual, Audio: base.Audio, Text: base.Text},
	}
	m.stats[category] = stats
	return stats
}

func (m *Mechanism) strongModalities(input fusion.MultiModalInput) []int {
	var strong []int
	for i, mod := range modalityOrder {
		sig, ok := input.Signal(mod)
		if !ok {
			continue
		}
		if fusion.ClampConfidence(sig.Confidence) >= m.params.StrongSignal {
			strong = append(strong, i)
		}
	}
	return strong
}

// contributionShares converts a contribution breakdown into unit-interval
// shares of the fused confidence. An all-zero breakdown yields zero shares,
// never NaN.
func contributionShares(c fusion.Contributions) [3]float64 {
	sum := c.Sum()
	if sum <= 0 {
		return [3]float64{}
	}
	return [3]float64{c.Visual / sum, c.Audio / sum, c.Text / sum}
}
