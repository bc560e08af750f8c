package warnings

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"vigil/internal/config"
	"vigil/internal/logging"
	"vigil/internal/trigger"
)

// Strategy selects how near-simultaneous warnings of one category collapse.
type Strategy string

const (
	StrategyMergeAll           Strategy = "merge-all"
	StrategyKeepHighest        Strategy = "keep-highest"
	StrategySuppressDuplicates Strategy = "suppress-duplicates"
	StrategyShowAll            Strategy = "show-all"
)

var allStrategies = []Strategy{
	StrategyMergeAll,
	StrategyKeepHighest,
	StrategySuppressDuplicates,
	StrategyShowAll,
}

// Strategies returns every known strategy.
func Strategies() []Strategy {
	out := make([]Strategy, len(allStrategies))
	copy(out, allStrategies)
	return out
}

// ParseStrategy normalizes a raw strategy string.
func ParseStrategy(value string) (Strategy, bool) {
	needle := Strategy(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStrategies {
		if s == needle {
			return s, true
		}
	}
	return "", false
}

// rateWindow is the sliding window for per-category rate limits, in playback
// seconds. Processed warning ids are retained for the same horizon.
const rateWindow = 60.0

// Params are the deduplication tuning knobs, in playback seconds and
// confidence points.
type Params struct {
	Strategy      Strategy
	Window        float64
	Cooldown      float64
	RateLimit     int
	MergeBonus    float64
	MergeBonusCap float64
	MaxConfidence float64
}

// ParamsFromConfig lifts the configuration section into dedup parameters.
func ParamsFromConfig(cfg config.Dedup) Params {
	strategy, ok := ParseStrategy(cfg.Strategy)
	if !ok {
		strategy = StrategyMergeAll
	}
	return Params{
		Strategy:      strategy,
		Window:        float64(cfg.WindowSeconds),
		Cooldown:      float64(cfg.CooldownSeconds),
		RateLimit:     cfg.CategoryRateLimit,
		MergeBonus:    cfg.MergeBonus,
		MergeBonusCap: cfg.MergeBonusCap,
		MaxConfidence: cfg.MaxConfidence,
	}
}

func (p Params) withDefaults() Params {
	d := ParamsFromConfig(config.Default().Dedup)
	if p.Strategy == "" {
		p.Strategy = d.Strategy
	}
	if p.Window <= 0 {
		p.Window = d.Window
	}
	if p.Cooldown < 0 {
		p.Cooldown = d.Cooldown
	}
	if p.RateLimit <= 0 {
		p.RateLimit = d.RateLimit
	}
	if p.MergeBonus < 0 {
		p.MergeBonus = d.MergeBonus
	}
	if p.MergeBonusCap < 0 {
		p.MergeBonusCap = d.MergeBonusCap
	}
	if p.MaxConfidence <= 0 {
		p.MaxConfidence = d.MaxConfidence
	}
	return p
}

type groupKey struct {
	category trigger.Category
	bucket   int64
}

type group struct {
	warnings []Warning
	first    float64
	last     float64
	// best is the highest confidence already emitted under keep-highest.
	best   float64
	merged bool
}

// DedupStats is a point-in-time snapshot of deduplication telemetry.
type DedupStats struct {
	Processed          uint64
	Emitted            uint64
	MergedEmitted      uint64
	DuplicateIDs       uint64
	RateLimited        uint64
	CooldownSuppressed uint64
	GroupSuppressed    uint64
	ActiveGroups       int
}

// Deduplicator collapses near-simultaneous warnings of the same category
// before presentation. One mutex guards all state: Process runs on the
// pipeline path and Sweep on the host's timer goroutine.
type Deduplicator struct {
	mu     sync.Mutex
	params Params
	logger *slog.Logger

	processed    map[string]float64
	accepted     map[trigger.Category][]float64
	lastAccepted map[trigger.Category]float64
	groups       map[groupKey]*group

	stats DedupStats
}

// NewDeduplicator builds a deduplicator with the given parameters.
func NewDeduplicator(params Params, logger *slog.Logger) *Deduplicator {
	return &Deduplicator{
		params:       params.withDefaults(),
		logger:       logging.NewComponentLogger(logger, "dedup"),
		processed:    make(map[string]float64),
		accepted:     make(map[trigger.Category][]float64),
		lastAccepted: make(map[trigger.Category]float64),
		groups:       make(map[groupKey]*group),
	}
}

// Strategy returns the active deduplication strategy.
func (d *Deduplicator) Strategy() Strategy {
	return d.params.Strategy
}

// Process admits one warning and returns what should surface now: the
// warning itself, or nil when it is a duplicate, rate-limited, inside the
// cooldown, or held back for its group. All rejections are silent drops,
// never errors.
func (d *Deduplicator) Process(w Warning) *Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.Processed++

	if w.ID == "" {
		w.ID = NewID()
	}
	if _, seen := d.processed[w.ID]; seen {
		d.stats.DuplicateIDs++
		return nil
	}
	d.processed[w.ID] = w.StartTime

	ts := w.StartTime
	recent := pruneBefore(d.accepted[w.Category], ts-rateWindow)
	d.accepted[w.Category] = recent
	if len(recent) >= d.params.RateLimit {
		d.stats.RateLimited++
		d.reject(w, "rate_limit")
		return nil
	}

	key := groupKey{category: w.Category, bucket: bucketFor(ts, d.params.Window)}
	g, exists := d.groups[key]

	// The cooldown gates only warnings that would start a new group.
	// Members joining the active group bypass it, otherwise no group could
	// ever collect more than one warning.
	if !exists {
		if last, ok := d.lastAccepted[w.Category]; ok && ts-last < d.params.Cooldown {
			d.stats.CooldownSuppressed++
			d.reject(w, "cooldown")
			return nil
		}
		g = &group{first: ts, last: ts}
		d.groups[key] = g
	}

	if d.params.Strategy == StrategyMergeAll && g.merged {
		d.stats.GroupSuppressed++
		d.reject(w, "group_already_merged")
		return nil
	}

	d.accepted[w.Category] = append(d.accepted[w.Category], ts)
	d.lastAccepted[w.Category] = ts
	g.warnings = append(g.warnings, w)
	if ts < g.first {
		g.first = ts
	}
	if ts > g.last {
		g.last = ts
	}

	switch d.params.Strategy {
	case StrategyShowAll:
		d.stats.Emitted++
		return &w
	case StrategySuppressDuplicates:
		if len(g.warnings) > 1 {
			d.stats.GroupSuppressed++
			d.reject(w, "duplicate_in_group")
			return nil
		}
		d.stats.Emitted++
		return &w
	case StrategyKeepHighest:
		if len(g.warnings) > 1 && w.Confidence <= g.best {
			d.stats.GroupSuppressed++
			d.reject(w, "below_group_best")
			return nil
		}
		g.best = w.Confidence
		d.stats.Emitted++
		return &w
	default:
		// merge-all: the first warning surfaces untouched; later members
		// accumulate until the sweep emits one merged warning.
		if len(g.warnings) == 1 {
			d.stats.Emitted++
			return &w
		}
		return nil
	}
}

// Sweep emits pending merged warnings and drops groups and processed ids
// past their retention horizons. The host calls it on a short timer; offline
// replay calls it once after the last event.
func (d *Deduplicator) Sweep(now float64) []Warning {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Warning
	for key, g := range d.groups {
		if d.params.Strategy == StrategyMergeAll && !g.merged && len(g.warnings) > 1 {
			merged := d.mergeLocked(key.category, g)
			g.merged = true
			d.stats.MergedEmitted++
			d.stats.Emitted++
			out = append(out, merged)
		}
		if g.last < now-2*d.params.Window {
			delete(d.groups, key)
		}
	}
	for id, ts := range d.processed {
		if ts < now-rateWindow {
			delete(d.processed, id)
		}
	}
	for category, list := range d.accepted {
		pruned := pruneBefore(list, now-rateWindow)
		if len(pruned) == 0 {
			delete(d.accepted, category)
		} else {
			d.accepted[category] = pruned
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Stats returns a snapshot of the telemetry counters.
func (d *Deduplicator) Stats() DedupStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	stats := d.stats
	stats.ActiveGroups = len(d.groups)
	return stats
}

// Reset discards all grouping state, e.g. when playback switches titles.
// Telemetry counters survive.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed = make(map[string]float64)
	d.accepted = make(map[trigger.Category][]float64)
	d.lastAccepted = make(map[trigger.Category]float64)
	d.groups = make(map[groupKey]*group)
}

// mergeLocked synthesizes the single merged warning for a multi-member
// group: mean confidence plus a capped per-extra-source bonus, the members'
// combined span, and a concatenated description.
func (d *Deduplicator) mergeLocked(category trigger.Category, g *group) Warning {
	sum := 0.0
	end := g.last
	var descs []string
	seenDesc := make(map[string]struct{})
	sourceLists := make([][]string, 0, len(g.warnings))
	for _, w := range g.warnings {
		sum += w.Confidence
		if w.EndTime > end {
			end = w.EndTime
		}
		if w.Description != "" {
			if _, ok := seenDesc[w.Description]; !ok {
				seenDesc[w.Description] = struct{}{}
				descs = append(descs, w.Description)
			}
		}
		sourceLists = append(sourceLists, w.Sources)
	}
	avg := sum / float64(len(g.warnings))
	sources := mergeSources(sourceLists...)
	extra := len(sources) - 1
	if len(sources) == 0 {
		extra = len(g.warnings) - 1
	}
	if extra < 0 {
		extra = 0
	}
	bonus := math.Min(float64(extra)*d.params.MergeBonus, d.params.MergeBonusCap)
	now := time.Now().UTC()
	return Warning{
		ID:          NewID(),
		Category:    category,
		Confidence:  math.Min(avg+bonus, d.params.MaxConfidence),
		Description: strings.Join(descs, "; "),
		StartTime:   g.first,
		EndTime:     end,
		SubmittedBy: SubmitterFusion,
		Status:      StatusMerged,
		Sources:     sources,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (d *Deduplicator) reject(w Warning, reason string) {
	attrs := logging.DecisionAttrs("dedup", "drop", reason)
	attrs = append(attrs,
		logging.String(logging.FieldCategory, string(w.Category)),
		logging.String(logging.FieldWarningID, w.ID),
	)
	d.logger.Debug("warning dropped", logging.Args(attrs...)...)
}

func bucketFor(ts, window float64) int64 {
	return int64(math.Floor(ts / window))
}

func pruneBefore(list []float64, cutoff float64) []float64 {
	kept := list[:0]
	for _, ts := range list {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	return kept
}
