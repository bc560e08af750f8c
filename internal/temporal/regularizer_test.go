package temporal_test

import (
	"math"
	"testing"

	"vigil/internal/config"
	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/temporal"
	"vigil/internal/trigger"
)

func newRegularizer(t *testing.T, category trigger.Category, scenes *temporal.SceneTimeline) *temporal.Regularizer {
	t.Helper()
	table, err := trigger.LoadTable()
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	route, ok := table.Lookup(category)
	if !ok {
		t.Fatalf("category %q missing from table", category)
	}
	params := temporal.ParamsFromConfig(config.Default().Temporal)
	return temporal.NewRegularizer(category, route, params, scenes, logging.NewNop())
}

func detection(category trigger.Category, ts, confidence float64) fusion.Detection {
	return fusion.Detection{
		Category:   category,
		Timestamp:  ts,
		Confidence: confidence,
	}
}

func TestIsolatedDetectionIsSuppressed(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	// Confidence 95 sits below the override, and with no history the
	// coherence score is neutral, so a lone detection stays quiet.
	result := reg.Regularize(detection("blood", 0, 95), 0)

	if result.ShouldWarn {
		t.Fatalf("isolated detection surfaced: %+v", result)
	}
	if result.WarnReason != "suppressed" {
		t.Fatalf("reason = %q, want suppressed", result.WarnReason)
	}
	if math.Abs(result.CoherenceScore-0.5) > 1e-9 {
		t.Fatalf("empty-history coherence = %v, want 0.5", result.CoherenceScore)
	}
}

func TestSteadyRunSurfacesThroughCoherence(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	first := reg.Regularize(detection("blood", 0, 95), 0)
	if first.ShouldWarn {
		t.Fatalf("first sample surfaced with no history")
	}

	second := reg.Regularize(detection("blood", 0.5, 95), 0.5)
	if !second.ShouldWarn {
		t.Fatalf("second matching sample suppressed: %+v", second)
	}
	if second.WarnReason != "coherent" {
		t.Fatalf("reason = %q, want coherent", second.WarnReason)
	}
	if second.CoherenceScore < 0.99 {
		t.Fatalf("coherence = %v, want ~1.0 for identical confidences", second.CoherenceScore)
	}

	third := reg.Regularize(detection("blood", 1.0, 95), 1.0)
	if !third.ShouldWarn {
		t.Fatalf("third matching sample suppressed: %+v", third)
	}
}

func TestVeryHighConfidenceOverridesSuppression(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	result := reg.Regularize(detection("blood", 0, 98), 0)

	if !result.ShouldWarn {
		t.Fatalf("confidence 98 suppressed despite override threshold 97")
	}
	if result.WarnReason != "override" {
		t.Fatalf("reason = %q, want override", result.WarnReason)
	}
}

func TestOverrideReadsRawConfidenceNotSmoothed(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	// Low history drags the EMA down and the spike penalty bites, but the
	// override still fires on the raw value.
	reg.Regularize(detection("blood", 0, 20), 0)
	result := reg.Regularize(detection("blood", 0.4, 99), 0.4)

	if result.TemporalPenalty <= 0 {
		t.Fatalf("expected spike penalty, got %+v", result)
	}
	if result.RegularizedConfidence >= 97 {
		t.Fatalf("smoothed confidence %v unexpectedly cleared the override", result.RegularizedConfidence)
	}
	if !result.ShouldWarn || result.WarnReason != "override" {
		t.Fatalf("raw 99 not surfaced via override: %+v", result)
	}
}

func TestSuddenSpikeIsPenalized(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	reg.Regularize(detection("blood", 0, 40), 0)
	result := reg.Regularize(detection("blood", 0.3, 90), 0.3)

	// Jump of 50 over threshold 30 leaves an excess of 20, capped at 15.
	if math.Abs(result.TemporalPenalty-15) > 1e-9 {
		t.Fatalf("penalty = %v, want 15 (capped)", result.TemporalPenalty)
	}
	if result.TemporalBoost != 0 {
		t.Fatalf("incoherent spike still boosted: %v", result.TemporalBoost)
	}
}

func TestAdjacentAgreementBoosts(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	reg.Regularize(detection("blood", 0, 70), 0)
	result := reg.Regularize(detection("blood", 0.2, 72), 0.2)

	if result.TemporalBoost <= 0 {
		t.Fatalf("agreeing neighbour produced no boost: %+v", result)
	}
	if result.TemporalPenalty != 0 {
		t.Fatalf("small step penalized: %v", result.TemporalPenalty)
	}
}

func TestRunBecomesSustained(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	var last temporal.RegularizedDetection
	for i := 0; i <= 4; i++ {
		ts := float64(i) * 0.5
		last = reg.Regularize(detection("blood", ts, 80), ts)
	}

	// Five samples spaced 0.5s apart span 2.0s, the sustained minimum.
	if !last.Sustained {
		t.Fatalf("2.0s run not sustained: %+v", last)
	}
	if math.Abs(last.Detection.Temporal.Duration-2.0) > 1e-9 {
		t.Fatalf("run duration = %v, want 2.0", last.Detection.Temporal.Duration)
	}
	if !last.ShouldWarn {
		t.Fatalf("sustained run suppressed")
	}
}

func TestGapBreaksRun(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	reg.Regularize(detection("blood", 0, 80), 0)
	reg.Regularize(detection("blood", 0.5, 80), 0.5)
	// Gap of 1.5s exceeds the 0.5s adjacent window; the run restarts.
	result := reg.Regularize(detection("blood", 2.0, 80), 2.0)

	if result.Detection.Temporal.Duration != 0 {
		t.Fatalf("run duration = %v after gap, want 0", result.Detection.Temporal.Duration)
	}
	if result.Sustained {
		t.Fatalf("broken run still sustained")
	}
}

func TestHistoryPurgedPastRetention(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	reg.Regularize(detection("blood", 0, 80), 0)
	if reg.HistoryLen() != 1 {
		t.Fatalf("history = %d, want 1", reg.HistoryLen())
	}

	// Default retention is 3s; a call at t=10 drops the stale sample and
	// the new detection sees an empty neighbourhood again.
	result := reg.Regularize(detection("blood", 10, 80), 10)
	if math.Abs(result.CoherenceScore-0.5) > 1e-9 {
		t.Fatalf("coherence = %v after purge, want neutral 0.5", result.CoherenceScore)
	}
	if reg.HistoryLen() != 1 {
		t.Fatalf("history = %d after purge, want 1", reg.HistoryLen())
	}
}

func TestSceneAffinityRaisesConfidence(t *testing.T) {
	scenes := temporal.NewSceneTimeline(30)
	scenes.Observe(temporal.Scene{ID: "s1", Type: "medical", Start: 0, End: 10})

	// blood lists medical as a scene affinity.
	withScene := newRegularizer(t, "blood", scenes)
	without := newRegularizer(t, "blood", nil)

	a := withScene.Regularize(detection("blood", 5, 70), 5)
	b := without.Regularize(detection("blood", 5, 70), 5)

	if math.Abs(a.SceneAdjustment-8) > 1e-9 {
		t.Fatalf("scene adjustment = %v, want 8", a.SceneAdjustment)
	}
	if a.RegularizedConfidence <= b.RegularizedConfidence {
		t.Fatalf("scene context did not raise confidence: %v vs %v", a.RegularizedConfidence, b.RegularizedConfidence)
	}
}

func TestUnrelatedSceneDoesNotAdjust(t *testing.T) {
	scenes := temporal.NewSceneTimeline(30)
	scenes.Observe(temporal.Scene{ID: "s1", Type: "party", Start: 0, End: 10})

	reg := newRegularizer(t, "blood", scenes)
	result := reg.Regularize(detection("blood", 5, 70), 5)

	if result.SceneAdjustment != 0 {
		t.Fatalf("unrelated scene adjusted confidence by %v", result.SceneAdjustment)
	}
}

func TestBackwardSeekRestartsRun(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	for i := 0; i <= 4; i++ {
		ts := 100 + float64(i)*0.5
		reg.Regularize(detection("blood", ts, 80), ts)
	}

	// Viewer seeks back to the start of the title.
	result := reg.Regularize(detection("blood", 5, 80), 102)

	if result.Detection.Temporal.Duration != 0 {
		t.Fatalf("run survived a backward seek: duration %v", result.Detection.Temporal.Duration)
	}
}

func TestStatsCountSurfacedAndSuppressed(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	// Suppressed, then coherent, then an override after the purge gap.
	reg.Regularize(detection("blood", 0, 95), 0)
	reg.Regularize(detection("blood", 0.5, 95), 0.5)
	reg.Regularize(detection("blood", 10, 98), 10)

	stats := reg.Stats()
	if stats.Regularized != 3 {
		t.Fatalf("regularized = %d, want 3", stats.Regularized)
	}
	if stats.Suppressed != 1 {
		t.Fatalf("suppressed = %d, want 1", stats.Suppressed)
	}
	if stats.Surfaced != 2 {
		t.Fatalf("surfaced = %d, want 2", stats.Surfaced)
	}
	if stats.Overrides != 1 {
		t.Fatalf("overrides = %d, want 1", stats.Overrides)
	}
}

func TestResetClearsHistory(t *testing.T) {
	reg := newRegularizer(t, "blood", nil)

	reg.Regularize(detection("blood", 0, 80), 0)
	reg.Regularize(detection("blood", 0.5, 80), 0.5)
	reg.Reset()

	if reg.HistoryLen() != 0 {
		t.Fatalf("history = %d after reset", reg.HistoryLen())
	}
	result := reg.Regularize(detection("blood", 1.0, 80), 1.0)
	if math.Abs(result.CoherenceScore-0.5) > 1e-9 {
		t.Fatalf("coherence = %v after reset, want neutral", result.CoherenceScore)
	}
}
