package fusion_test

import (
	"math"
	"testing"

	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/trigger"
)

func newRouter(t *testing.T) *fusion.Router {
	t.Helper()
	table, err := trigger.LoadTable()
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	return fusion.NewRouter(table, logging.NewNop())
}

func signal(confidence float64) *fusion.Signal {
	return &fusion.Signal{Confidence: confidence}
}

func TestRouteSingleModalityCarriesRawConfidence(t *testing.T) {
	router := newRouter(t)

	det := router.Route("blood", fusion.MultiModalInput{
		Timestamp: 12.5,
		Visual:    signal(80),
	})

	if math.Abs(det.Confidence-80) > 1e-9 {
		t.Fatalf("confidence = %v, want 80 (weights renormalized over the only present modality)", det.Confidence)
	}
	if math.Abs(det.Contributions.Visual-80) > 1e-9 {
		t.Fatalf("visual contribution = %v, want 80", det.Contributions.Visual)
	}
	if det.Contributions.Audio != 0 || det.Contributions.Text != 0 {
		t.Fatalf("absent modalities contributed: %+v", det.Contributions)
	}
	if det.Route != trigger.RouteVisualPrimary {
		t.Fatalf("route = %q, want visual-primary", det.Route)
	}
	if det.Timestamp != 12.5 {
		t.Fatalf("timestamp = %v, want 12.5", det.Timestamp)
	}
}

func TestRouteWeightedAverageAllModalities(t *testing.T) {
	router := newRouter(t)

	// violence weights: visual 0.45, audio 0.35, text 0.20.
	det := router.Route("violence", fusion.MultiModalInput{
		Visual: signal(80),
		Audio:  signal(60),
		Text:   signal(40),
	})

	want := 0.45*80 + 0.35*60 + 0.20*40
	if math.Abs(det.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", det.Confidence, want)
	}
	if sum := det.Contributions.Sum(); math.Abs(sum-det.Confidence) > 1e-9 {
		t.Fatalf("contributions sum %v != confidence %v", sum, det.Confidence)
	}
}

func TestRouteRenormalizesOverPresentModalities(t *testing.T) {
	router := newRouter(t)

	// Text absent: weights 0.45/0.35 renormalize over 0.80 total. This is
	// not the same as scoring text at zero, which would give 57.
	det := router.Route("violence", fusion.MultiModalInput{
		Visual: signal(80),
		Audio:  signal(60),
	})

	want := (0.45*80 + 0.35*60) / 0.80
	if math.Abs(det.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", det.Confidence, want)
	}
}

func TestRouteContributionsNeverExceedRawConfidence(t *testing.T) {
	router := newRouter(t)

	inputs := []fusion.MultiModalInput{
		{Visual: signal(90)},
		{Visual: signal(90), Audio: signal(20)},
		{Visual: signal(55), Audio: signal(70), Text: signal(35)},
		{Audio: signal(100), Text: signal(100)},
	}
	for _, input := range inputs {
		for _, category := range []trigger.Category{"blood", "gunshots", "slurs", "violence"} {
			det := router.Route(category, input)
			for _, m := range fusion.Modalities() {
				raw := 0.0
				if sig, ok := input.Signal(m); ok {
					raw = sig.Confidence
				}
				if contribution := det.Contributions.For(m); contribution > raw+1e-9 {
					t.Fatalf("category %s modality %s: contribution %v exceeds raw confidence %v",
						category, m, contribution, raw)
				}
			}
		}
	}
}

func TestRouteUnknownCategoryFallsBack(t *testing.T) {
	router := newRouter(t)

	det := router.Route("not_a_category", fusion.MultiModalInput{Visual: signal(90)})

	if det.Route != trigger.RouteMultiModalBalanced {
		t.Fatalf("route = %q, want balanced fallback", det.Route)
	}
	if math.Abs(det.Confidence-90) > 1e-9 {
		t.Fatalf("confidence = %v, want 90", det.Confidence)
	}
	stats := router.Stats()
	if stats.Fallbacks != 1 {
		t.Fatalf("fallbacks = %d, want 1", stats.Fallbacks)
	}
}

func TestRouteEmptyInputYieldsZero(t *testing.T) {
	router := newRouter(t)

	det := router.Route("blood", fusion.MultiModalInput{})

	if det.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0", det.Confidence)
	}
	if det.ValidationPassed {
		t.Fatal("precheck passed with no modalities present")
	}
}

func TestRouteZeroWeightsGuarded(t *testing.T) {
	router := newRouter(t)

	det := router.RouteWeighted("blood", trigger.Weights{}, fusion.MultiModalInput{
		Visual: signal(95),
	})

	if det.Confidence != 0 {
		t.Fatalf("confidence = %v, want 0 (all-zero weights must not divide by zero)", det.Confidence)
	}
}

func TestRouteWeightedSubstitutesLearnedWeights(t *testing.T) {
	router := newRouter(t)

	learned := trigger.Weights{Visual: 0.20, Audio: 0.70, Text: 0.10}
	det := router.RouteWeighted("blood", learned, fusion.MultiModalInput{
		Visual: signal(100),
		Audio:  signal(50),
	})

	want := (0.20*100 + 0.70*50) / 0.90
	if math.Abs(det.Confidence-want) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", det.Confidence, want)
	}
	// Route label still comes from the table entry.
	if det.Route != trigger.RouteVisualPrimary {
		t.Fatalf("route = %q, want visual-primary", det.Route)
	}
}

func TestRoutePrecheckPerValidationLevel(t *testing.T) {
	router := newRouter(t)

	cases := []struct {
		name     string
		category trigger.Category
		input    fusion.MultiModalInput
		want     bool
	}{
		{"high-sensitivity single modality", "sexual_assault", fusion.MultiModalInput{Visual: signal(99)}, false},
		{"high-sensitivity two modalities", "sexual_assault", fusion.MultiModalInput{Visual: signal(80), Audio: signal(75)}, true},
		{"standard one strong modality", "slurs", fusion.MultiModalInput{Text: signal(85)}, true},
		{"standard one weak modality", "slurs", fusion.MultiModalInput{Text: signal(50)}, false},
		{"standard two weak modalities", "slurs", fusion.MultiModalInput{Text: signal(50), Audio: signal(40)}, true},
		{"single-modality one present", "gunshots", fusion.MultiModalInput{Audio: signal(30)}, true},
	}
	for _, tc := range cases {
		det := router.Route(tc.category, tc.input)
		if det.ValidationPassed != tc.want {
			t.Fatalf("%s: precheck = %v, want %v", tc.name, det.ValidationPassed, tc.want)
		}
	}
}

func TestRouterStatsCountByRoute(t *testing.T) {
	router := newRouter(t)

	router.Route("blood", fusion.MultiModalInput{Visual: signal(50)})
	router.Route("gore", fusion.MultiModalInput{Visual: signal(50)})
	router.Route("gunshots", fusion.MultiModalInput{Audio: signal(50)})

	stats := router.Stats()
	if stats.Routed != 3 {
		t.Fatalf("routed = %d, want 3", stats.Routed)
	}
	if stats.ByRoute[trigger.RouteVisualPrimary] != 2 {
		t.Fatalf("visual-primary count = %d, want 2", stats.ByRoute[trigger.RouteVisualPrimary])
	}
	if stats.ByRoute[trigger.RouteAudioPrimary] != 1 {
		t.Fatalf("audio-primary count = %d, want 1", stats.ByRoute[trigger.RouteAudioPrimary])
	}
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-5, 0},
		{0, 0},
		{55.5, 55.5},
		{100, 100},
		{140, 100},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := fusion.ClampConfidence(tc.in); got != tc.want {
			t.Fatalf("ClampConfidence(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	if got := fusion.NormalizeUnit(0.85); math.Abs(got-85) > 1e-9 {
		t.Fatalf("NormalizeUnit(0.85) = %v, want 85", got)
	}
	if got := fusion.NormalizeUnit(1.5); got != 100 {
		t.Fatalf("NormalizeUnit(1.5) = %v, want 100", got)
	}
}
