package fusion_test

import (
	"math"
	"testing"

	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/trigger"
)

func newValidator(t *testing.T) *fusion.Validator {
	t.Helper()
	table, err := trigger.LoadTable()
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	return fusion.NewValidator(table, logging.NewNop())
}

func detection(category trigger.Category, confidence float64, contributions fusion.Contributions) fusion.Detection {
	return fusion.Detection{
		Category:      category,
		Confidence:    confidence,
		Contributions: contributions,
	}
}

func TestHighSensitivityRejectsSingleModality(t *testing.T) {
	validator := newValidator(t)

	// Raw confidence 99 makes no difference: a serious trigger is never
	// surfaced on one modality.
	result := validator.Validate(detection("sexual_assault", 99, fusion.Contributions{Visual: 99}))

	if result.IsValid {
		t.Fatal("expected hard reject")
	}
	if result.AdjustedConfidence != 0 {
		t.Fatalf("adjusted confidence = %v, want 0", result.AdjustedConfidence)
	}
	if result.ModalitiesPresent != 1 {
		t.Fatalf("modalities present = %d, want 1", result.ModalitiesPresent)
	}
	if result.ModalitiesRequired != 2 {
		t.Fatalf("modalities required = %d, want 2", result.ModalitiesRequired)
	}

	stats := validator.Stats()
	if stats.HardRejects != 1 {
		t.Fatalf("hard rejects = %d, want 1", stats.HardRejects)
	}
}

func TestHighSensitivityPassesWithCorroboration(t *testing.T) {
	validator := newValidator(t)

	result := validator.Validate(detection("sexual_assault", 78, fusion.Contributions{Visual: 42, Audio: 36}))

	if !result.IsValid {
		t.Fatalf("expected pass, reasoning: %v", result.Reasoning)
	}
	if result.AdjustedConfidence != 78 {
		t.Fatalf("adjusted confidence = %v, want 78 unchanged", result.AdjustedConfidence)
	}
}

func TestHighSensitivityBelowThresholdFailsSoftly(t *testing.T) {
	validator := newValidator(t)

	result := validator.Validate(detection("sexual_assault", 70, fusion.Contributions{Visual: 40, Audio: 30}))

	if result.IsValid {
		t.Fatal("expected failure below 75")
	}
	// Corroborated but weak: confidence is kept, not zeroed.
	if result.AdjustedConfidence != 70 {
		t.Fatalf("adjusted confidence = %v, want 70", result.AdjustedConfidence)
	}
}

func TestStandardSingleModalityPenalty(t *testing.T) {
	validator := newValidator(t)

	result := validator.Validate(detection("slurs", 100, fusion.Contributions{Text: 100}))

	if math.Abs(result.AdjustedConfidence-60) > 1e-9 {
		t.Fatalf("adjusted confidence = %v, want 60 (100 * 0.6)", result.AdjustedConfidence)
	}
	if !result.IsValid {
		t.Fatal("penalized 60 still meets the standard threshold")
	}

	// Just below: 99 * 0.6 = 59.4 fails.
	result = validator.Validate(detection("slurs", 99, fusion.Contributions{Text: 99}))
	if result.IsValid {
		t.Fatalf("expected failure at %v", result.AdjustedConfidence)
	}
}

func TestStandardTwoModalitiesNotPenalized(t *testing.T) {
	validator := newValidator(t)

	result := validator.Validate(detection("slurs", 100, fusion.Contributions{Text: 60, Audio: 40}))

	if result.AdjustedConfidence != 100 {
		t.Fatalf("adjusted confidence = %v, want 100 unpenalized", result.AdjustedConfidence)
	}
	if !result.IsValid {
		t.Fatal("expected pass")
	}
	if stats := validator.Stats(); stats.Penalized != 0 {
		t.Fatalf("penalized = %d, want 0", stats.Penalized)
	}
}

func TestSingleModalitySufficientThreshold(t *testing.T) {
	validator := newValidator(t)

	pass := validator.Validate(detection("blood", 60, fusion.Contributions{Visual: 60}))
	if !pass.IsValid {
		t.Fatalf("confidence 60 should pass, reasoning: %v", pass.Reasoning)
	}
	if pass.AdjustedConfidence != 60 {
		t.Fatalf("adjusted confidence = %v, want 60 (no penalty)", pass.AdjustedConfidence)
	}

	fail := validator.Validate(detection("blood", 59.9, fusion.Contributions{Visual: 59.9}))
	if fail.IsValid {
		t.Fatal("confidence 59.9 should fail")
	}
}

func TestContributionFloorDistinguishesPresence(t *testing.T) {
	validator := newValidator(t)

	// Audio logged 10 exactly: at the floor, not above it, so the detection
	// counts as single-modality and takes the standard penalty.
	result := validator.Validate(detection("slurs", 95, fusion.Contributions{Text: 85, Audio: 10}))
	if result.ModalitiesPresent != 1 {
		t.Fatalf("modalities present = %d, want 1 (contribution at floor is negligible)", result.ModalitiesPresent)
	}
	if math.Abs(result.AdjustedConfidence-95*0.6) > 1e-9 {
		t.Fatalf("adjusted confidence = %v, want %v", result.AdjustedConfidence, 95*0.6)
	}

	// Just above the floor counts.
	result = validator.Validate(detection("slurs", 95, fusion.Contributions{Text: 84.9, Audio: 10.1}))
	if result.ModalitiesPresent != 2 {
		t.Fatalf("modalities present = %d, want 2", result.ModalitiesPresent)
	}
	if result.AdjustedConfidence != 95 {
		t.Fatalf("adjusted confidence = %v, want 95 unpenalized", result.AdjustedConfidence)
	}
}

func TestValidateUnknownCategoryUsesStandardRules(t *testing.T) {
	validator := newValidator(t)

	result := validator.Validate(detection("not_a_category", 100, fusion.Contributions{Visual: 100}))

	if result.Level != trigger.ValidationStandard {
		t.Fatalf("level = %q, want standard fallback", result.Level)
	}
	if math.Abs(result.AdjustedConfidence-60) > 1e-9 {
		t.Fatalf("adjusted confidence = %v, want 60", result.AdjustedConfidence)
	}
}

func TestValidatorStatsProgress(t *testing.T) {
	validator := newValidator(t)

	validator.Validate(detection("blood", 80, fusion.Contributions{Visual: 80}))
	validator.Validate(detection("blood", 10, fusion.Contributions{Visual: 10}))
	validator.Validate(detection("sexual_assault", 90, fusion.Contributions{Visual: 90}))

	stats := validator.Stats()
	if stats.Validated != 3 {
		t.Fatalf("validated = %d, want 3", stats.Validated)
	}
	if stats.Passed != 1 {
		t.Fatalf("passed = %d, want 1", stats.Passed)
	}
	if stats.Rejected != 2 {
		t.Fatalf("rejected = %d, want 2", stats.Rejected)
	}
	if stats.HardRejects != 1 {
		t.Fatalf("hard rejects = %d, want 1", stats.HardRejects)
	}
}

func TestReasoningTrailAccumulates(t *testing.T) {
	validator := newValidator(t)

	result := validator.Validate(detection("sexual_assault", 99, fusion.Contributions{Visual: 99}))
	if len(result.Reasoning) < 2 {
		t.Fatalf("expected reasoning trail, got %v", result.Reasoning)
	}
}
