package fusion

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"vigil/internal/logging"
	"vigil/internal/trigger"
)

// ContributionFloor is the contribution a modality must clear to count as
// present, on the canonical 0..100 scale. It separates a modality that
// genuinely fired from one that contributed noise, and callers attributing
// warning sources use the same floor.
const ContributionFloor = 10.0

// Validation thresholds on the canonical 0..100 confidence scale.
const (
	highSensitivityPass    = 75.0
	standardPass           = 60.0
	singleModalityPenalty  = 0.6
	highSensitivityMinimum = 2
)

// ValidationResult is the authoritative accept/reject decision for one
// detection. Rejection is a result, not an error: the reasoning trail records
// why so callers can log or surface it.
type ValidationResult struct {
	IsValid            bool
	AdjustedConfidence float64
	ModalitiesPresent  int
	ModalitiesRequired int
	Level              trigger.ValidationLevel
	Reasoning          []string
}

// ValidatorStats is a point-in-time snapshot of validation telemetry.
type ValidatorStats struct {
	Validated   uint64
	Passed      uint64
	Rejected    uint64
	HardRejects uint64
	Penalized   uint64
}

// Validator applies the per-category acceptance rules to routed detections.
// It reads the same route table as the Router, so the validation level for a
// category can never drift from the weights that produced the detection.
type Validator struct {
	table  *trigger.Table
	logger *slog.Logger

	validated   atomic.Uint64
	passed      atomic.Uint64
	rejected    atomic.Uint64
	hardRejects atomic.Uint64
	penalized   atomic.Uint64
}

// NewValidator builds a validator over the given route table.
func NewValidator(table *trigger.Table, logger *slog.Logger) *Validator {
	return &Validator{
		table:  table,
		logger: logging.NewComponentLogger(logger, "validator"),
	}
}

// Validate decides whether a routed detection may proceed to temporal
// regularization. Pure function of the detection plus the static table; the
// only side effects are telemetry counters and decision logs.
func (v *Validator) Validate(det Detection) ValidationResult {
	v.validated.Add(1)

	level := trigger.ValidationStandard
	if cfg, ok := v.table.Lookup(det.Category); ok {
		level = cfg.Validation
	}

	present := det.Contributions.CountAbove(ContributionFloor)
	result := ValidationResult{
		AdjustedConfidence: det.Confidence,
		ModalitiesPresent:  present,
		Level:              level,
	}
	result.Reasoning = append(result.Reasoning,
		fmt.Sprintf("%d of 3 modalities contributed above %.0f", present, ContributionFloor))

	switch level {
	case trigger.ValidationHighSensitivity:
		result.ModalitiesRequired = highSensitivityMinimum
		if present < highSensitivityMinimum {
			// Hard reject: a serious-trigger warning is never surfaced on a
			// single modality, regardless of raw confidence.
			result.AdjustedConfidence = 0
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("high-sensitivity category requires at least %d corroborating modalities", highSensitivityMinimum))
			v.hardRejects.Add(1)
			v.reject(det, result)
			return result
		}
		if det.Confidence >= highSensitivityPass {
			result.IsValid = true
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("confidence %.1f meets high-sensitivity threshold %.0f", det.Confidence, highSensitivityPass))
		} else {
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("confidence %.1f below high-sensitivity threshold %.0f", det.Confidence, highSensitivityPass))
		}

	case trigger.ValidationStandard:
		result.ModalitiesRequired = 1
		adjusted := det.Confidence
		if present <= 1 {
			adjusted = det.Confidence * singleModalityPenalty
			result.AdjustedConfidence = adjusted
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("single-modality penalty applied: %.1f -> %.1f", det.Confidence, adjusted))
			v.penalized.Add(1)
		}
		if adjusted >= standardPass {
			result.IsValid = true
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("confidence %.1f meets standard threshold %.0f", adjusted, standardPass))
		} else {
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("confidence %.1f below standard threshold %.0f", adjusted, standardPass))
		}

	case trigger.ValidationSingleModality:
		result.ModalitiesRequired = 1
		if det.Confidence >= standardPass {
			result.IsValid = true
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("confidence %.1f meets threshold %.0f", det.Confidence, standardPass))
		} else {
			result.Reasoning = append(result.Reasoning,
				fmt.Sprintf("confidence %.1f below threshold %.0f", det.Confidence, standardPass))
		}
	}

	if result.IsValid {
		v.passed.Add(1)
	} else {
		v.reject(det, result)
	}
	return result
}

func (v *Validator) reject(det Detection, result ValidationResult) {
	v.rejected.Add(1)
	if v.logger == nil {
		return
	}
	reason := ""
	if len(result.Reasoning) > 0 {
		reason = result.Reasoning[len(result.Reasoning)-1]
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldCategory, string(det.Category)),
		logging.Float64("confidence", det.Confidence),
		logging.Float64("adjusted_confidence", result.AdjustedConfidence),
		logging.Int("modalities_present", result.ModalitiesPresent),
	}
	attrs = append(attrs, logging.DecisionAttrs("validation", "rejected", reason)...)
	v.logger.Debug("detection rejected", logging.Args(attrs...)...)
}

// Stats snapshots the validation counters.
func (v *Validator) Stats() ValidatorStats {
	return ValidatorStats{
		Validated:   v.validated.Load(),
		Passed:      v.passed.Load(),
		Rejected:    v.rejected.Load(),
		HardRejects: v.hardRejects.Load(),
		Penalized:   v.penalized.Load(),
	}
}
