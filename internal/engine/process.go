package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"vigil/internal/attention"
	"vigil/internal/fusion"
	"vigil/internal/logging"
	"vigil/internal/services"
	"vigil/internal/store"
	"vigil/internal/temporal"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// ProcessResult is the decision trace for one pipeline pass. Warning is
// non-nil only when the detection survived validation, regularization, and
// deduplication.
type ProcessResult struct {
	Category    trigger.Category
	Detection   fusion.Detection
	Validation  fusion.ValidationResult
	Regularized *temporal.RegularizedDetection
	Warning     *warnings.Warning
}

// Process runs one analyzer event through the full pipeline. Rejection at
// any stage is a result, not an error; errors are reserved for events the
// pipeline cannot interpret at all.
func (e *Engine) Process(ctx context.Context, event DetectionEvent) (*ProcessResult, error) {
	category, ok := trigger.ParseCategory(event.Category)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "engine", "process",
			fmt.Sprintf("unusable category %q", event.Category), nil)
	}
	if reason := event.validate(); reason != "" {
		return nil, services.Wrap(services.ErrValidation, "engine", "process", reason, nil)
	}

	input := event.Input()
	weights := e.attention.Compute(category, input)
	det := e.router.RouteWeighted(category, weights, input)
	e.processed.Add(1)
	e.observeEventTime(det.Timestamp)

	result := &ProcessResult{Category: category, Detection: det}

	result.Validation = e.validator.Validate(det)
	if !result.Validation.IsValid {
		return result, nil
	}
	det.Confidence = result.Validation.AdjustedConfidence

	sh := e.shardFor(category)
	sh.mu.Lock()
	reg := sh.reg.Regularize(det, det.Timestamp)
	if reg.ShouldWarn {
		remembered := reg.Detection
		sh.last = &remembered
	}
	sh.mu.Unlock()

	result.Regularized = &reg
	if !reg.ShouldWarn {
		return result, nil
	}

	emitted := e.dedup.Process(e.buildWarning(category, reg))
	if emitted == nil {
		return result, nil
	}

	result.Warning = emitted
	e.surfaced.Add(1)
	e.journal(ctx, *emitted)
	e.logger.Info("warning surfaced",
		logging.Args(append(
			logging.DecisionAttrs("pipeline", "surfaced", reg.WarnReason),
			logging.String(logging.FieldCategory, string(category)),
			logging.String(logging.FieldWarningID, emitted.ID),
			logging.Float64("confidence", emitted.Confidence),
			logging.Float64("timestamp", det.Timestamp),
		)...)...)
	return result, nil
}

// buildWarning shapes a regularized detection into its journal form. The
// deduplicator mints the ID so replays through it stay idempotent.
func (e *Engine) buildWarning(category trigger.Category, reg temporal.RegularizedDetection) warnings.Warning {
	det := reg.Detection
	var sources []string
	for _, m := range fusion.Modalities() {
		if det.Contributions.For(m) > fusion.ContributionFloor {
			sources = append(sources, string(m))
		}
	}
	start := det.Timestamp - det.Temporal.Duration
	if start < 0 {
		start = 0
	}
	return warnings.Warning{
		Category:    category,
		Confidence:  det.Confidence,
		Description: fmt.Sprintf("%s detected", trigger.Label(category)),
		StartTime:   start,
		EndTime:     det.Timestamp,
		SubmittedBy: warnings.SubmitterFusion,
		Status:      warnings.StatusActive,
		Sources:     sources,
	}
}

// ObserveScene records a scene-classifier span on the shared timeline.
func (e *Engine) ObserveScene(ctx context.Context, event SceneEvent) error {
	sceneType := strings.ToLower(strings.TrimSpace(event.Type))
	if sceneType == "" {
		return services.Wrap(services.ErrValidation, "engine", "observe scene", "scene type required", nil)
	}
	if event.End <= event.Start {
		return services.Wrap(services.ErrValidation, "engine", "observe scene",
			fmt.Sprintf("scene span [%v, %v] must have positive duration", event.Start, event.End), nil)
	}
	id := strings.TrimSpace(event.ID)
	if id == "" {
		id = uuid.NewString()
	}

	e.scenes.Observe(temporal.Scene{ID: id, Type: sceneType, Start: event.Start, End: event.End})
	e.observed.Add(1)
	e.observeEventTime(event.Start)
	e.logger.Debug("scene observed",
		logging.Args(
			logging.String("scene_type", sceneType),
			logging.Float64("start", event.Start),
			logging.Float64("end", event.End),
		)...)
	return nil
}

// Feedback applies a viewer verdict to the category's learned weights and
// journals the event. Feedback arriving before any surfaced detection still
// journals but leaves the weights untouched.
func (e *Engine) Feedback(ctx context.Context, req FeedbackRequest) error {
	category, ok := trigger.ParseCategory(req.Category)
	if !ok {
		return services.Wrap(services.ErrValidation, "engine", "feedback",
			fmt.Sprintf("unusable category %q", req.Category), nil)
	}
	outcome, err := resolveOutcome(req)
	if err != nil {
		return err
	}

	sh := e.shardFor(category)
	sh.mu.Lock()
	last := sh.last
	sh.mu.Unlock()

	if last != nil {
		e.attention.RecordOutcome(category, *last, outcome)
	} else {
		e.logger.Debug("feedback without a surfaced detection; weights unchanged",
			logging.Args(logging.String(logging.FieldCategory, string(category)))...)
	}
	e.feedback.Add(1)

	if e.store == nil {
		return nil
	}
	confidence := req.Confidence
	if confidence == 0 && last != nil {
		confidence = last.Confidence
	}
	_, err = e.store.RecordFeedback(ctx, store.FeedbackEvent{
		Category:    category,
		Type:        req.Type,
		Outcome:     string(outcome),
		Confidence:  confidence,
		WarningID:   req.WarningID,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		e.logger.Warn("failed to journal feedback event",
			logging.Args(
				logging.Error(err),
				logging.String(logging.FieldCategory, string(category)),
				logging.String(logging.FieldErrorHint, "check database access"),
			)...)
	}
	return nil
}

// resolveOutcome maps a feedback request onto the attention outcome, with
// an explicit outcome overriding the type-derived one.
func resolveOutcome(req FeedbackRequest) (attention.Outcome, error) {
	if strings.TrimSpace(req.Outcome) != "" {
		outcome, ok := attention.ParseOutcome(req.Outcome)
		if !ok {
			return "", services.Wrap(services.ErrValidation, "engine", "feedback",
				fmt.Sprintf("unknown outcome %q", req.Outcome), nil)
		}
		return outcome, nil
	}
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case FeedbackConfirm:
		return attention.OutcomeCorrect, nil
	case FeedbackDismiss, FeedbackReport:
		return attention.OutcomeIncorrect, nil
	default:
		return "", services.Wrap(services.ErrValidation, "engine", "feedback",
			fmt.Sprintf("unknown feedback type %q", req.Type), nil)
	}
}
