package api

import (
	"time"

	"vigil/internal/attention"
	"vigil/internal/engine"
	"vigil/internal/preflight"
	"vigil/internal/store"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// FromWarning converts a journaled warning to its API representation.
func FromWarning(w warnings.Warning) Warning {
	dto := Warning{
		ID:          w.ID,
		Category:    string(w.Category),
		Confidence:  w.Confidence,
		Description: w.Description,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		SubmittedBy: w.SubmittedBy,
		Status:      string(w.Status),
	}
	if len(w.Sources) > 0 {
		dto.Sources = append([]string(nil), w.Sources...)
	}
	dto.CreatedAt = formatTimestamp(w.CreatedAt)
	dto.UpdatedAt = formatTimestamp(w.UpdatedAt)
	return dto
}

// FromWarnings converts a warning slice, preserving order.
func FromWarnings(list []warnings.Warning) []Warning {
	if len(list) == 0 {
		return nil
	}
	out := make([]Warning, 0, len(list))
	for _, w := range list {
		out = append(out, FromWarning(w))
	}
	return out
}

// FromProcessResult converts a pipeline decision trace into the ingestion
// response. The reasoning trail carries the validator's notes plus the
// temporal verdict so detector clients can see why an event did or did not
// surface.
func FromProcessResult(result *engine.ProcessResult) DetectionResponse {
	if result == nil {
		return DetectionResponse{}
	}
	resp := DetectionResponse{
		Accepted:   result.Warning != nil,
		Category:   string(result.Category),
		Confidence: result.Detection.Confidence,
		Reasoning:  append([]string(nil), result.Validation.Reasoning...),
	}
	if result.Regularized != nil {
		resp.Confidence = result.Regularized.RegularizedConfidence
		if reason := result.Regularized.WarnReason; reason != "" {
			resp.Reasoning = append(resp.Reasoning, "temporal: "+reason)
		}
	}
	if result.Warning != nil {
		w := FromWarning(*result.Warning)
		resp.Warning = &w
	}
	return resp
}

// FromStatusSummary converts pipeline telemetry to its API representation.
func FromStatusSummary(summary engine.StatusSummary) EngineStatus {
	status := EngineStatus{
		Running:          summary.Running,
		Categories:       summary.Categories,
		ActiveShards:     summary.ActiveShards,
		EventsProcessed:  summary.EventsProcessed,
		WarningsSurfaced: summary.WarningsSurfaced,
		ScenesObserved:   summary.ScenesObserved,
		FeedbackApplied:  summary.FeedbackApplied,
		LastEventTime:    summary.LastEventTime,
		SceneCount:       summary.SceneCount,
		Router: RouterStats{
			Routed:    summary.Router.Routed,
			Fallbacks: summary.Router.Fallbacks,
		},
		Validator: ValidatorStats{
			Validated:   summary.Validator.Validated,
			Passed:      summary.Validator.Passed,
			Rejected:    summary.Validator.Rejected,
			HardRejects: summary.Validator.HardRejects,
			Penalized:   summary.Validator.Penalized,
		},
		Temporal: TemporalStats{
			Regularized:   summary.Temporal.Regularized,
			Boosted:       summary.Temporal.Boosted,
			Penalized:     summary.Temporal.Penalized,
			SceneAdjusted: summary.Temporal.SceneAdjusted,
			Surfaced:      summary.Temporal.Surfaced,
			Suppressed:    summary.Temporal.Suppressed,
			Overrides:     summary.Temporal.Overrides,
		},
		Dedup: DedupStats{
			Processed:          summary.Dedup.Processed,
			Emitted:            summary.Dedup.Emitted,
			MergedEmitted:      summary.Dedup.MergedEmitted,
			DuplicateIDs:       summary.Dedup.DuplicateIDs,
			RateLimited:        summary.Dedup.RateLimited,
			CooldownSuppressed: summary.Dedup.CooldownSuppressed,
			GroupSuppressed:    summary.Dedup.GroupSuppressed,
			ActiveGroups:       summary.Dedup.ActiveGroups,
		},
	}
	if len(summary.Router.ByRoute) > 0 {
		status.Router.ByRoute = make(map[string]uint64, len(summary.Router.ByRoute))
		for route, count := range summary.Router.ByRoute {
			status.Router.ByRoute[string(route)] = count
		}
	}
	if len(summary.Attention) > 0 {
		status.Attention = make(map[string]AttentionState, len(summary.Attention))
		for category, stats := range summary.Attention {
			status.Attention[string(category)] = fromCategoryStats(stats)
		}
	}
	return status
}

// FromDatabaseHealth converts store diagnostics to their API representation.
func FromDatabaseHealth(health store.DatabaseHealth) DatabaseStatus {
	return DatabaseStatus{
		Path:           health.DBPath,
		Exists:         health.DatabaseExists,
		Readable:       health.DatabaseReadable,
		SchemaVersion:  health.SchemaVersion,
		TablesPresent:  append([]string(nil), health.TablesPresent...),
		MissingTables:  append([]string(nil), health.MissingTables...),
		IntegrityCheck: health.IntegrityCheck,
		TotalWarnings:  health.TotalWarnings,
		Error:          health.Error,
	}
}

// FromWarningCounts string-keys per-category warning totals.
func FromWarningCounts(counts map[trigger.Category]int) map[string]int {
	if len(counts) == 0 {
		return nil
	}
	out := make(map[string]int, len(counts))
	for category, count := range counts {
		out[string(category)] = count
	}
	return out
}

// FromPreflight converts preflight results to their API representation.
func FromPreflight(results []preflight.Result) []PreflightCheck {
	if len(results) == 0 {
		return nil
	}
	out := make([]PreflightCheck, 0, len(results))
	for _, result := range results {
		out = append(out, PreflightCheck{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return out
}

func fromCategoryStats(stats attention.CategoryStats) AttentionState {
	return AttentionState{
		Learned:             fromWeights(stats.Learned),
		Performance:         ModalityWeights(stats.Performance),
		TotalDetections:     stats.TotalDetections,
		CorrectDetections:   stats.CorrectDetections,
		IncorrectDetections: stats.IncorrectDetections,
		LastUpdated:         formatTimestamp(stats.LastUpdated),
	}
}

func fromWeights(w trigger.Weights) ModalityWeights {
	return ModalityWeights{Visual: w.Visual, Audio: w.Audio, Text: w.Text}
}

func formatTimestamp(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(dateTimeFormat)
}
