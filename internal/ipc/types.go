package ipc

import (
	"vigil/internal/api"
	"vigil/internal/engine"
)

// DetectionEvent mirrors the HTTP ingestion payload for internal IPC callers.
type DetectionEvent = engine.DetectionEvent

// SignalPayload is one analyzer reading for a single modality.
type SignalPayload = engine.SignalPayload

// Warning mirrors the HTTP API warning DTO for internal IPC callers.
type Warning = api.Warning

// EngineStatus mirrors the HTTP API engine telemetry DTO.
type EngineStatus = api.EngineStatus

// PreflightCheck describes one startup readiness result.
type PreflightCheck = api.PreflightCheck

// StatusLine is a labeled severity/detail pair for status displays.
type StatusLine = api.StatusLine

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/pipeline status information.
// SystemChecks and PathChecks are populated client-side by daemonctl so
// offline fallbacks share the same rendering path.
type StatusResponse struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	DatabasePath  string           `json:"database_path"`
	LockPath      string           `json:"lock_path"`
	SocketPath    string           `json:"socket_path"`
	APIBind       string           `json:"api_bind,omitempty"`
	Engine        EngineStatus     `json:"engine"`
	WarningCounts map[string]int   `json:"warning_counts,omitempty"`
	Preflight     []PreflightCheck `json:"preflight,omitempty"`
	SystemChecks  []StatusLine     `json:"system_checks,omitempty"`
	PathChecks    []StatusLine     `json:"path_checks,omitempty"`
}

// IngestRequest runs one detection event through the pipeline.
type IngestRequest struct {
	Event DetectionEvent `json:"event"`
}

// IngestResponse reports the pipeline decision for the ingested event.
type IngestResponse struct {
	Accepted   bool     `json:"accepted"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning,omitempty"`
	Warning    *Warning `json:"warning,omitempty"`
}

// SceneRequest records a scene-classifier observation.
type SceneRequest struct {
	ID    string  `json:"id,omitempty"`
	Type  string  `json:"type"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SceneResponse acknowledges a scene observation.
type SceneResponse struct {
	Accepted bool `json:"accepted"`
}

// FeedbackRequest applies a viewer verdict to the learned weights.
type FeedbackRequest struct {
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Outcome     string  `json:"outcome,omitempty"`
	WarningID   string  `json:"warning_id,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	SubmittedBy string  `json:"submitted_by,omitempty"`
}

// FeedbackResponse acknowledges a feedback submission.
type FeedbackResponse struct {
	Applied bool `json:"applied"`
}

// WarningsListRequest filters warning listing.
type WarningsListRequest struct {
	Category string `json:"category,omitempty"`
	Status   string `json:"status,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// WarningsListResponse contains journaled warnings.
type WarningsListResponse struct {
	Warnings []Warning `json:"warnings"`
}

// WarningsClearRequest removes all journaled warnings.
type WarningsClearRequest struct{}

// WarningsClearResponse reports the number of removed entries.
type WarningsClearResponse struct {
	Removed int64 `json:"removed"`
}

// SweepRequest forces a deduplication sweep.
type SweepRequest struct{}

// SweepResponse contains warnings surfaced by the sweep.
type SweepResponse struct {
	Warnings []Warning `json:"warnings,omitempty"`
}

// AttentionResetRequest resets learned weights. An empty category list
// resets every category.
type AttentionResetRequest struct {
	Categories []string `json:"categories,omitempty"`
}

// AttentionResetResponse acknowledges the reset.
type AttentionResetResponse struct {
	Reset bool `json:"reset"`
}

// FeedbackStatsRequest fetches journaled feedback counts.
type FeedbackStatsRequest struct{}

// FeedbackStatsResponse reports feedback counts keyed by outcome.
type FeedbackStatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	TablesPresent    []string `json:"tables_present"`
	MissingTables    []string `json:"missing_tables"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalWarnings    int      `json:"total_warnings"`
	Error            string   `json:"error"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges the shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// LogTailRequest reads daemon log lines. A negative offset returns the
// last Limit lines; otherwise reading resumes at Offset.
type LogTailRequest struct {
	Offset int64 `json:"offset"`
	Limit  int   `json:"limit"`
}

// LogTailResponse carries log lines and the offset for the next read.
type LogTailResponse struct {
	Lines  []string `json:"lines,omitempty"`
	Offset int64    `json:"offset"`
}
