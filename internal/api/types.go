package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Warning describes a surfaced content warning in a transport-friendly format.
type Warning struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Confidence  float64  `json:"confidence"`
	Description string   `json:"description,omitempty"`
	StartTime   float64  `json:"startTime"`
	EndTime     float64  `json:"endTime"`
	SubmittedBy string   `json:"submittedBy,omitempty"`
	Status      string   `json:"status"`
	Sources     []string `json:"sources,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// WarningListResponse wraps a collection of warnings for API responses.
type WarningListResponse struct {
	Warnings []Warning `json:"warnings"`
}

// WarningCountsResponse provides journal totals keyed by category.
type WarningCountsResponse struct {
	Counts map[string]int `json:"counts"`
}

// WarningClearResponse reports the number of removed journal entries.
type WarningClearResponse struct {
	Removed int64 `json:"removed"`
}

// DetectionResponse reports the pipeline decision for one ingested event.
// Accepted is true only when a warning surfaced.
type DetectionResponse struct {
	Accepted   bool     `json:"accepted"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  []string `json:"reasoning,omitempty"`
	Warning    *Warning `json:"warning,omitempty"`
}

// SceneResponse acknowledges a scene observation.
type SceneResponse struct {
	Accepted bool `json:"accepted"`
}

// FeedbackResponse acknowledges a viewer feedback submission.
type FeedbackResponse struct {
	Applied bool `json:"applied"`
}

// ModalityWeights mirrors per-modality weighting in API payloads.
type ModalityWeights struct {
	Visual float64 `json:"visual"`
	Audio  float64 `json:"audio"`
	Text   float64 `json:"text"`
}

// AttentionState reports the learned weighting for one category.
type AttentionState struct {
	Learned             ModalityWeights `json:"learned"`
	Performance         ModalityWeights `json:"performance"`
	TotalDetections     uint64          `json:"totalDetections"`
	CorrectDetections   uint64          `json:"correctDetections"`
	IncorrectDetections uint64          `json:"incorrectDetections"`
	LastUpdated         string          `json:"lastUpdated,omitempty"`
}

// RouterStats summarizes routing telemetry.
type RouterStats struct {
	Routed    uint64            `json:"routed"`
	Fallbacks uint64            `json:"fallbacks"`
	ByRoute   map[string]uint64 `json:"byRoute,omitempty"`
}

// ValidatorStats summarizes validation telemetry.
type ValidatorStats struct {
	Validated   uint64 `json:"validated"`
	Passed      uint64 `json:"passed"`
	Rejected    uint64 `json:"rejected"`
	HardRejects uint64 `json:"hardRejects"`
	Penalized   uint64 `json:"penalized"`
}

// TemporalStats summarizes regularization telemetry across all categories.
type TemporalStats struct {
	Regularized   uint64 `json:"regularized"`
	Boosted       uint64 `json:"boosted"`
	Penalized     uint64 `json:"penalized"`
	SceneAdjusted uint64 `json:"sceneAdjusted"`
	Surfaced      uint64 `json:"surfaced"`
	Suppressed    uint64 `json:"suppressed"`
	Overrides     uint64 `json:"overrides"`
}

// DedupStats summarizes deduplication telemetry.
type DedupStats struct {
	Processed          uint64 `json:"processed"`
	Emitted            uint64 `json:"emitted"`
	MergedEmitted      uint64 `json:"mergedEmitted"`
	DuplicateIDs       uint64 `json:"duplicateIds"`
	RateLimited        uint64 `json:"rateLimited"`
	CooldownSuppressed uint64 `json:"cooldownSuppressed"`
	GroupSuppressed    uint64 `json:"groupSuppressed"`
	ActiveGroups       int    `json:"activeGroups"`
}

// EngineStatus summarizes pipeline execution state.
type EngineStatus struct {
	Running          bool                      `json:"running"`
	Categories       int                       `json:"categories"`
	ActiveShards     int                       `json:"activeShards"`
	EventsProcessed  uint64                    `json:"eventsProcessed"`
	WarningsSurfaced uint64                    `json:"warningsSurfaced"`
	ScenesObserved   uint64                    `json:"scenesObserved"`
	FeedbackApplied  uint64                    `json:"feedbackApplied"`
	LastEventTime    float64                   `json:"lastEventTime"`
	SceneCount       int                       `json:"sceneCount"`
	Router           RouterStats               `json:"router"`
	Validator        ValidatorStats            `json:"validator"`
	Temporal         TemporalStats             `json:"temporal"`
	Dedup            DedupStats                `json:"dedup"`
	Attention        map[string]AttentionState `json:"attention,omitempty"`
}

// PreflightCheck mirrors startup readiness reporting.
type PreflightCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DatabaseStatus captures warning-journal health.
type DatabaseStatus struct {
	Path           string   `json:"path"`
	Exists         bool     `json:"exists"`
	Readable       bool     `json:"readable"`
	SchemaVersion  int      `json:"schemaVersion"`
	TablesPresent  []string `json:"tablesPresent,omitempty"`
	MissingTables  []string `json:"missingTables,omitempty"`
	IntegrityCheck bool     `json:"integrityCheck"`
	TotalWarnings  int      `json:"totalWarnings"`
	Error          string   `json:"error,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool             `json:"running"`
	PID           int              `json:"pid"`
	DatabasePath  string           `json:"databasePath"`
	LockFilePath  string           `json:"lockFilePath"`
	SocketPath    string           `json:"socketPath"`
	APIBind       string           `json:"apiBind,omitempty"`
	Engine        EngineStatus     `json:"engine"`
	Database      DatabaseStatus   `json:"database"`
	WarningCounts map[string]int   `json:"warningCounts,omitempty"`
	Preflight     []PreflightCheck `json:"preflight,omitempty"`
}

// StatusLine is a labeled severity/detail pair rendered by status displays.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}
