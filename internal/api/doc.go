// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates internal pipeline models into transport-friendly
// DTOs that detector clients and status UIs can render without coupling to
// internal types.
//
// # Key Types
//
// Warning: transport representation of a surfaced content warning.
//
// DetectionResponse: the pipeline decision for one ingested event, including
// the surfaced warning when one cleared deduplication.
//
// EngineStatus: pipeline running state plus per-component telemetry.
//
// DaemonStatus: aggregated runtime information including preflight results
// and database health.
//
// # Converters
//
// FromWarning: warnings.Warning -> Warning with RFC3339 timestamps.
//
// FromStatusSummary: engine.StatusSummary -> EngineStatus with category and
// route keys flattened to strings.
//
// FromProcessResult: engine.ProcessResult -> DetectionResponse carrying the
// validation reasoning trail.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (trigger.Category, warnings.Status) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds; playback positions stay float64
// seconds to match the ingestion format.
package api
