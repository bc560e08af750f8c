// Package engine hosts the detection fusion pipeline.
//
// One Engine serves one playback session. Analyzer events enter through
// Process, which runs attention weighting, route fusion, validation,
// per-category temporal regularization, and warning deduplication, then
// journals whatever surfaces. Scene observations and viewer feedback enter
// through ObserveScene and Feedback. Background tickers flush merged
// warnings and persist learned attention weights.
//
// Concurrency follows the category boundary: each category gets a shard
// with its own mutex around its regularizer history, the attention
// mechanism and deduplicator carry their own locks, and the engine-level
// lock guards only lifecycle state and the shard map itself.
package engine
