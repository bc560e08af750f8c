// Package warnings defines the surfaced warning model and the deduplicator
// that stands between the fusion pipeline and presentation.
//
// Warnings carry time-sortable ULID ids. The Deduplicator is the last gate
// before a warning reaches the UI: it drops replayed ids, enforces a
// per-category rate limit over a sliding minute, holds a cooldown between
// bursts, and groups near-simultaneous warnings into time buckets where the
// configured strategy decides what survives. Under merge-all the first
// warning of a burst surfaces immediately and the periodic sweep follows up
// with one merged warning summarizing the whole group.
package warnings
