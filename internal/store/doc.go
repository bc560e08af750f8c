// Package store persists vigil's durable state in SQLite: the journal of
// surfaced warnings, the learned attention weights the daemon snapshots on a
// timer, and the append-only feedback log. The fusion pipeline itself never
// touches the database; the engine journals results after decisions are made.
package store
