// Package trigger defines the content-warning category vocabulary and the
// authoritative per-category route table.
//
// Each category carries one immutable record: its fusion route, modality
// weights (summing to 1.0), validation level, temporal pattern, and the scene
// types that contextually reinforce it. The router, validator, regularizer,
// and attention mechanism all read this single table, so the per-category
// intent cannot drift between components. Learned weight state lives in the
// attention package, never here.
package trigger
