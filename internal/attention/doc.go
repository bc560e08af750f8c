// Package attention adapts the route table's static modality weights with
// online user feedback.
//
// The Mechanism keeps per-category learned state seeded lazily from the
// table's base weights. Each fusion cycle asks Compute for the weights to
// use: learned values adjusted for analyzer reliability, cross-modal
// agreement, and per-modality confidence, then clamped and renormalized so
// the triple always sums to one. Feedback flows in through RecordOutcome
// with an asymmetric rule: correct calls pull weights toward the modalities
// that carried them, incorrect calls decay the modalities that caused them.
// State persists only when the host serializes Snapshot through the store.
package attention
