// Package fusion combines per-modality analyzer confidences into routed,
// validated detections.
//
// The Router looks up a category's route in the trigger table, renormalizes
// the modality weights over the modalities actually present, and produces a
// Detection with its per-modality contribution breakdown. The Validator then
// applies the category's acceptance rules (how many modalities must agree and
// at what confidence) and returns a pass/fail result with a reasoning trail.
// Both operations are total: missing configuration falls back to the balanced
// route and missing modalities are renormalized away, never treated as zero.
package fusion
