// Package temporal smooths per-category detection streams over the playback
// timeline and makes the final surface/suppress decision.
//
// Each category owns one Regularizer holding a short rolling history. A new
// detection is scored for coherence against the history inside the adjacent
// window, boosted when the neighbourhood agrees, damped when it spikes past
// the jump threshold, and blended through an EMA. Scene context from the
// shared SceneTimeline nudges categories whose route table entry lists the
// active scene type as an affinity. A detection surfaces when it is coherent
// with its neighbourhood, sustained past the minimum run duration, or so
// confident that suppressing it would be indefensible.
package temporal
