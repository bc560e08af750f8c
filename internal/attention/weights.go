package attention

import "vigil/internal/trigger"

// Learned weight bounds. These are structural invariants of the mechanism,
// not tuning knobs: no modality may be silenced entirely or allowed to
// dominate fusion outright, however lopsided the feedback gets.
const (
	MinWeight = 0.05
	MaxWeight = 0.90
)

// Weight triples are handled internally as arrays in modality order
// (visual, audio, text) so the pipeline steps can loop instead of repeating
// per-field arithmetic.

func toArray(w trigger.Weights) [3]float64 {
	return [3]float64{w.Visual, w.Audio, w.Text}
}

func fromArray(a [3]float64) trigger.Weights {
	return trigger.Weights{Visual: a[0], Audio: a[1], Text: a[2]}
}

func clampWeight(v float64) float64 {
	if v < MinWeight {
		return MinWeight
	}
	if v > MaxWeight {
		return MaxWeight
	}
	return v
}

// boundedNormalize projects a weight triple onto the unit simplex while
// keeping every component inside [MinWeight, MaxWeight]. Components that hit
// a bound are pinned there and the remainder is redistributed over the free
// ones; with three components this settles in at most three passes.
func boundedNormalize(values [3]float64) [3]float64 {
	var fixed [3]bool
	for range values {
		freeSum := 0.0
		fixedSum := 0.0
		freeCount := 0
		for i, v := range values {
			if fixed[i] {
				fixedSum += v
			} else {
				freeSum += v
				freeCount++
			}
		}
		if freeCount == 0 {
			break
		}
		target := 1.0 - fixedSum
		if freeSum <= 0 {
			share := target / float64(freeCount)
			for i := range values {
				if !fixed[i] {
					values[i] = share
				}
			}
		} else {
			scale := target / freeSum
			for i := range values {
				if !fixed[i] {
					values[i] *= scale
				}
			}
		}
		pinned := false
		for i := range values {
			if fixed[i] {
				continue
			}
			if values[i] < MinWeight {
				values[i] = MinWeight
				fixed[i] = true
				pinned = true
			} else if values[i] > MaxWeight {
				values[i] = MaxWeight
				fixed[i] = true
				pinned = true
			}
		}
		if !pinned {
			break
		}
	}
	return values
}

// normalizeWeights clamps and renormalizes a stored weight triple for use.
func normalizeWeights(w trigger.Weights) trigger.Weights {
	a := toArray(w)
	for i := range a {
		a[i] = clampWeight(a[i])
	}
	return fromArray(boundedNormalize(a))
}
