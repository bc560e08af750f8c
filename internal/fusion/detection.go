package fusion

import "vigil/internal/trigger"

// Contributions records how much of the fused confidence each modality
// supplied. Each value is the raw modality confidence scaled by the
// renormalized route weight, so a contribution never exceeds the raw
// confidence and the three values sum to the fused confidence.
type Contributions struct {
	Visual float64
	Audio  float64
	Text   float64
}

// For returns the contribution for one modality.
func (c Contributions) For(m Modality) float64 {
	switch m {
	case ModalityVisual:
		return c.Visual
	case ModalityAudio:
		return c.Audio
	case ModalityText:
		return c.Text
	}
	return 0
}

// Sum returns the total contribution, which equals the fused confidence.
func (c Contributions) Sum() float64 {
	return c.Visual + c.Audio + c.Text
}

// CountAbove returns how many contributions exceed the given floor.
func (c Contributions) CountAbove(floor float64) int {
	count := 0
	for _, m := range allModalities {
		if c.For(m) > floor {
			count++
		}
	}
	return count
}

// TemporalContext carries the category's expected signal shape and, once the
// regularizer has seen the detection, how long the signal has been observed
// continuously.
type TemporalContext struct {
	Pattern  trigger.TemporalPattern
	Duration float64
}

// Detection is the routed form of one fusion cycle: the weighted confidence,
// the route that produced it, and the per-modality breakdown the validator
// and attention mechanism consume. Detections live only for the duration of
// one pipeline pass.
type Detection struct {
	Category      trigger.Category
	Timestamp     float64
	Confidence    float64
	Route         trigger.Route
	Contributions Contributions

	// ValidationPassed is the router's coarse pre-check. The authoritative
	// accept/reject decision comes from Validator.Validate.
	ValidationPassed bool

	Temporal TemporalContext
}
