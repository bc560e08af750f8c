package fusion

import "math"

// Modality identifies one analyzer channel.
type Modality string

const (
	ModalityVisual Modality = "visual"
	ModalityAudio  Modality = "audio"
	ModalityText   Modality = "text"
)

var allModalities = []Modality{ModalityVisual, ModalityAudio, ModalityText}

// Modalities returns every modality in fusion order.
func Modalities() []Modality {
	modalities := make([]Modality, len(allModalities))
	copy(modalities, allModalities)
	return modalities
}

// Signal is a single analyzer's reading for one modality at one point on the
// playback timeline. Confidence uses the canonical 0..100 scale. Reliability
// is 0..1 and describes the analyzer's own signal quality (degraded video,
// muffled audio); zero means unreported and is treated as fully reliable.
type Signal struct {
	Confidence  float64
	Reliability float64
}

// EffectiveReliability maps an unreported reliability to 1.0 and clamps the
// rest into the unit interval.
func (s Signal) EffectiveReliability() float64 {
	if s.Reliability <= 0 {
		return 1.0
	}
	return math.Min(s.Reliability, 1.0)
}

// MultiModalInput carries the per-modality confidences for one fusion cycle.
// A nil pointer means the modality is absent, which is not the same as a
// zero confidence: absent modalities are excluded from the weighted average
// entirely and the remaining weights are renormalized.
type MultiModalInput struct {
	Timestamp    float64
	Visual       *Signal
	Audio        *Signal
	Text         *Signal
	SubtitleText string
}

// Signal returns the reading for one modality and whether it is present.
func (in MultiModalInput) Signal(m Modality) (Signal, bool) {
	switch m {
	case ModalityVisual:
		if in.Visual != nil {
			return *in.Visual, true
		}
	case ModalityAudio:
		if in.Audio != nil {
			return *in.Audio, true
		}
	case ModalityText:
		if in.Text != nil {
			return *in.Text, true
		}
	}
	return Signal{}, false
}

// PresentCount returns how many modalities supplied a reading.
func (in MultiModalInput) PresentCount() int {
	count := 0
	for _, m := range allModalities {
		if _, ok := in.Signal(m); ok {
			count++
		}
	}
	return count
}

// MaxConfidence returns the strongest raw confidence across present
// modalities, or zero when none are present.
func (in MultiModalInput) MaxConfidence() float64 {
	highest := 0.0
	for _, m := range allModalities {
		sig, ok := in.Signal(m)
		if !ok {
			continue
		}
		if c := ClampConfidence(sig.Confidence); c > highest {
			highest = c
		}
	}
	return highest
}

// ClampConfidence bounds a confidence to the canonical 0..100 scale. NaN
// collapses to zero so downstream arithmetic stays total.
func ClampConfidence(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return math.Max(0, math.Min(100, value))
}

// NormalizeUnit converts a unit-interval confidence to the canonical 0..100
// scale. Callers holding 0..100 values must not pass them through here.
func NormalizeUnit(value float64) float64 {
	return ClampConfidence(value * 100)
}
