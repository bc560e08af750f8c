package engine

import (
	"math"

	"vigil/internal/fusion"
)

// Confidence scales accepted on the ingestion boundary. Internally every
// confidence lives on 0..100; analyzers that report 0..1 declare it with
// Scale and are normalized on entry.
const (
	ScalePercent = "percent"
	ScaleUnit    = "unit"
)

// SignalPayload is one analyzer reading for a single modality. Reliability
// is optional; zero means "not reported" and is treated as fully reliable.
type SignalPayload struct {
	Confidence  float64 `json:"confidence"`
	Reliability float64 `json:"reliability,omitempty"`
}

// DetectionEvent is the wire form of one multi-modal analyzer observation.
// Absent modalities stay nil, which is how the router knows to renormalize
// the remaining weights rather than average in a zero.
type DetectionEvent struct {
	Category  string         `json:"category"`
	Timestamp float64        `json:"timestamp"`
	Visual    *SignalPayload `json:"visual,omitempty"`
	Audio     *SignalPayload `json:"audio,omitempty"`
	Text      *SignalPayload `json:"text,omitempty"`
	Subtitle  string         `json:"subtitle,omitempty"`
	Scale     string         `json:"scale,omitempty"`
}

// Input converts the wire event into the fusion input form, normalizing
// unit-scale confidences onto the canonical 0..100 scale.
func (e DetectionEvent) Input() fusion.MultiModalInput {
	unit := e.Scale == ScaleUnit
	return fusion.MultiModalInput{
		Timestamp:    e.Timestamp,
		Visual:       e.Visual.signal(unit),
		Audio:        e.Audio.signal(unit),
		Text:         e.Text.signal(unit),
		SubtitleText: e.Subtitle,
	}
}

func (p *SignalPayload) signal(unit bool) *fusion.Signal {
	if p == nil {
		return nil
	}
	confidence := p.Confidence
	if unit {
		confidence = fusion.NormalizeUnit(confidence)
	} else {
		confidence = fusion.ClampConfidence(confidence)
	}
	return &fusion.Signal{Confidence: confidence, Reliability: p.Reliability}
}

// validate rejects events the pipeline cannot place on the timeline.
func (e DetectionEvent) validate() string {
	if math.IsNaN(e.Timestamp) || math.IsInf(e.Timestamp, 0) {
		return "timestamp must be finite"
	}
	switch e.Scale {
	case "", ScalePercent, ScaleUnit:
	default:
		return "scale must be \"percent\" or \"unit\""
	}
	return ""
}

// SceneEvent is the wire form of one scene-classifier observation.
type SceneEvent struct {
	ID    string  `json:"id,omitempty"`
	Type  string  `json:"type"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Feedback types accepted from viewers. Confirmations reinforce the
// modalities that produced the warning; dismissals and reports decay them.
const (
	FeedbackConfirm = "confirm"
	FeedbackDismiss = "dismiss"
	FeedbackReport  = "report"
)

// FeedbackRequest is the wire form of one viewer verdict on a surfaced
// warning. Outcome may override the type-derived outcome directly.
type FeedbackRequest struct {
	Category    string  `json:"category"`
	Type        string  `json:"type"`
	Outcome     string  `json:"outcome,omitempty"`
	WarningID   string  `json:"warning_id,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	SubmittedBy string  `json:"submitted_by,omitempty"`
}
