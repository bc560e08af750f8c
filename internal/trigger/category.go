package trigger

import "strings"

// Category identifies one content-warning trigger category (e.g. "blood",
// "gunshots", "slurs"). The set of known categories is defined by the
// embedded route table; unknown categories route through the balanced
// fallback.
type Category string

// ParseCategory normalizes a raw category string.
func ParseCategory(value string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", false
	}
	return Category(normalized), true
}

// Route classifies how a category's evidence is fused across modalities.
type Route string

const (
	RouteVisualPrimary      Route = "visual-primary"
	RouteAudioPrimary       Route = "audio-primary"
	RouteTextPrimary        Route = "text-primary"
	RouteTemporalPattern    Route = "temporal-pattern"
	RouteMultiModalBalanced Route = "multi-modal-balanced"
)

var allRoutes = []Route{
	RouteVisualPrimary,
	RouteAudioPrimary,
	RouteTextPrimary,
	RouteTemporalPattern,
	RouteMultiModalBalanced,
}

var routeSet = func() map[Route]struct{} {
	set := make(map[Route]struct{}, len(allRoutes))
	for _, route := range allRoutes {
		set[route] = struct{}{}
	}
	return set
}()

// Routes returns every known route in declaration order.
func Routes() []Route {
	routes := make([]Route, len(allRoutes))
	copy(routes, allRoutes)
	return routes
}

// ParseRoute converts a string into a known Route.
func ParseRoute(value string) (Route, bool) {
	normalized := Route(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := routeSet[normalized]
	return normalized, ok
}

// ValidationLevel controls how many modalities must corroborate a detection
// before it may surface.
type ValidationLevel string

const (
	ValidationHighSensitivity ValidationLevel = "high-sensitivity"
	ValidationStandard        ValidationLevel = "standard"
	ValidationSingleModality  ValidationLevel = "single-modality-sufficient"
)

var allValidationLevels = []ValidationLevel{
	ValidationHighSensitivity,
	ValidationStandard,
	ValidationSingleModality,
}

var validationSet = func() map[ValidationLevel]struct{} {
	set := make(map[ValidationLevel]struct{}, len(allValidationLevels))
	for _, level := range allValidationLevels {
		set[level] = struct{}{}
	}
	return set
}()

// ParseValidationLevel converts a string into a known ValidationLevel.
func ParseValidationLevel(value string) (ValidationLevel, bool) {
	normalized := ValidationLevel(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := validationSet[normalized]
	return normalized, ok
}

// TemporalPattern describes how a category's signal typically evolves on the
// playback timeline.
type TemporalPattern string

const (
	PatternInstant      TemporalPattern = "instant"
	PatternGradualOnset TemporalPattern = "gradual-onset"
	PatternEscalation   TemporalPattern = "escalation"
	PatternSustained    TemporalPattern = "sustained"
)

var allPatterns = []TemporalPattern{
	PatternInstant,
	PatternGradualOnset,
	PatternEscalation,
	PatternSustained,
}

var patternSet = func() map[TemporalPattern]struct{} {
	set := make(map[TemporalPattern]struct{}, len(allPatterns))
	for _, pattern := range allPatterns {
		set[pattern] = struct{}{}
	}
	return set
}()

// ParseTemporalPattern converts a string into a known TemporalPattern.
func ParseTemporalPattern(value string) (TemporalPattern, bool) {
	normalized := TemporalPattern(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := patternSet[normalized]
	return normalized, ok
}

// Weights holds the per-modality fusion weights for one category. A valid
// entry sums to 1.0.
type Weights struct {
	Visual float64 `yaml:"visual"`
	Audio  float64 `yaml:"audio"`
	Text   float64 `yaml:"text"`
}

// Sum returns the total weight across modalities.
func (w Weights) Sum() float64 {
	return w.Visual + w.Audio + w.Text
}
