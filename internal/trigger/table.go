package trigger

import (
	_ "embed"
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// RouteConfig is the immutable per-category fusion record: how the category's
// evidence is weighted across modalities, how strictly it must be
// corroborated, and how its signal typically evolves over time. The attention
// mechanism learns its own weights separately; this table is never mutated.
type RouteConfig struct {
	Route      Route
	Weights    Weights
	Validation ValidationLevel
	Pattern    TemporalPattern
	// Scenes lists scene types whose context reinforces this category
	// (e.g. a "medical" scene reinforces "medical_procedures").
	Scenes []string
}

// MatchesScene reports whether the given scene type reinforces this category.
func (c RouteConfig) MatchesScene(sceneType string) bool {
	for _, scene := range c.Scenes {
		if scene == sceneType {
			return true
		}
	}
	return false
}

// Table is the authoritative category route table, loaded once from the
// embedded configuration. Both the router and the validator read it, so the
// per-category intent cannot drift between them.
type Table struct {
	entries map[Category]RouteConfig
	ordered []Category
}

type tableEntry struct {
	Route      string   `yaml:"route"`
	Weights    Weights  `yaml:"weights"`
	Validation string   `yaml:"validation"`
	Pattern    string   `yaml:"pattern"`
	Scenes     []string `yaml:"scenes"`
}

const weightSumTolerance = 1e-9

// LoadTable parses and validates the embedded category route table.
func LoadTable() (*Table, error) {
	var wrapper struct {
		Categories map[string]tableEntry `yaml:"categories"`
	}
	if err := yaml.Unmarshal(categoriesYAML, &wrapper); err != nil {
		return nil, fmt.Errorf("parse category table: %w", err)
	}
	if len(wrapper.Categories) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	entries := make(map[Category]RouteConfig, len(wrapper.Categories))
	ordered := make([]Category, 0, len(wrapper.Categories))
	for key, raw := range wrapper.Categories {
		category, ok := ParseCategory(key)
		if !ok {
			return nil, fmt.Errorf("category table: blank category key")
		}
		if _, exists := entries[category]; exists {
			return nil, fmt.Errorf("category table: duplicate entry for %q", category)
		}
		cfg, err := buildEntry(category, raw)
		if err != nil {
			return nil, err
		}
		entries[category] = cfg
		ordered = append(ordered, category)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	return &Table{entries: entries, ordered: ordered}, nil
}

func buildEntry(category Category, raw tableEntry) (RouteConfig, error) {
	route, ok := ParseRoute(raw.Route)
	if !ok {
		return RouteConfig{}, fmt.Errorf("category %q: unknown route %q", category, raw.Route)
	}
	validation, ok := ParseValidationLevel(raw.Validation)
	if !ok {
		return RouteConfig{}, fmt.Errorf("category %q: unknown validation level %q", category, raw.Validation)
	}
	pattern, ok := ParseTemporalPattern(raw.Pattern)
	if !ok {
		return RouteConfig{}, fmt.Errorf("category %q: unknown temporal pattern %q", category, raw.Pattern)
	}
	weights := raw.Weights
	if weights.Visual < 0 || weights.Audio < 0 || weights.Text < 0 {
		return RouteConfig{}, fmt.Errorf("category %q: negative modality weight", category)
	}
	if math.Abs(weights.Sum()-1.0) > weightSumTolerance {
		return RouteConfig{}, fmt.Errorf("category %q: weights sum to %.6f, want 1.0", category, weights.Sum())
	}
	return RouteConfig{
		Route:      route,
		Weights:    weights,
		Validation: validation,
		Pattern:    pattern,
		Scenes:     raw.Scenes,
	}, nil
}

// Lookup returns the route config for a category.
func (t *Table) Lookup(category Category) (RouteConfig, bool) {
	cfg, ok := t.entries[category]
	return cfg, ok
}

// Categories returns the known categories in sorted order.
func (t *Table) Categories() []Category {
	cp := make([]Category, len(t.ordered))
	copy(cp, t.ordered)
	return cp
}

// Len returns the number of configured categories.
func (t *Table) Len() int {
	return len(t.entries)
}

// Fallback returns the equal-weight balanced route used for categories the
// table does not know. Standard validation keeps unknown categories from
// surfacing on a single weak modality.
func Fallback() RouteConfig {
	return RouteConfig{
		Route:      RouteMultiModalBalanced,
		Weights:    Weights{Visual: 1.0 / 3, Audio: 1.0 / 3, Text: 1.0 / 3},
		Validation: ValidationStandard,
		Pattern:    PatternInstant,
	}
}
