package api

import (
	"context"
	"strings"

	"vigil/internal/store"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

// WarningReader abstracts journal interactions needed for API queries.
type WarningReader interface {
	ListWarnings(ctx context.Context, filter store.WarningFilter) ([]warnings.Warning, error)
	WarningCounts(ctx context.Context) (map[trigger.Category]int, error)
	ClearWarnings(ctx context.Context) (int64, error)
}

// WarningService exposes journal operations returning API DTOs.
type WarningService struct {
	store WarningReader
}

// NewWarningService constructs a WarningService around the provided reader.
func NewWarningService(store WarningReader) *WarningService {
	if store == nil {
		return nil
	}
	return &WarningService{store: store}
}

// List returns journaled warnings filtered by category, status, and limit.
// Empty filter strings match everything.
func (s *WarningService) List(ctx context.Context, category, status string, limit int) ([]Warning, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	filter := store.WarningFilter{Limit: limit}
	if parsed, ok := trigger.ParseCategory(category); ok {
		filter.Category = parsed
	}
	if trimmed := strings.ToLower(strings.TrimSpace(status)); trimmed != "" {
		filter.Status = warnings.Status(trimmed)
	}
	list, err := s.store.ListWarnings(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromWarnings(list), nil
}

// Counts returns journal totals keyed by category string.
func (s *WarningService) Counts(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	counts, err := s.store.WarningCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(counts))
	for category, count := range counts {
		out[string(category)] = count
	}
	return out, nil
}

// Clear removes every journaled warning and reports how many were dropped.
func (s *WarningService) Clear(ctx context.Context) (int64, error) {
	if s == nil || s.store == nil {
		return 0, nil
	}
	return s.store.ClearWarnings(ctx)
}
