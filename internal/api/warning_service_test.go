package api

import (
	"context"
	"errors"
	"testing"

	"vigil/internal/store"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

type mockWarningReader struct {
	warnings   []warnings.Warning
	counts     map[trigger.Category]int
	removed    int64
	listErr    error
	countsErr  error
	clearErr   error
	lastFilter store.WarningFilter
}

func (m *mockWarningReader) ListWarnings(_ context.Context, filter store.WarningFilter) ([]warnings.Warning, error) {
	m.lastFilter = filter
	return m.warnings, m.listErr
}

func (m *mockWarningReader) WarningCounts(context.Context) (map[trigger.Category]int, error) {
	return m.counts, m.countsErr
}

func (m *mockWarningReader) ClearWarnings(context.Context) (int64, error) {
	return m.removed, m.clearErr
}

func TestWarningService_List(t *testing.T) {
	reader := &mockWarningReader{
		warnings: []warnings.Warning{{
			ID:       "w-1",
			Category: trigger.Category("violence"),
			Status:   warnings.StatusActive,
		}},
	}
	svc := NewWarningService(reader)

	got, err := svc.List(context.Background(), "Violence", "ACTIVE", 5)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "w-1" {
		t.Fatalf("unexpected warnings: %+v", got)
	}
	if reader.lastFilter.Category != trigger.Category("violence") {
		t.Fatalf("expected normalized category filter, got %q", reader.lastFilter.Category)
	}
	if reader.lastFilter.Status != warnings.StatusActive {
		t.Fatalf("expected normalized status filter, got %q", reader.lastFilter.Status)
	}
	if reader.lastFilter.Limit != 5 {
		t.Fatalf("expected limit 5, got %d", reader.lastFilter.Limit)
	}
}

func TestWarningService_ListUnfiltered(t *testing.T) {
	reader := &mockWarningReader{}
	svc := NewWarningService(reader)
	if _, err := svc.List(context.Background(), "", "", 0); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if reader.lastFilter.Category != "" || reader.lastFilter.Status != "" {
		t.Fatalf("expected empty filter, got %+v", reader.lastFilter)
	}
}

func TestWarningService_ListError(t *testing.T) {
	errSentinel := errors.New("boom")
	svc := NewWarningService(&mockWarningReader{listErr: errSentinel})
	_, err := svc.List(context.Background(), "", "", 0)
	if !errors.Is(err, errSentinel) {
		t.Fatalf("expected error %v, got %v", errSentinel, err)
	}
}

func TestWarningService_Counts(t *testing.T) {
	svc := NewWarningService(&mockWarningReader{counts: map[trigger.Category]int{
		trigger.Category("blood"):    2,
		trigger.Category("violence"): 1,
	}})
	got, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts returned error: %v", err)
	}
	if got["blood"] != 2 || got["violence"] != 1 {
		t.Fatalf("unexpected counts: %v", got)
	}
}

func TestWarningService_Clear(t *testing.T) {
	svc := NewWarningService(&mockWarningReader{removed: 4})
	removed, err := svc.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if removed != 4 {
		t.Fatalf("expected 4 removed, got %d", removed)
	}
}

func TestWarningService_NilReader(t *testing.T) {
	if NewWarningService(nil) != nil {
		t.Fatal("expected nil service for nil reader")
	}
	var svc *WarningService
	if got, err := svc.List(context.Background(), "", "", 0); err != nil || got != nil {
		t.Fatalf("nil service List should be a no-op, got %v / %v", got, err)
	}
}
