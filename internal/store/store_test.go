package store_test

import (
	"context"
	"testing"
	"time"

	"vigil/internal/attention"
	"vigil/internal/store"
	"vigil/internal/testsupport"
	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

func sampleWarning(id string, category trigger.Category, start float64) warnings.Warning {
	return warnings.Warning{
		ID:          id,
		Category:    category,
		Confidence:  82.5,
		Description: "blood detected (visual)",
		StartTime:   start,
		EndTime:     start + 1.5,
		SubmittedBy: warnings.SubmitterFusion,
		Status:      warnings.StatusActive,
		Sources:     []string{"audio", "visual"},
	}
}

func TestSaveWarningRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	saved := sampleWarning("warn-1", trigger.Category("blood"), 12.0)
	if err := st.SaveWarning(ctx, saved); err != nil {
		t.Fatalf("SaveWarning failed: %v", err)
	}

	listed, err := st.ListWarnings(ctx, store.WarningFilter{})
	if err != nil {
		t.Fatalf("ListWarnings failed: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(listed))
	}
	got := listed[0]
	if got.ID != saved.ID || got.Category != saved.Category || got.Status != saved.Status {
		t.Fatalf("unexpected warning: %#v", got)
	}
	if got.Confidence != saved.Confidence {
		t.Fatalf("expected confidence %v, got %v", saved.Confidence, got.Confidence)
	}
	if got.StartTime != saved.StartTime || got.EndTime != saved.EndTime {
		t.Fatalf("unexpected span [%v, %v]", got.StartTime, got.EndTime)
	}
	if got.Description != saved.Description || got.SubmittedBy != saved.SubmittedBy {
		t.Fatalf("unexpected text fields: %#v", got)
	}
	if len(got.Sources) != 2 || got.Sources[0] != "audio" || got.Sources[1] != "visual" {
		t.Fatalf("unexpected sources: %v", got.Sources)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be populated")
	}
}

func TestSaveWarningReplacesExisting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	w := sampleWarning("warn-replace", trigger.Category("gunshots"), 3.0)
	if err := st.SaveWarning(ctx, w); err != nil {
		t.Fatalf("SaveWarning failed: %v", err)
	}

	w.Status = warnings.StatusMerged
	w.Confidence = 91
	w.EndTime = 6.5
	if err := st.SaveWarning(ctx, w); err != nil {
		t.Fatalf("SaveWarning (replace) failed: %v", err)
	}

	count, err := st.CountWarnings(ctx)
	if err != nil {
		t.Fatalf("CountWarnings failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row after replace, got %d", count)
	}

	listed, err := st.ListWarnings(ctx, store.WarningFilter{})
	if err != nil {
		t.Fatalf("ListWarnings failed: %v", err)
	}
	if listed[0].Status != warnings.StatusMerged || listed[0].Confidence != 91 || listed[0].EndTime != 6.5 {
		t.Fatalf("replace did not stick: %#v", listed[0])
	}
}

func TestListWarningsFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entries := []warnings.Warning{
		sampleWarning("warn-a", trigger.Category("blood"), 10.0),
		sampleWarning("warn-b", trigger.Category("blood"), 20.0),
		sampleWarning("warn-c", trigger.Category("gunshots"), 15.0),
	}
	entries[2].Status = warnings.StatusMerged
	for _, w := range entries {
		if err := st.SaveWarning(ctx, w); err != nil {
			t.Fatalf("SaveWarning failed: %v", err)
		}
	}

	byCategory, err := st.ListWarnings(ctx, store.WarningFilter{Category: trigger.Category("blood")})
	if err != nil {
		t.Fatalf("ListWarnings by category failed: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("expected 2 blood warnings, got %d", len(byCategory))
	}
	if byCategory[0].ID != "warn-b" || byCategory[1].ID != "warn-a" {
		t.Fatalf("expected newest playback position first, got %s then %s", byCategory[0].ID, byCategory[1].ID)
	}

	byStatus, err := st.ListWarnings(ctx, store.WarningFilter{Status: warnings.StatusMerged})
	if err != nil {
		t.Fatalf("ListWarnings by status failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "warn-c" {
		t.Fatalf("unexpected merged warnings: %#v", byStatus)
	}

	limited, err := st.ListWarnings(ctx, store.WarningFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListWarnings with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "warn-b" {
		t.Fatalf("unexpected limited result: %#v", limited)
	}

	counts, err := st.WarningCounts(ctx)
	if err != nil {
		t.Fatalf("WarningCounts failed: %v", err)
	}
	if counts[trigger.Category("blood")] != 2 || counts[trigger.Category("gunshots")] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestClearWarnings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, id := range []string{"warn-1", "warn-2", "warn-3"} {
		if err := st.SaveWarning(ctx, sampleWarning(id, trigger.Category("violence"), float64(i))); err != nil {
			t.Fatalf("SaveWarning failed: %v", err)
		}
	}

	removed, err := st.ClearWarnings(ctx)
	if err != nil {
		t.Fatalf("ClearWarnings failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 rows removed, got %d", removed)
	}

	count, err := st.CountWarnings(ctx)
	if err != nil {
		t.Fatalf("CountWarnings failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty journal, got %d rows", count)
	}
}

func TestAttentionRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snapshot := map[trigger.Category]attention.CategoryStats{
		trigger.Category("blood"): {
			Learned:             trigger.Weights{Visual: 0.7, Audio: 0.2, Text: 0.1},
			Performance:         attention.Performance{Visual: 0.8, Audio: 0.15, Text: 0.05},
			TotalDetections:     12,
			CorrectDetections:   9,
			IncorrectDetections: 3,
			LastUpdated:         time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		},
		trigger.Category("gunshots"): {
			Learned:         trigger.Weights{Visual: 0.2, Audio: 0.7, Text: 0.1},
			Performance:     attention.Performance{Visual: 0.25, Audio: 0.65, Text: 0.1},
			TotalDetections: 4,
		},
	}
	if err := st.SaveAttention(ctx, snapshot); err != nil {
		t.Fatalf("SaveAttention failed: %v", err)
	}

	loaded, err := st.LoadAttention(ctx)
	if err != nil {
		t.Fatalf("LoadAttention failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(loaded))
	}
	blood := loaded[trigger.Category("blood")]
	if blood.Learned.Visual != 0.7 || blood.Learned.Audio != 0.2 || blood.Learned.Text != 0.1 {
		t.Fatalf("unexpected learned weights: %#v", blood.Learned)
	}
	if blood.Performance.Visual != 0.8 {
		t.Fatalf("unexpected performance: %#v", blood.Performance)
	}
	if blood.TotalDetections != 12 || blood.CorrectDetections != 9 || blood.IncorrectDetections != 3 {
		t.Fatalf("unexpected counters: %#v", blood)
	}
	if !blood.LastUpdated.Equal(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last updated: %v", blood.LastUpdated)
	}

	if err := st.ClearAttention(ctx, trigger.Category("blood")); err != nil {
		t.Fatalf("ClearAttention (selective) failed: %v", err)
	}
	remaining, err := st.LoadAttention(ctx)
	if err != nil {
		t.Fatalf("LoadAttention after clear failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 remaining category, got %d", len(remaining))
	}
	if _, ok := remaining[trigger.Category("gunshots")]; !ok {
		t.Fatalf("expected gunshots to survive selective clear: %v", remaining)
	}

	if err := st.ClearAttention(ctx); err != nil {
		t.Fatalf("ClearAttention (all) failed: %v", err)
	}
	empty, err := st.LoadAttention(ctx)
	if err != nil {
		t.Fatalf("LoadAttention after full clear failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty snapshot, got %v", empty)
	}
}

func TestSaveAttentionEmptySnapshotIsNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if err := st.SaveAttention(context.Background(), nil); err != nil {
		t.Fatalf("SaveAttention with empty snapshot failed: %v", err)
	}
}

func TestFeedbackJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	events := []store.FeedbackEvent{
		{Category: trigger.Category("blood"), Type: "confirm", Outcome: "correct", Confidence: 88, WarningID: "warn-1", SubmittedBy: "viewer"},
		{Category: trigger.Category("blood"), Type: "dismiss", Outcome: "incorrect", Confidence: 40},
		{Category: trigger.Category("gunshots"), Type: "confirm", Outcome: "correct", Confidence: 95},
	}
	var lastID int64
	for _, event := range events {
		id, err := st.RecordFeedback(ctx, event)
		if err != nil {
			t.Fatalf("RecordFeedback failed: %v", err)
		}
		if id <= lastID {
			t.Fatalf("expected increasing ids, got %d after %d", id, lastID)
		}
		lastID = id
	}

	counts, err := st.FeedbackCounts(ctx)
	if err != nil {
		t.Fatalf("FeedbackCounts failed: %v", err)
	}
	if counts["correct"] != 2 || counts["incorrect"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	listed, err := st.ListFeedback(ctx, 2)
	if err != nil {
		t.Fatalf("ListFeedback failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 events, got %d", len(listed))
	}
	if listed[0].Category != trigger.Category("gunshots") {
		t.Fatalf("expected newest event first, got %#v", listed[0])
	}
	if listed[1].Type != "dismiss" || listed[1].Outcome != "incorrect" {
		t.Fatalf("unexpected second event: %#v", listed[1])
	}
	if listed[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to be populated")
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SaveWarning(ctx, sampleWarning("warn-health", trigger.Category("blood"), 1.0)); err != nil {
		t.Fatalf("SaveWarning failed: %v", err)
	}

	health, err := st.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable {
		t.Fatalf("expected healthy database: %#v", health)
	}
	if len(health.MissingTables) != 0 {
		t.Fatalf("expected no missing tables, got %v", health.MissingTables)
	}
	if !health.IntegrityCheck {
		t.Fatal("expected integrity check to pass")
	}
	if health.TotalWarnings != 1 {
		t.Fatalf("expected 1 journaled warning, got %d", health.TotalWarnings)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	if err := first.SaveWarning(ctx, sampleWarning("warn-persist", trigger.Category("blood"), 5.0)); err != nil {
		t.Fatalf("SaveWarning failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	listed, err := second.ListWarnings(ctx, store.WarningFilter{})
	if err != nil {
		t.Fatalf("ListWarnings after reopen failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != "warn-persist" {
		t.Fatalf("expected persisted warning, got %#v", listed)
	}
}
