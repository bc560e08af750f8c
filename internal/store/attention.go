package store

import (
	"context"
	"database/sql"
	"fmt"

	"vigil/internal/attention"
	"vigil/internal/trigger"
)

// SaveAttention persists a learned-weight snapshot, replacing the stored
// state for every category in it. Categories absent from the snapshot keep
// their rows; use ClearAttention for a full reset.
func (s *Store) SaveAttention(ctx context.Context, snapshot map[trigger.Category]attention.CategoryStats) error {
	ctx = ensureContext(ctx)
	if len(snapshot) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attention tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for category, stats := range snapshot {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO attention_weights (
				category,
				visual_weight, audio_weight, text_weight,
				visual_performance, audio_performance, text_performance,
				total_detections, correct_detections, incorrect_detections,
				last_updated
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(category),
			stats.Learned.Visual,
			stats.Learned.Audio,
			stats.Learned.Text,
			stats.Performance.Visual,
			stats.Performance.Audio,
			stats.Performance.Text,
			stats.TotalDetections,
			stats.CorrectDetections,
			stats.IncorrectDetections,
			nullableTime(stats.LastUpdated),
		); err != nil {
			return fmt.Errorf("save attention weights for %s: %w", category, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attention tx: %w", err)
	}
	return nil
}

// LoadAttention returns the persisted learned-weight snapshot.
func (s *Store) LoadAttention(ctx context.Context) (map[trigger.Category]attention.CategoryStats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `
		SELECT category,
			visual_weight, audio_weight, text_weight,
			visual_performance, audio_performance, text_performance,
			total_detections, correct_detections, incorrect_detections,
			last_updated
		FROM attention_weights`)
	if err != nil {
		return nil, fmt.Errorf("load attention weights: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[trigger.Category]attention.CategoryStats)
	for rows.Next() {
		var (
			category   string
			stats      attention.CategoryStats
			updatedRaw sql.NullString
		)
		if err := rows.Scan(
			&category,
			&stats.Learned.Visual,
			&stats.Learned.Audio,
			&stats.Learned.Text,
			&stats.Performance.Visual,
			&stats.Performance.Audio,
			&stats.Performance.Text,
			&stats.TotalDetections,
			&stats.CorrectDetections,
			&stats.IncorrectDetections,
			&updatedRaw,
		); err != nil {
			return nil, err
		}
		if updatedRaw.Valid {
			if updated, err := parseTimeString(updatedRaw.String); err == nil {
				stats.LastUpdated = updated
			}
		}
		snapshot[trigger.Category(category)] = stats
	}
	return snapshot, rows.Err()
}

// ClearAttention deletes persisted learned weights. With a nil category list
// everything goes; otherwise only the named categories.
func (s *Store) ClearAttention(ctx context.Context, categories ...trigger.Category) error {
	ctx = ensureContext(ctx)
	if len(categories) == 0 {
		if _, err := s.execWithRetry(ctx, "DELETE FROM attention_weights"); err != nil {
			return fmt.Errorf("clear attention weights: %w", err)
		}
		return nil
	}
	for _, category := range categories {
		if _, err := s.execWithRetry(ctx, "DELETE FROM attention_weights WHERE category = ?", string(category)); err != nil {
			return fmt.Errorf("clear attention weights for %s: %w", category, err)
		}
	}
	return nil
}
