package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vigil/internal/trigger"
)

// FeedbackEvent is one journaled user verdict on a surfaced warning.
type FeedbackEvent struct {
	ID          int64
	Category    trigger.Category
	Type        string
	Outcome     string
	Confidence  float64
	WarningID   string
	SubmittedBy string
	CreatedAt   time.Time
}

// RecordFeedback appends a feedback event to the journal.
func (s *Store) RecordFeedback(ctx context.Context, event FeedbackEvent) (int64, error) {
	ctx = ensureContext(ctx)

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(ctx, `
		INSERT INTO feedback_events (category, feedback_type, outcome, confidence, warning_id, submitted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(event.Category),
		event.Type,
		event.Outcome,
		event.Confidence,
		nullableString(event.WarningID),
		nullableString(event.SubmittedBy),
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("record feedback: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("feedback insert id: %w", err)
	}
	return id, nil
}

// FeedbackCounts returns journaled feedback counts grouped by outcome.
func (s *Store) FeedbackCounts(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT outcome, COUNT(1) FROM feedback_events GROUP BY outcome")
	if err != nil {
		return nil, fmt.Errorf("feedback counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

// ListFeedback returns the newest feedback events, most recent first.
func (s *Store) ListFeedback(ctx context.Context, limit int) ([]FeedbackEvent, error) {
	ctx = ensureContext(ctx)

	query := `
		SELECT id, category, feedback_type, outcome, confidence, warning_id, submitted_by, created_at
		FROM feedback_events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackEvent
	for rows.Next() {
		var (
			event       FeedbackEvent
			category    string
			warningID   sql.NullString
			submittedBy sql.NullString
			createdRaw  sql.NullString
		)
		if err := rows.Scan(
			&event.ID,
			&category,
			&event.Type,
			&event.Outcome,
			&event.Confidence,
			&warningID,
			&submittedBy,
			&createdRaw,
		); err != nil {
			return nil, err
		}
		event.Category = trigger.Category(category)
		event.WarningID = warningID.String
		event.SubmittedBy = submittedBy.String
		if created, err := parseTimeString(createdRaw.String); err == nil {
			event.CreatedAt = created
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
