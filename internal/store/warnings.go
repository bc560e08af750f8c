package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"vigil/internal/trigger"
	"vigil/internal/warnings"
)

const warningColumns = "id, category, confidence, description, start_time, end_time, submitted_by, status, sources_json, created_at, updated_at"

// SaveWarning journals a surfaced warning. Saving the same id again replaces
// the row, which covers the merged-warning update path.
func (s *Store) SaveWarning(ctx context.Context, w warnings.Warning) error {
	ctx = ensureContext(ctx)

	var sourcesJSON any
	if len(w.Sources) > 0 {
		encoded, err := json.Marshal(w.Sources)
		if err != nil {
			return fmt.Errorf("encode warning sources: %w", err)
		}
		sourcesJSON = string(encoded)
	}

	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := w.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.execWithRetry(ctx, `
		INSERT OR REPLACE INTO warnings (`+warningColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID,
		string(w.Category),
		w.Confidence,
		nullableString(w.Description),
		w.StartTime,
		w.EndTime,
		nullableString(w.SubmittedBy),
		string(w.Status),
		sourcesJSON,
		createdAt.Format(time.RFC3339Nano),
		updatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save warning: %w", err)
	}
	return nil
}

// WarningFilter narrows ListWarnings. Zero values mean "all".
type WarningFilter struct {
	Category trigger.Category
	Status   warnings.Status
	Limit    int
}

// ListWarnings returns journaled warnings, newest playback position first.
func (s *Store) ListWarnings(ctx context.Context, filter WarningFilter) ([]warnings.Warning, error) {
	ctx = ensureContext(ctx)

	query := "SELECT " + warningColumns + " FROM warnings"
	var (
		clauses []string
		args    []any
	)
	if filter.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	defer rows.Close()

	var out []warnings.Warning
	for rows.Next() {
		w, err := scanWarning(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CountWarnings returns the number of journaled warnings.
func (s *Store) CountWarnings(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM warnings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count warnings: %w", err)
	}
	return count, nil
}

// WarningCounts returns journaled warning counts grouped by category.
func (s *Store) WarningCounts(ctx context.Context) (map[trigger.Category]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(1) FROM warnings GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("warning counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[trigger.Category]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[trigger.Category(category)] = count
	}
	return counts, rows.Err()
}

// ClearWarnings deletes the warning journal and reports how many rows went.
func (s *Store) ClearWarnings(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx, "DELETE FROM warnings")
	if err != nil {
		return 0, fmt.Errorf("clear warnings: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear warnings rows affected: %w", err)
	}
	return removed, nil
}

func scanWarning(scanner interface{ Scan(dest ...any) error }) (warnings.Warning, error) {
	var (
		id          string
		category    string
		confidence  float64
		description sql.NullString
		startTime   float64
		endTime     float64
		submittedBy sql.NullString
		status      string
		sourcesJSON sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&category,
		&confidence,
		&description,
		&startTime,
		&endTime,
		&submittedBy,
		&status,
		&sourcesJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return warnings.Warning{}, err
	}

	w := warnings.Warning{
		ID:          id,
		Category:    trigger.Category(category),
		Confidence:  confidence,
		Description: description.String,
		StartTime:   startTime,
		EndTime:     endTime,
		SubmittedBy: submittedBy.String,
		Status:      warnings.Status(status),
	}
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &w.Sources); err != nil {
			return warnings.Warning{}, fmt.Errorf("decode warning sources: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		w.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		w.UpdatedAt = updated
	}
	return w, nil
}
