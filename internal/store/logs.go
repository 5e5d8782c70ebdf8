package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AppendLog appends one processing log entry for a book.
// The log is append-only; entries are only removed by a cascading
// book delete.
func (s *Store) AppendLog(ctx context.Context, bookID, stage, status, message string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_logs (book_id, stage, status, message, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		bookID, stage, status, nullString(message), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("append log for %s: %w", bookID, err)
	}
	return nil
}

// RecentLogs returns the most recent log entries for a book,
// newest first. limit <= 0 means all entries.
func (s *Store) RecentLogs(ctx context.Context, bookID string, limit int) ([]*LogEntry, error) {
	query := `
		SELECT id, book_id, stage, status, message, created_at
		FROM processing_logs WHERE book_id = ? ORDER BY id DESC`
	args := []any{bookID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent logs for %s: %w", bookID, err)
	}
	defer rows.Close()

	var result []*LogEntry
	for rows.Next() {
		var (
			e         LogEntry
			message   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.BookID, &e.Stage, &e.Status, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		e.Message = stringOr(message)
		if e.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}
