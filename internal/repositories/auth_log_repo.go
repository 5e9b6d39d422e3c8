package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/database"
	"github.com/omprakash24d/mockify-auth/internal/models"
)

// AuthLogRepository persists the append-only auth event log in Postgres.
type AuthLogRepository struct {
	db *database.DB
}

// NewAuthLogRepository creates a new AuthLogRepository
func NewAuthLogRepository(db *database.DB) *AuthLogRepository {
	return &AuthLogRepository{db: db}
}

// Append inserts a log entry
func (r *AuthLogRepository) Append(ctx context.Context, entry *models.AuthLogEntry) error {
	query := `
		INSERT INTO auth_logs (event_type, status, email, error_type, message, user_agent, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.EventType,
		entry.Status,
		entry.Email,
		entry.ErrorType,
		entry.Message,
		entry.UserAgent,
		entry.SessionID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append auth log entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, most recent first
func (r *AuthLogRepository) Recent(ctx context.Context, limit int) ([]*models.AuthLogEntry, error) {
	query := `
		SELECT id, event_type, status, email, error_type, message, user_agent, session_id, created_at
		FROM auth_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth logs: %w", err)
	}
	defer rows.Close()

	return scanAuthLogRows(rows)
}

// Since returns entries at or after the given time, oldest first
func (r *AuthLogRepository) Since(ctx context.Context, since time.Time) ([]*models.AuthLogEntry, error) {
	query := `
		SELECT id, event_type, status, email, error_type, message, user_agent, session_id, created_at
		FROM auth_logs
		WHERE created_at >= $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth logs: %w", err)
	}
	defer rows.Close()

	return scanAuthLogRows(rows)
}

// TrimToCap deletes the oldest entries beyond max, keeping the newest ones
func (r *AuthLogRepository) TrimToCap(ctx context.Context, max int) (int64, error) {
	query := `
		DELETE FROM auth_logs
		WHERE id NOT IN (
			SELECT id FROM auth_logs ORDER BY created_at DESC, id DESC LIMIT $1
		)
	`

	result, err := r.db.Pool.Exec(ctx, query, max)
	if err != nil {
		return 0, fmt.Errorf("failed to trim auth logs: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteOlderThan removes entries older than the cutoff
func (r *AuthLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM auth_logs WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune auth logs: %w", err)
	}
	return result.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAuthLogRow(row rowScanner) (*models.AuthLogEntry, error) {
	var entry models.AuthLogEntry
	err := row.Scan(
		&entry.ID,
		&entry.EventType,
		&entry.Status,
		&entry.Email,
		&entry.ErrorType,
		&entry.Message,
		&entry.UserAgent,
		&entry.SessionID,
		&entry.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanAuthLogRows(rows interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}) ([]*models.AuthLogEntry, error) {
	entries := make([]*models.AuthLogEntry, 0)
	for rows.Next() {
		entry, err := scanAuthLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auth log entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auth log rows: %w", err)
	}
	return entries, nil
}
