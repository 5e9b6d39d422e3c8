package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/omprakash24d/mockify-auth/internal/database"
	"github.com/omprakash24d/mockify-auth/internal/models"
)

// LoginAttemptRepository persists login attempts in Postgres.
type LoginAttemptRepository struct {
	db *database.DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// RecordAttempt records a login attempt
func (r *LoginAttemptRepository) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (email, ip_address, user_agent, attempt_time, success, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		attempt.Email,
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.AttemptTime,
		attempt.Success,
		attempt.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns attempts for an email within the window, oldest
// first. Entries past the window are simply never read; DeleteExpired does
// the physical cleanup.
func (r *LoginAttemptRepository) RecentAttempts(ctx context.Context, email string, since time.Time) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, email, ip_address, user_agent, attempt_time, success, expires_at
		FROM login_attempts
		WHERE email = $1 AND attempt_time >= $2
		ORDER BY attempt_time ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, email, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query login attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0)
	for rows.Next() {
		var attempt models.LoginAttempt
		if err := rows.Scan(
			&attempt.ID,
			&attempt.Email,
			&attempt.IPAddress,
			&attempt.UserAgent,
			&attempt.AttemptTime,
			&attempt.Success,
			&attempt.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		attempts = append(attempts, &attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating login attempts: %w", err)
	}
	return attempts, nil
}

// DeleteExpired removes attempts whose expiry has passed
func (r *LoginAttemptRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM login_attempts WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired login attempts: %w", err)
	}
	return result.RowsAffected(), nil
}
