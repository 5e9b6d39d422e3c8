package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omprakash24d/mockify-auth/internal/models"
)

// MemoryLoginAttemptRepository keeps attempts in process memory. Backs the
// unit tests; production uses the Postgres repository.
type MemoryLoginAttemptRepository struct {
	mu       sync.Mutex
	attempts []*models.LoginAttempt
}

func NewMemoryLoginAttemptRepository() *MemoryLoginAttemptRepository {
	return &MemoryLoginAttemptRepository{
		attempts: make([]*models.LoginAttempt, 0),
	}
}

func (r *MemoryLoginAttemptRepository) RecordAttempt(_ context.Context, attempt *models.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *attempt
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.attempts = append(r.attempts, &stored)
	return nil
}

func (r *MemoryLoginAttemptRepository) RecentAttempts(_ context.Context, email string, since time.Time) ([]*models.LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*models.LoginAttempt, 0)
	for _, attempt := range r.attempts {
		if attempt.Email == email && !attempt.AttemptTime.Before(since) {
			copied := *attempt
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

func (r *MemoryLoginAttemptRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.attempts[:0]
	var deleted int64
	for _, attempt := range r.attempts {
		if attempt.ExpiresAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, attempt)
	}
	r.attempts = kept
	return deleted, nil
}
