package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omprakash24d/mockify-auth/internal/models"
)

// MemoryAuthLogRepository keeps log entries in process memory, appended in
// arrival order. Backs the unit tests; production uses the Postgres
// repository.
type MemoryAuthLogRepository struct {
	mu      sync.Mutex
	entries []*models.AuthLogEntry
}

func NewMemoryAuthLogRepository() *MemoryAuthLogRepository {
	return &MemoryAuthLogRepository{
		entries: make([]*models.AuthLogEntry, 0),
	}
}

func (r *MemoryAuthLogRepository) Append(_ context.Context, entry *models.AuthLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.entries = append(r.entries, &stored)
	return nil
}

func (r *MemoryAuthLogRepository) Recent(_ context.Context, limit int) ([]*models.AuthLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > len(r.entries) {
		limit = len(r.entries)
	}

	recent := make([]*models.AuthLogEntry, 0, limit)
	for i := len(r.entries) - 1; i >= len(r.entries)-limit; i-- {
		copied := *r.entries[i]
		recent = append(recent, &copied)
	}
	return recent, nil
}

func (r *MemoryAuthLogRepository) Since(_ context.Context, since time.Time) ([]*models.AuthLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]*models.AuthLogEntry, 0)
	for _, entry := range r.entries {
		if !entry.Timestamp.Before(since) {
			copied := *entry
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

func (r *MemoryAuthLogRepository) TrimToCap(_ context.Context, max int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) <= max {
		return 0, nil
	}

	trimmed := int64(len(r.entries) - max)
	r.entries = append(r.entries[:0:0], r.entries[len(r.entries)-max:]...)
	return trimmed, nil
}

func (r *MemoryAuthLogRepository) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var deleted int64
	for _, entry := range r.entries {
		if entry.Timestamp.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}
	r.entries = kept
	return deleted, nil
}
