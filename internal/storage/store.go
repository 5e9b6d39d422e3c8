package storage

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key has no value or the value expired.
var ErrKeyNotFound = errors.New("key not found")

// SnapshotStore is a small key-value store for durable gateway state:
// session snapshots and OAuth redirect markers. Values are opaque strings;
// a zero TTL means no expiry.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
