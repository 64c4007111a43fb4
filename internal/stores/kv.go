package stores

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrKVNotFound indicates the key does not exist or its record expired.
	ErrKVNotFound = errors.New("key not found")
	// ErrKVUnavailable indicates the storage backend is unreachable.
	ErrKVUnavailable = errors.New("storage backend unavailable")
)

// KV is the minimal durable key-value surface shared by all session records.
// A ttl of zero means the value has no backend-enforced lifetime.
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
