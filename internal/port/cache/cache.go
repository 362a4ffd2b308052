// Package cache defines the key-value cache port used for project hook lists.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values. A ttl of zero means the implementation default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
