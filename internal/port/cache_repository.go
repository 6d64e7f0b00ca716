package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// GetJSON decodes a cached value into dst, returns false on a miss
	GetJSON(ctx context.Context, key string, dst any) (bool, error)

	// SetJSON stores v encoded as JSON for ttl
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error

	// Delete removes keys, missing keys are ignored
	Delete(ctx context.Context, keys ...string) error
}
