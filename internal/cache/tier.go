package cache

import (
	"context"
	"errors"
	"time"
)

// NoExpiry caches a value until it is explicitly invalidated.
const NoExpiry time.Duration = 0

var (
	// ErrUnavailable indicates the tier could not be reached within its bounds.
	ErrUnavailable = errors.New("cache: tier unavailable")
	// ErrWriteRejected indicates a reachable tier refused the write.
	ErrWriteRejected = errors.New("cache: write rejected")
)

// Tier is a single key-value cache backend. Values are opaque JSON blobs;
// callers own serialization.
type Tier interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}
