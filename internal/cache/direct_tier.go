package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

const (
	keyPrefix        = "cache:"
	defaultOpTimeout = 5 * time.Second
)

// DirectTier is the fallback: a direct Redis connection. Every operation is
// bounded by an op timeout so a cold or refused connection fails fast
// instead of hanging; the client dials lazily on first use.
type DirectTier struct {
	client    *redis.Client
	opTimeout time.Duration
	logger    *logging.Logger
}

// NewDirectTier wraps an already-constructed redis client.
func NewDirectTier(client *redis.Client, opTimeout time.Duration, logger *logging.Logger) *DirectTier {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectTier{
		client:    client,
		opTimeout: opTimeout,
		logger:    logger.Component("cache.direct"),
	}
}

func (t *DirectTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if t.client == nil {
		return nil, false, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	value, err := t.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %q: %v", ErrUnavailable, key, err)
	}
	return value, true, nil
}

func (t *DirectTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if t.client == nil {
		return ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	// TTL zero means no expiry, which go-redis expresses as expiration 0.
	if err := t.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (t *DirectTier) Delete(ctx context.Context, key string) (bool, error) {
	if t.client == nil {
		return false, ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	deleted, err := t.client.Del(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: delete %q: %v", ErrUnavailable, key, err)
	}
	return deleted > 0, nil
}

func (t *DirectTier) Ping(ctx context.Context) error {
	if t.client == nil {
		return ErrUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, t.opTimeout)
	defer cancel()

	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}
