package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gpneto/Clinica360-sub004/internal/observability/metrics"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

const healthProbeInterval = 60 * time.Second

// Facade is the tiered cache: the HTTP service tier is preferred when
// configured, the direct tier is the fallback. The health probe result is
// memoized so ambiguous remote replies can be disambiguated without probing
// on every call.
type Facade struct {
	remote Tier // nil when the service tier is not configured
	direct Tier
	logger *logging.Logger
	m      *metrics.CacheMetrics
	now    func() time.Time

	mu        sync.Mutex
	healthy   bool
	checkedAt time.Time
}

// NewFacade builds the tiered facade. remote may be nil (a typed-nil
// *ServiceTier is treated the same).
func NewFacade(remote *ServiceTier, direct Tier, m *metrics.CacheMetrics, logger *logging.Logger) *Facade {
	if logger == nil {
		logger = logging.Default()
	}
	f := &Facade{
		direct: direct,
		logger: logger.Component("cache"),
		m:      m,
		now:    time.Now,
	}
	if remote != nil {
		f.remote = remote
	}
	return f
}

// ServiceConfigured reports whether the remote tier exists at all.
func (f *Facade) ServiceConfigured() bool {
	return f.remote != nil
}

// ServiceAvailable reports the memoized health of the remote tier,
// refreshing the probe when the cached result is older than a minute.
func (f *Facade) ServiceAvailable(ctx context.Context) bool {
	if f.remote == nil {
		return false
	}
	f.mu.Lock()
	if !f.checkedAt.IsZero() && f.now().Sub(f.checkedAt) < healthProbeInterval {
		healthy := f.healthy
		f.mu.Unlock()
		return healthy
	}
	f.mu.Unlock()

	healthy := f.remote.Ping(ctx) == nil

	f.mu.Lock()
	f.healthy = healthy
	f.checkedAt = f.now()
	f.mu.Unlock()

	if !healthy {
		f.logger.Warn("cache service unhealthy, direct tier takes over")
	}
	return healthy
}

// probeNow bypasses the memoized result and refreshes it.
func (f *Facade) probeNow(ctx context.Context) bool {
	if f.remote == nil {
		return false
	}
	healthy := f.remote.Ping(ctx) == nil
	f.mu.Lock()
	f.healthy = healthy
	f.checkedAt = f.now()
	f.mu.Unlock()
	return healthy
}

func (f *Facade) markUnhealthy() {
	f.mu.Lock()
	f.healthy = false
	f.checkedAt = f.now()
	f.mu.Unlock()
}

// Get returns the cached value for key, or found=false on a miss. A remote
// nil result is ambiguous: if the memoized probe still reports healthy it is
// a legitimate miss, otherwise the direct tier is consulted.
func (f *Facade) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.remote != nil {
		value, found, err := f.remote.Get(ctx, key)
		switch {
		case err == nil && found:
			f.m.ObserveOp("get", "service", "hit")
			return value, true, nil
		case err == nil:
			if f.ServiceAvailable(ctx) {
				f.m.ObserveOp("get", "service", "miss")
				return nil, false, nil
			}
			f.logger.Info("cache service went unavailable, falling back to direct tier", "key", key)
		default:
			f.logger.Warn("cache service get failed, falling back", "key", key, "error", err)
			f.markUnhealthy()
		}
		f.m.ObserveOp("get", "service", "fallback")
	}

	value, found, err := f.direct.Get(ctx, key)
	if err != nil {
		f.m.ObserveOp("get", "direct", "error")
		return nil, false, err
	}
	if found {
		f.m.ObserveOp("get", "direct", "hit")
	} else {
		f.m.ObserveOp("get", "direct", "miss")
	}
	return value, found, nil
}

// Set stores key=value. A healthy remote tier that rejects the write is a
// genuine failure and is surfaced; only a concurrently-confirmed outage
// falls through to the direct tier.
func (f *Facade) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.remote != nil && f.ServiceAvailable(ctx) {
		err := f.remote.Set(ctx, key, value, ttl)
		if err == nil {
			f.m.ObserveOp("set", "service", "ok")
			return nil
		}
		if errors.Is(err, ErrWriteRejected) {
			// A rejected write on a healthy service is a genuine failure;
			// probe again to rule out a concurrent outage before surfacing.
			if f.probeNow(ctx) {
				f.m.ObserveOp("set", "service", "rejected")
				return err
			}
			f.logger.Info("cache service went unavailable mid-write, falling back", "key", key)
		} else {
			f.logger.Warn("cache service set failed, falling back", "key", key, "error", err)
			f.markUnhealthy()
		}
		f.m.ObserveOp("set", "service", "fallback")
	}

	if err := f.direct.Set(ctx, key, value, ttl); err != nil {
		f.m.ObserveOp("set", "direct", "error")
		return err
	}
	f.m.ObserveOp("set", "direct", "ok")
	return nil
}

// Delete removes key from whichever tier answers. Failures are logged, not
// propagated: callers re-populate on the next read.
func (f *Facade) Delete(ctx context.Context, key string) bool {
	if f.remote != nil && f.ServiceAvailable(ctx) {
		deleted, err := f.remote.Delete(ctx, key)
		if err == nil {
			f.m.ObserveOp("delete", "service", "ok")
			return deleted
		}
		f.logger.Warn("cache service delete failed, falling back", "key", key, "error", err)
		f.markUnhealthy()
		f.m.ObserveOp("delete", "service", "fallback")
	}

	deleted, err := f.direct.Delete(ctx, key)
	if err != nil {
		f.logger.Warn("direct cache delete failed", "key", key, "error", err)
		f.m.ObserveOp("delete", "direct", "error")
		return false
	}
	f.m.ObserveOp("delete", "direct", "ok")
	return deleted
}
