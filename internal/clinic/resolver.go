package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gpneto/Clinica360-sub004/internal/cache"
	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// settingsCache is the slice of the cache facade the resolver needs.
type settingsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) bool
}

// settingsLoader is the store side of the resolver.
type settingsLoader interface {
	Load(ctx context.Context, tenantID string) (Settings, bool, error)
}

// Resolver serves tenant settings cache-first. Entries carry no TTL: they
// live until an explicit Invalidate or Refresh after a settings write, so a
// cache outage degrades latency, never correctness.
type Resolver struct {
	cache  settingsCache
	store  settingsLoader
	logger *logging.Logger
}

// NewResolver builds a resolver over the cache facade and the settings store.
func NewResolver(c settingsCache, store settingsLoader, logger *logging.Logger) *Resolver {
	if c == nil {
		panic("clinic: cache cannot be nil")
	}
	if store == nil {
		panic("clinic: settings store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{cache: c, store: store, logger: logger.Component("settings")}
}

func settingsCacheKey(tenantID string) string {
	return fmt.Sprintf("company:%s:settings", tenantID)
}

// Resolve returns the effective settings for a tenant. The store is the
// source of truth; a store failure falls back to the defaults so inbound
// messages keep getting answered.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) Settings {
	if tenantID == "" {
		return DefaultSettings()
	}
	key := settingsCacheKey(tenantID)

	if raw, found, err := r.cache.Get(ctx, key); err == nil && found {
		var s Settings
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		r.logger.Warn("corrupt settings cache entry, reloading", "tenant_id", tenantID)
	} else if err != nil {
		r.logger.Warn("settings cache read failed, loading from store", "tenant_id", tenantID, "error", err)
	}

	settings, _, err := r.store.Load(ctx, tenantID)
	if err != nil {
		r.logger.Error("settings load failed, using defaults", "tenant_id", tenantID, "error", err)
		return DefaultSettings()
	}

	r.populate(ctx, tenantID, settings)
	return settings
}

// Invalidate drops the cached entry for a tenant. The next Resolve reloads
// from the store.
func (r *Resolver) Invalidate(ctx context.Context, tenantID string) {
	if tenantID == "" {
		return
	}
	r.cache.Delete(ctx, settingsCacheKey(tenantID))
	r.logger.Info("settings cache invalidated", "tenant_id", tenantID)
}

// Refresh reloads a tenant's settings from the store and rewrites the cache
// entry in place. Settings-editing surfaces call this after a write.
func (r *Resolver) Refresh(ctx context.Context, tenantID string) (Settings, error) {
	if tenantID == "" {
		return Settings{}, fmt.Errorf("clinic: tenantID required")
	}
	settings, _, err := r.store.Load(ctx, tenantID)
	if err != nil {
		return Settings{}, err
	}
	r.populate(ctx, tenantID, settings)
	return settings, nil
}

func (r *Resolver) populate(ctx context.Context, tenantID string, settings Settings) {
	raw, err := json.Marshal(settings)
	if err != nil {
		r.logger.Warn("settings marshal failed, skipping cache populate", "tenant_id", tenantID, "error", err)
		return
	}
	if err := r.cache.Set(ctx, settingsCacheKey(tenantID), raw, cache.NoExpiry); err != nil {
		r.logger.Warn("settings cache populate failed", "tenant_id", tenantID, "error", err)
	}
}
