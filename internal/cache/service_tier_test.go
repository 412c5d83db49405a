package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCacheService(t *testing.T, apiKey string) (*httptest.Server, map[string]json.RawMessage) {
	t.Helper()
	store := map[string]json.RawMessage{}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/cache/get", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req struct {
			Key string `json:"key"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		value, found := store[req.Key]
		json.NewEncoder(w).Encode(map[string]any{"found": found, "value": value})
	})
	mux.HandleFunc("/cache/set", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
			TTL   *int64          `json:"ttl"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		store[req.Key] = req.Value
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	mux.HandleFunc("/cache/delete", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key string `json:"key"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		_, found := store[req.Key]
		delete(store, req.Key)
		json.NewEncoder(w).Encode(map[string]bool{"deleted": found})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestServiceTierRoundTrip(t *testing.T) {
	srv, _ := newCacheService(t, "secret")
	tier := NewServiceTier(ServiceConfig{BaseURL: srv.URL, APIKey: "secret"})
	require.NotNil(t, tier)
	ctx := context.Background()

	_, found, err := tier.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tier.Set(ctx, "k", []byte(`{"a":1}`), NoExpiry))

	value, found, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"a":1}`, string(value))

	deleted, err := tier.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = tier.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestServiceTierPing(t *testing.T) {
	srv, _ := newCacheService(t, "secret")
	tier := NewServiceTier(ServiceConfig{BaseURL: srv.URL, APIKey: "secret"})
	assert.NoError(t, tier.Ping(context.Background()))
}

func TestServiceTierUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tier := NewServiceTier(ServiceConfig{BaseURL: srv.URL, Timeout: time.Second})
	ctx := context.Background()

	_, _, err := tier.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, tier.Set(ctx, "k", []byte(`1`), NoExpiry), ErrUnavailable)
	assert.Error(t, tier.Ping(ctx))
}

func TestServiceTierWriteRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": false})
	}))
	defer srv.Close()

	tier := NewServiceTier(ServiceConfig{BaseURL: srv.URL})
	err := tier.Set(context.Background(), "k", []byte(`1`), NoExpiry)
	assert.ErrorIs(t, err, ErrWriteRejected)
}

func TestNewServiceTierUnconfigured(t *testing.T) {
	assert.Nil(t, NewServiceTier(ServiceConfig{BaseURL: "  "}))
}
