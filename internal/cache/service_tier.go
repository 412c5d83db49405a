package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

const defaultServiceTimeout = 5 * time.Second

// ServiceTier talks to the shared cache service over HTTP. It is the
// preferred tier: a serverless caller pays no connection setup cost.
type ServiceTier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.Logger
}

// ServiceConfig controls the HTTP cache client.
type ServiceConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewServiceTier creates the HTTP-backed tier. Returns nil when no endpoint
// is configured; the facade treats a nil remote tier as "not configured".
func NewServiceTier(cfg ServiceConfig) *ServiceTier {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultServiceTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &ServiceTier{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger.Component("cache.service"),
	}
}

type getRequest struct {
	Key string `json:"key"`
}

type getResponse struct {
	Found bool            `json:"found"`
	Value json.RawMessage `json:"value"`
}

type setRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	TTL   *int64          `json:"ttl,omitempty"`
}

type setResponse struct {
	Success bool `json:"success"`
}

type deleteRequest struct {
	Key string `json:"key"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Get fetches a key. A 503 or transport failure is ErrUnavailable; the
// caller decides whether a not-found is a miss or an outage.
func (t *ServiceTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var out getResponse
	if err := t.post(ctx, "/cache/get", getRequest{Key: key}, &out); err != nil {
		return nil, false, err
	}
	if !out.Found {
		return nil, false, nil
	}
	return out.Value, true, nil
}

// Set stores a key. TTL zero is forwarded as "no expiry" by omitting the
// ttl field, matching the cache service contract.
func (t *ServiceTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	req := setRequest{Key: key, Value: value}
	if ttl > 0 {
		seconds := int64(ttl / time.Second)
		req.TTL = &seconds
	}
	var out setResponse
	if err := t.post(ctx, "/cache/set", req, &out); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("%w: key %q", ErrWriteRejected, key)
	}
	return nil
}

func (t *ServiceTier) Delete(ctx context.Context, key string) (bool, error) {
	var out deleteResponse
	if err := t.post(ctx, "/cache/delete", deleteRequest{Key: key}, &out); err != nil {
		return false, err
	}
	return out.Deleted, nil
}

// Ping probes GET /health and reports healthy only on an explicit
// "healthy" status.
func (t *ServiceTier) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("cache: build health request: %w", err)
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrUnavailable, resp.StatusCode)
	}
	var out healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%w: decode health: %v", ErrUnavailable, err)
	}
	if out.Status != "healthy" {
		return fmt.Errorf("%w: health status %q", ErrUnavailable, out.Status)
	}
	return nil
}

func (t *ServiceTier) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("cache: marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("cache: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("X-API-Key", t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%w: service returned 503", ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cache: %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cache: decode %s response: %w", path, err)
	}
	return nil
}
