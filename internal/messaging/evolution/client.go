// Package evolution implements the messaging transport against an Evolution
// API instance (WhatsApp gateway).
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// Config controls how the Evolution client behaves.
type Config struct {
	BaseURL    string
	APIKey     string
	Instance   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client sends WhatsApp messages through one Evolution API instance.
type Client struct {
	baseURL    string
	apiKey     string
	instance   string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured Client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("evolution: base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("evolution: API key is required")
	}
	if strings.TrimSpace(cfg.Instance) == "" {
		return nil, errors.New("evolution: instance name is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		instance:   cfg.Instance,
		httpClient: httpClient,
		logger:     logger.Component("evolution"),
	}, nil
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendTemplateRequest struct {
	Number string            `json:"number"`
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
}

type sendResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
}

// SendText delivers a plain text message and returns the provider message id.
func (c *Client) SendText(ctx context.Context, tenantID, recipient, body string) (string, error) {
	return c.post(ctx, tenantID, "/message/sendText/"+c.instance, sendTextRequest{
		Number: recipient,
		Text:   body,
	})
}

// SendTemplate delivers a named template message with parameters.
func (c *Client) SendTemplate(ctx context.Context, tenantID, recipient, templateName string, params map[string]string) (string, error) {
	return c.post(ctx, tenantID, "/message/sendTemplate/"+c.instance, sendTemplateRequest{
		Number: recipient,
		Name:   templateName,
		Params: params,
	})
}

func (c *Client) post(ctx context.Context, tenantID, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("evolution: failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("evolution: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("evolution: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("evolution: failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("evolution send rejected",
			"tenant_id", tenantID, "status", resp.StatusCode, "path", path)
		return "", fmt.Errorf("evolution: unexpected status %d", resp.StatusCode)
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("evolution: failed to decode response: %w", err)
	}
	return parsed.Key.ID, nil
}
