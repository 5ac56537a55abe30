// Package llm provides an HTTP client for the model gateway: embedding
// invocations and streaming chat completions.
package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"context"

	"github.com/tmammadov17503/rag-ml-ops/internal/config"
	"go.uber.org/zap"
)

// Client calls the model gateway over HTTP. Embedding calls use a bounded
// timeout; streaming calls run until the stream ends or the context is done.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	stream   *http.Client
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces both underlying HTTP clients (for tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
		c.stream = h
	}
}

// NewClient creates a gateway client from service config. The bearer token is
// read from the env var named by cfg.APIKeyEnv; when unset, requests carry no
// Authorization header.
func NewClient(cfg *config.ServiceConfig, opts ...Option) *Client {
	c := &Client{
		endpoint: cfg.EndpointOrDefault(),
		apiKey:   os.Getenv(cfg.APIKeyEnv),
		http:     &http.Client{Timeout: 30 * time.Second},
		stream:   &http.Client{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type embedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
}

// InvokeEmbedding embeds one text at the given dimension. The response body
// must match one of the known shapes (see decodeEmbedding); anything else is
// a hard error, never silently defaulted.
func (c *Client) InvokeEmbedding(ctx context.Context, text, modelID string, dimensions int) ([]float32, error) {
	body, err := json.Marshal(embedRequest{InputText: text, Dimensions: dimensions})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}
	u := fmt.Sprintf("%s/model/%s/invoke", c.endpoint, url.PathEscape(modelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embed response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, snippet(payload))
	}
	vec, err := decodeEmbedding(payload)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("embedded text", zap.Int("dimensions", len(vec)))
	return vec, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// snippet truncates a payload for inclusion in error messages.
func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
