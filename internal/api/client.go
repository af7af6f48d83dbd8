// Package api is the authenticated REST client for the El Patio backend.
// Payload schemas are owned by the backend; this package only normalizes
// transport concerns: bearer attachment, error shaping, and 401 teardown.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/elpatio/backoffice/internal/metrics"
	"github.com/elpatio/backoffice/pkg/logger"
)

// ErrSessionExpired is returned when the backend answers 401. The session has
// already been torn down through the configured hook by the time callers see
// this error.
var ErrSessionExpired = errors.New("session expired")

// TokenProvider exposes the current bearer token. The client re-reads it on
// every request rather than caching a copy.
type TokenProvider interface {
	Token() string
}

// Client talks to the backend REST API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenProvider
	onUnauthorized func()
	limiter        *rate.Limiter
	log            *logger.Logger
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Tokens  TokenProvider
	// OnUnauthorized runs once per 401 response, before ErrSessionExpired is
	// returned. Typically wired to Session.Logout.
	OnUnauthorized func()
	HTTPClient     *http.Client
	// RequestsPerSecond caps outbound request rate; 0 disables the limiter.
	RequestsPerSecond float64
	Logger            *logger.Logger
}

// New creates a backend API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("Tokens provider is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: NewRetryTransport(nil, DefaultRetryConfig()),
		}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("api")
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:     httpClient,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		limiter:        limiter,
		log:            log,
	}, nil
}

// apiError is the backend's error envelope. Either field may carry the
// human-readable message.
type apiError struct {
	Message string `json:"mensaje"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequest("error")
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		metrics.APIRequest("error")
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.APIRequest("error")
		c.log.WithField("path", path).Warn("backend rejected credential, tearing session down")
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrSessionExpired
	}

	if resp.StatusCode >= 400 {
		metrics.APIRequest("error")
		var decoded apiError
		if err := json.Unmarshal(payload, &decoded); err == nil {
			if decoded.Message != "" {
				return errors.New(decoded.Message)
			}
			if decoded.Error != "" {
				return errors.New(decoded.Error)
			}
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	metrics.APIRequest("ok")
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
