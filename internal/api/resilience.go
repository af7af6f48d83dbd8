package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"
)

// RetryConfig configures transient-failure retries on the REST transport.
type RetryConfig struct {
	MaxRetries           int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	Jitter               float64
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns the defaults used by the client.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// ErrCircuitOpen is returned while the breaker is refusing requests.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

// circuitBreaker trips after consecutive transport failures so a dead backend
// is not hammered by the polling fallback.
type circuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	successThreshold int
	timeout          time.Duration

	state     circuitState
	failures  int
	successes int
	openedAt  time.Time
}

func newCircuitBreaker() *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: 5,
		successThreshold: 2,
		timeout:          30 * time.Second,
	}
}

func (cb *circuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == circuitOpen {
		if time.Since(cb.openedAt) > cb.timeout {
			cb.state = circuitHalfOpen
			cb.successes = 0
			return nil
		}
		return ErrCircuitOpen
	}
	return nil
}

func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		cb.failures = 0
	case circuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.state = circuitClosed
			cb.failures = 0
		}
	}
}

func (cb *circuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.state = circuitOpen
			cb.openedAt = time.Now()
		}
	case circuitHalfOpen:
		cb.state = circuitOpen
		cb.openedAt = time.Now()
	}
}

// RetryTransport is an http.RoundTripper adding bounded retries with
// exponential backoff and a circuit breaker in front of the base transport.
type RetryTransport struct {
	base    http.RoundTripper
	cfg     RetryConfig
	breaker *circuitBreaker
}

// NewRetryTransport wraps base (nil means http.DefaultTransport).
func NewRetryTransport(base http.RoundTripper, cfg RetryConfig) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{
		base:    base,
		cfg:     cfg,
		breaker: newCircuitBreaker(),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.breaker.allow(); err != nil {
		return nil, err
	}

	var (
		resp    *http.Response
		lastErr error
	)

	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(t.backoff(attempt)):
			}
			req = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, lastErr = t.base.RoundTrip(req)
		if lastErr != nil {
			if retryableError(lastErr) {
				continue
			}
			t.breaker.recordFailure()
			return nil, lastErr
		}

		if t.retryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("retryable status %d", resp.StatusCode)
			resp.Body.Close()
			continue
		}

		t.breaker.recordSuccess()
		return resp, nil
	}

	t.breaker.recordFailure()
	return nil, lastErr
}

func (t *RetryTransport) backoff(attempt int) time.Duration {
	backoff := float64(t.cfg.InitialBackoff) * math.Pow(t.cfg.BackoffMultiplier, float64(attempt-1))
	if backoff > float64(t.cfg.MaxBackoff) {
		backoff = float64(t.cfg.MaxBackoff)
	}
	if t.cfg.Jitter > 0 {
		backoff += backoff * t.cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(backoff)
}

func (t *RetryTransport) retryableStatus(code int) bool {
	for _, retryable := range t.cfg.RetryableStatusCodes {
		if code == retryable {
			return true
		}
	}
	return false
}

func retryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
