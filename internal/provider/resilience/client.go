// Package resilience provides the resilient HTTP transport used for
// calls to external data services: retry with exponential backoff,
// circuit breaking, client-side rate limiting, and per-client health
// bookkeeping.
package resilience

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// Transport errors.
var (
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrRateLimited is returned when the client-side rate limiter
	// cannot admit the request before the context expires.
	ErrRateLimited = errors.New("client-side rate limit exceeded")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client in breaker state and health output.
	Name string

	// Timeout for individual HTTP calls. Default: 10s.
	Timeout time.Duration

	// MaxRetries caps retry attempts for transient failures. Default: 3.
	MaxRetries uint64

	// InitialInterval is the first retry backoff delay. Default: 100ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff delay. Default: 5s.
	MaxInterval time.Duration

	// RequestsPerSecond throttles outgoing requests when positive.
	// Zero disables client-side rate limiting.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size. Default: 1 when rate
	// limiting is enabled.
	Burst int

	// Breaker overrides the default circuit breaker settings.
	Breaker *BreakerConfig
}

// Client is an HTTP client that retries transient failures, trips a
// circuit breaker on sustained errors, and optionally throttles its
// own request rate.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	limiter    *rate.Limiter
	retry      retryConfig

	mu          sync.Mutex
	lastSuccess time.Time
	lastFailure time.Time
	lastError   string
}

type retryConfig struct {
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// NewClient creates a resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	breakerCfg := cfg.Breaker
	if breakerCfg == nil {
		defaults := DefaultBreakerConfig(cfg.Name)
		breakerCfg = &defaults
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    newBreaker(*breakerCfg),
		limiter:    limiter,
		retry: retryConfig{
			maxRetries:      cfg.MaxRetries,
			initialInterval: cfg.InitialInterval,
			maxInterval:     cfg.MaxInterval,
		},
	}
}

// Do executes the request with rate limiting, circuit breaking and
// retries. Network errors and 5xx responses are retried; 4xx responses
// are returned as-is. The caller closes the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Join(ErrRateLimited, err)
		}
	}

	policy := c.backoffPolicy(ctx)

	var lastResp *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, doErr := c.httpClient.Do(req.Clone(ctx))
			if doErr != nil {
				return nil, doErr
			}
			// 5xx counts as a breaker failure and is retryable.
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				discard(lastResp)
				lastResp = resp
			}
			return err
		}

		discard(lastResp)
		lastResp = resp
		return nil
	}

	err := backoff.Retry(attempt, policy)
	if err != nil {
		c.recordFailure(err)
		// A 5xx that exhausted retries still carries a usable response.
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	c.recordSuccess()
	return lastResp, nil
}

// discard drains and closes a superseded response body so its
// connection returns to the pool instead of being torn down.
func discard(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *Client) backoffPolicy(ctx context.Context) backoff.BackOffContext {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.initialInterval
	bo.MaxInterval = c.retry.maxInterval
	bo.MaxElapsedTime = 0 // retries are bounded by count, not elapsed time
	return backoff.WithContext(backoff.WithMaxRetries(bo, c.retry.maxRetries), ctx)
}

func (c *Client) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSuccess = time.Now()
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFailure = time.Now()
	if err != nil {
		c.lastError = err.Error()
	}
}

// ServerError represents an HTTP 5xx response treated as a failure.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}
