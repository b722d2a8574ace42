package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUnavailable wraps every failed fetch: transport errors, timeouts,
// non-2xx statuses and an open breaker.
var ErrUnavailable = errors.New("remote unavailable")

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.Code)
}

// Config defines client behavior
type Config struct {
	Timeout   time.Duration
	Retries   int
	RateLimit float64 // Requests per second, 0 for unlimited
	UserAgent string
}

// DefaultConfig returns the store client defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   10 * time.Second,
		Retries:   1,
		UserAgent: "taskdock/1.0",
	}
}

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	resty    *resty.Client
	limiter  *rate.Limiter
	breaker  *resilience.Breaker
	log      *zap.Logger
	observer func(err error)
	mu       sync.RWMutex
}

// New creates a client for the remote store
func New(cfg Config, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	log = logging.OrNop(log)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(cfg.Retries, 0)
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), max(int(cfg.RateLimit), 1))
	}

	breaker := resilience.New("remote-store", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: limiter,
		breaker: breaker,
		log:     log,
	}
}

// WithObserver registers a callback invoked after every fetch
func (c *Client) WithObserver(fn func(err error)) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
	return c
}

// Get fetches url and returns the body
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := resilience.Call(c.breaker, func() ([]byte, error) {
		req, err := c.request(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := req.Get(url)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			return nil, &StatusError{URL: url, Code: resp.StatusCode()}
		}
		return resp.Body(), nil
	})

	c.observe(err)
	if err != nil {
		c.log.Debug("Remote fetch failed", zap.String("url", url), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return body, nil
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resty.R().SetContext(ctx), nil
}

func (c *Client) observe(err error) {
	c.mu.RLock()
	fn := c.observer
	c.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}
