// Package infra provides shared infrastructure components used across
// the application: caching, the process-wide request gate, and HTTP
// utilities with retry.
package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// --- Errors ---

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Request gate ---

// Gate is the shared outbound-request gate. All fetches against the
// regulator's endpoints must Acquire before issuing a request, so the
// process as a whole stays within the fair-use request rate. The
// underlying token bucket synchronizes its clock internally; a single
// Gate is safe for use from any number of workers.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate creates a gate allowing perSecond requests per second with a
// burst of one (strict inter-request spacing).
func NewGate(perSecond int) *Gate {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Gate{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Acquire blocks until a request slot is available or ctx is cancelled.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// --- HTTP client with retry ---

// ClientConfig holds HTTP client behaviour settings.
type ClientConfig struct {
	UserAgent      string
	RequestTimeout time.Duration
	RetryAttempts  int           // total attempts per request, minimum 1
	RetryBaseDelay time.Duration // doubled after each failed attempt
}

// Client performs gated, retrying GET requests.
type Client struct {
	cfg  ClientConfig
	gate *Gate
	http *http.Client
}

// NewClient creates a client that acquires gate before every request.
func NewClient(cfg ClientConfig, gate *Gate) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	return &Client{
		cfg:  cfg,
		gate: gate,
		http: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Get fetches url with retry and bounded exponential backoff. Transport
// errors and 5xx/429 responses are retried up to the attempt cap; 4xx
// responses (other than 429) are returned immediately since repeating
// them cannot succeed. The returned error wraps the last failure.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	delay := c.cfg.RetryBaseDelay

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		body, err := c.doGet(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if herr, ok := err.(*ErrHTTP); ok {
			if herr.StatusCode >= 400 && herr.StatusCode < 500 && herr.StatusCode != http.StatusTooManyRequests {
				return nil, err
			}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("GET %s failed after %d attempts: %w", url, c.cfg.RetryAttempts, lastErr)
}

// doGet performs a single gated GET request.
func (c *Client) doGet(ctx context.Context, url string) ([]byte, error) {
	if err := c.gate.Acquire(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Accept-Encoding stays unset so the transport negotiates gzip and
	// decompresses the body itself; setting it manually hands us raw
	// gzip bytes.
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(snippet),
		}
	}
	return io.ReadAll(resp.Body)
}

// --- Simple in-memory cache ---

// CacheEntry holds a cached value with expiration.
type CacheEntry struct {
	Value     any
	ExpiresAt time.Time
}

// Cache is a simple thread-safe in-memory cache with TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
}

// NewCache creates a new cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a value from the cache. Returns nil, false if not found or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{
		Value:     value,
		ExpiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}
