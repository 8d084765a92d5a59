package httpclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kosarica/catalog-service/internal/httpclient/ratelimit"
)

// Client is an HTTP client with rate limiting and retry logic
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     ratelimit.Config
	userAgent  string
}

// NewClient creates a new HTTP client with rate limiting
func NewClient(config ratelimit.Config, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:   rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		config:    config,
		userAgent: userAgent,
	}
}

// NewClientDefault creates a new HTTP client with default rate limiting
func NewClientDefault() *Client {
	return NewClient(ratelimit.DefaultConfig(), "Kosarica-CatalogService/1.0")
}

// Get performs a GET request with rate limiting and retry logic
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.Do(ctx, "GET", url, nil, nil)
}

// Do performs an HTTP request with rate limiting and retry logic.
// Request bodies must be nil for retries to be safe; callers with a body
// get a single attempt per invocation.
func (c *Client) Do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	var lastStatus int
	var lastErr error

	maxRetries := c.config.MaxRetries
	if body != nil {
		maxRetries = 0
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "*/*")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < maxRetries {
				sleep(ctx, ratelimit.CalculateBackoff(attempt, c.config))
				continue
			}
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastStatus: lastStatus, LastError: lastErr}
		}

		lastStatus = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		if !ratelimit.IsRetryableStatus(resp.StatusCode) || attempt == maxRetries {
			resp.Body.Close()
			return nil, &ratelimit.FetchRetryError{URL: url, Attempts: attempt + 1, LastStatus: resp.StatusCode}
		}

		var backoff time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := resp.Header.Get("Retry-After")
			var retryAfterPtr *string
			if retryAfter != "" {
				retryAfterPtr = &retryAfter
			}
			backoff = ratelimit.CalculateRateLimitBackoff(attempt, c.config, retryAfterPtr)
		} else {
			backoff = ratelimit.CalculateBackoff(attempt, c.config)
		}

		resp.Body.Close()
		sleep(ctx, backoff)
	}

	return nil, &ratelimit.FetchRetryError{URL: url, Attempts: maxRetries + 1, LastStatus: lastStatus, LastError: lastErr}
}

// GetBytes performs a GET request and returns the response body as bytes
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

// GetConfig returns the current rate limit config
func (c *Client) GetConfig() ratelimit.Config {
	return c.config
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ComputeSha256 computes the SHA256 hash of the given data
func ComputeSha256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
