package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

const (
	defaultUserAgent = "sharepoint-go/0.1"

	// maxErrorBody caps how much of an error response is kept in GraphError.
	maxErrorBody = 64 << 10
)

// Retry timing. Only consulted when retries are enabled.
const (
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
)

// TokenSource yields the bearer token for the next request.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to Graph on behalf of one service principal. Every request
// carries the bearer token; non-2xx answers come back as *GraphError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string
	retry      retryPolicy
}

// retryPolicy decides whether and how long to wait before another attempt.
// The zero policy never retries.
type retryPolicy struct {
	max   int
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient returns a Client rooted at baseURL (usually DefaultBaseURL).
// Nil httpClient and logger and an empty userAgent fall back to defaults.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
		retry:      retryPolicy{sleep: sleepCtx},
	}
}

// WithRetries allows up to n further attempts after a network error, a
// 429 or a 5xx. Negative n means none. Returns c.
func (c *Client) WithRetries(n int) *Client {
	c.retry.max = max(n, 0)

	return c
}

// Do sends method to baseURL+path and returns the response for any 2xx.
// The caller closes the body. Everything else is a *GraphError whose Err
// is the status sentinel, so callers choose which statuses are fatal.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	logger := c.logger.With(slog.String("method", method), slog.String("path", path))

	for attempt := 0; ; attempt++ {
		var wait time.Duration

		resp, err := c.send(ctx, method, c.baseURL+path, body)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("graph: request canceled: %w", ctx.Err())
			}

			if IsAuthFailure(err) {
				return nil, err
			}

			if attempt >= c.retry.max {
				return nil, fmt.Errorf("graph: %s %s: %w", method, path, err)
			}

			wait = c.retry.backoff(attempt)
			logger.Warn("network error, retrying",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)

		case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
			logger.Debug("request succeeded", slog.Int("status", resp.StatusCode))

			return resp, nil

		default:
			gerr := newGraphError(resp)

			if !isRetryable(resp.StatusCode) || attempt >= c.retry.max {
				logger.Debug("request failed",
					slog.Int("status", resp.StatusCode),
					slog.Int("attempts", attempt+1),
				)

				return nil, gerr
			}

			wait = c.retry.wait(attempt, resp)
			logger.Warn("retryable status, retrying",
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
			)
		}

		if err := c.retry.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("graph: request canceled: %w", err)
		}
	}
}

// send performs one attempt.
func (c *Client) send(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// newGraphError drains and closes resp.Body into a GraphError.
func newGraphError(resp *http.Response) *GraphError {
	defer resp.Body.Close()

	msg, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		msg = []byte("(failed to read response body)")
	}

	return &GraphError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("request-id"),
		Message:    string(msg),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// wait prefers a 429's Retry-After seconds over the computed backoff.
func (p retryPolicy) wait(attempt int, resp *http.Response) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	return p.backoff(attempt)
}

// backoff is exponential from baseBackoff, capped at maxBackoff, with
// jitterFraction either way.
func (p retryPolicy) backoff(attempt int) time.Duration {
	d := min(float64(baseBackoff)*math.Pow(backoffFactor, float64(attempt)), float64(maxBackoff))
	d += d * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand

	return time.Duration(d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
