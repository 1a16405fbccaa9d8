package vigi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/ratelimit"
	"github.com/nao1215/vigireport/internal/model"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// Config describes how to reach the service.
type Config struct {
	// BaseURL is the site root, e.g. "https://vigiaccess.org".
	BaseURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UserAgent is sent with every request when set.
	UserAgent string

	// Headers are extra headers sent with every request.
	Headers map[string]string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryBackoff is the wait before the first retry. It doubles after
	// each further attempt.
	RetryBackoff time.Duration

	// RateLimit caps requests per second, retries included. Zero or less
	// means no limit.
	RateLimit float64
}

// Client talks to the VigiAccess protocol endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	bucket     *ratelimit.Bucket
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for request and retry messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client built from Config.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxRetries: max(cfg.MaxRetries, 0),
		backoff:    cfg.RetryBackoff,
	}
	if cfg.RateLimit > 0 {
		c.bucket = ratelimit.NewBucketWithRate(cfg.RateLimit, int64(math.Max(1, math.Ceil(cfg.RateLimit))))
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient, err = newHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// SearchDrug resolves term to the encrypted identifier of the first
// matching drug.
func (c *Client) SearchDrug(ctx context.Context, term string) (string, error) {
	var results []searchResult
	if err := c.post(ctx, "search", searchPath, []string{term}, &results); err != nil {
		return "", err
	}
	if len(results) == 0 || results[0].DrugID.DrugID.Encrypted == "" {
		return "", &OpError{Op: "search", Attempts: 1, Err: fmt.Errorf("%w: %q", ErrDrugNotFound, term)}
	}
	return results[0].DrugID.DrugID.Encrypted, nil
}

// Distribution fetches the aggregate statistics for a drug.
func (c *Client) Distribution(ctx context.Context, drugID string) (*model.Summary, error) {
	var resp distributionResponse
	body := []distributionRequest{{DrugID: encrypted{Encrypted: drugID}}}
	if err := c.post(ctx, "distribution", distributionPath, body, &resp); err != nil {
		return nil, err
	}
	return resp.toSummary(), nil
}

// DetailPage fetches page (zero-based) of the terms in a category.
// A nil slice means the response had no term list, which the service uses
// to signal the end of pagination.
func (c *Client) DetailPage(ctx context.Context, drugID, socID string, page int) ([]model.Detail, error) {
	var resp primaryTermResponse
	body := []primaryTermRequest{{
		DrugID: drugRef{DrugID: encrypted{Encrypted: drugID}},
		SocID:  socRef{SocID: encrypted{Encrypted: socID}},
		Page:   page,
	}}
	if err := c.post(ctx, "primaryTerm", primaryTermPath, body, &resp); err != nil {
		return nil, err
	}
	if resp.Pts == nil {
		return nil, nil
	}

	details := make([]model.Detail, 0, len(resp.Pts))
	for _, p := range resp.Pts {
		details = append(details, model.Detail{Description: p.Description.Text, Count: p.Count})
	}
	return details, nil
}

// post sends body as JSON to path and decodes the response into out,
// retrying transient failures.
func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &OpError{Op: op, Attempts: 0, Err: err}
	}

	attempts := c.maxRetries + 1
	wait := c.backoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying request",
				"op", op,
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			if err := sleep(ctx, wait); err != nil {
				return &OpError{Op: op, Attempts: attempt - 1, Err: err}
			}
			wait *= 2
		}

		if err := c.throttle(ctx); err != nil {
			return &OpError{Op: op, Attempts: attempt - 1, Err: err}
		}
		lastErr = c.do(ctx, path, payload, out)
		if lastErr == nil {
			c.logger.Debug("request succeeded", "op", op, "attempt", attempt)
			return nil
		}
		if !isTransient(ctx, lastErr) {
			return &OpError{Op: op, Attempts: attempt, Err: lastErr}
		}
	}
	return &OpError{Op: op, Attempts: attempts, Err: lastErr}
}

func (c *Client) do(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close() //nolint:errcheck // body fully read or discarded
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize)) //nolint:errcheck // draining only
		return &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// isTransient reports whether err is worth another attempt.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// throttle waits for a token from the rate limit bucket.
func (c *Client) throttle(ctx context.Context) error {
	if c.bucket == nil {
		return nil
	}
	return sleep(ctx, c.bucket.Take(1))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
