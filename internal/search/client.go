// Package search is a client for the Brave web search API with retry,
// query pacing and fail-soft batch execution.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garyellow/uonline/internal/buildinfo"
	"github.com/garyellow/uonline/internal/config"
	domerrors "github.com/garyellow/uonline/internal/errors"
	"github.com/garyellow/uonline/internal/metrics"
	"github.com/garyellow/uonline/internal/ratelimit"
	"github.com/garyellow/uonline/internal/retry"
)

const serviceName = "brave"

// Result is one web search hit with plain-text title and description.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Config configures a Client.
type Config struct {
	APIKey      string
	BaseURL     string        // Defaults to config.DefaultBraveBaseURL
	Timeout     time.Duration // Per attempt
	MaxRetries  int           // Retries after the first attempt
	Interval    time.Duration // Minimum spacing between queries (0 = unpaced)
	Concurrency int           // Parallel queries per batch (<=1 = sequential)

	// BatchTimeout bounds one SearchAll call, retries included.
	// Defaults to config.SearchBatch.
	BatchTimeout time.Duration

	// Retry overrides the default backoff schedule when MaxAttempts > 0.
	Retry retry.Policy

	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client issues web searches.
type Client struct {
	apiKey      string
	baseURL     string
	timeout     time.Duration
	batch       time.Duration
	concurrency int
	policy      retry.Policy
	pacer       *ratelimit.Limiter
	httpClient  *http.Client
	metrics     *metrics.Metrics
}

// DefaultRetryPolicy returns the search backoff schedule: 5s doubling to 30s,
// and 10s doubling to 60s after a 429.
func DefaultRetryPolicy(maxRetries int) retry.Policy {
	return retry.Policy{
		MaxAttempts:        maxRetries + 1,
		BaseDelay:          config.SearchRetryInitial,
		MaxDelay:           config.SearchRetryMax,
		Multiplier:         2,
		RateLimitBaseDelay: config.SearchRateLimitInitial,
		RateLimitMaxDelay:  config.SearchRateLimitMax,
	}
}

// NewClient creates a search client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultBraveBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.SearchRequest
	}
	batch := cfg.BatchTimeout
	if batch <= 0 {
		batch = config.SearchBatch
	}
	policy := cfg.Retry
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy(cfg.MaxRetries)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		timeout:     timeout,
		batch:       batch,
		concurrency: max(cfg.Concurrency, 1),
		policy:      policy,
		pacer:       ratelimit.NewInterval(cfg.Interval),
		httpClient:  httpClient,
		metrics:     cfg.Metrics,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Search runs one query with retries and returns its usable results.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if !c.Configured() {
		return nil, domerrors.NewConfigError(config.EnvBraveAPIKey)
	}

	var results []Result
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		results, err = c.attempt(ctx, query, count)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) attempt(ctx context.Context, query string, count int) ([]Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.baseURL+"/web/search?"+params.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("X-Subscription-Token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			c.metrics.RecordSearch("timeout", time.Since(start).Seconds())
			return nil, fmt.Errorf("search %q: %w", query, domerrors.ErrTimeout)
		}
		c.metrics.RecordSearch("error", time.Since(start).Seconds())
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domerrors.NewUpstreamError(serviceName, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		status := "error"
		if resp.StatusCode == http.StatusTooManyRequests {
			status = "rate_limited"
		}
		c.metrics.RecordSearch(status, time.Since(start).Seconds())
		return nil, domerrors.NewUpstreamError(serviceName, resp.StatusCode,
			fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(body))))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.RecordSearch("error", time.Since(start).Seconds())
		return nil, retry.Permanent(fmt.Errorf("decode search response: %w", err))
	}
	c.metrics.RecordSearch("success", time.Since(start).Seconds())

	return payload.results(), nil
}

// SearchAll runs every query and concatenates their results in query order.
// Individual failures are logged and skipped. The batch as a whole is bounded
// by the client's batch timeout; queries still pending when it expires are
// dropped and whatever was collected so far is returned. It returns
// ErrNoResults when the batch produced nothing, and ctx.Err() when ctx ends
// first.
func (c *Client) SearchAll(ctx context.Context, queries []string, count int) ([]Result, error) {
	if !c.Configured() {
		return nil, domerrors.NewConfigError(config.EnvBraveAPIKey)
	}

	batchCtx, cancel := context.WithTimeout(ctx, c.batch)
	defer cancel()

	perQuery := make([][]Result, len(queries))
	run := func(i int) {
		if err := c.pacer.Wait(batchCtx); err != nil {
			return
		}
		results, err := c.Search(batchCtx, queries[i], count)
		if err != nil {
			if ctx.Err() == nil {
				slog.WarnContext(ctx, "Search query failed, skipping",
					"query", queries[i],
					"error", err)
			}
			return
		}
		perQuery[i] = results
	}

	if c.concurrency <= 1 {
		for i := range queries {
			if batchCtx.Err() != nil {
				break
			}
			run(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for i := range queries {
			g.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []Result
	for _, results := range perQuery {
		all = append(all, results...)
	}
	if len(all) == 0 {
		return nil, domerrors.ErrNoResults
	}
	if batchCtx.Err() != nil {
		slog.WarnContext(ctx, "Search batch timed out, returning partial results",
			"queries", len(queries),
			"results", len(all))
	}
	return all, nil
}

// Aggregate joins titles and descriptions into one text blob for extraction.
func Aggregate(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Title == "" || r.Description == "" {
			continue
		}
		b.WriteString(r.Title)
		b.WriteByte(' ')
		b.WriteString(r.Description)
		b.WriteByte(' ')
	}
	return b.String()
}
