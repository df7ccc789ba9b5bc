// Package catalog is the client side of the store's search endpoint: it
// fetches raw search result pages under a process-wide concurrency cap and
// extracts structured product candidates from them.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/forager/internal/fingerprint"
	"github.com/FranksOps/forager/internal/metrics"
	"github.com/FranksOps/forager/internal/product"
	"github.com/FranksOps/forager/pkg/httpclient"
	"github.com/FranksOps/forager/pkg/ratelimit"
	"github.com/FranksOps/forager/pkg/retry"
	"github.com/FranksOps/forager/pkg/useragent"
	"golang.org/x/sync/semaphore"
)

// searchParam is the query parameter the store front expects the term under.
const searchParam = "criteria[search][value]"

// Config configures a catalog client. BaseURL, SearchPath, and Store identify
// the endpoint; everything else shapes how politely it is called.
type Config struct {
	BaseURL    string
	SearchPath string
	Store      string

	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// MaxConcurrent caps simultaneous in-flight requests across the whole
	// process, no matter how many resolutions share this client.
	MaxConcurrent     int
	RequestsPerSecond float64
	Jitter            float64

	Retry       retry.Policy
	TLSProfile  fingerprint.Profile
	UserAgents  []string
	MaxProducts int
}

// Client performs search requests against the catalog. Build one per process
// or per batch and share it; the semaphore and limiter inside are the
// process-wide throttles.
type Client struct {
	cfg       Config
	searchURL *url.URL
	http      *httpclient.Client
	extractor *Extractor
	sem       *semaphore.Weighted
	limiter   *ratelimit.Limiter
	uas       *useragent.Pool
	logger    *slog.Logger
}

// NewClient validates the endpoint configuration and builds a client.
// An error here is a configuration failure and should be treated as fatal.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.MaxProducts <= 0 {
		cfg.MaxProducts = 8
	}
	if cfg.TLSProfile == "" {
		cfg.TLSProfile = fingerprint.ProfileChrome
	}
	if cfg.Retry == (retry.Policy{}) {
		cfg.Retry = retry.DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("catalog: base URL %q is not absolute", cfg.BaseURL)
	}
	searchURL := base.JoinPath(cfg.SearchPath, cfg.Store)

	transport, err := fingerprint.Transport(cfg.TLSProfile)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	extractor, err := NewExtractor(cfg.BaseURL, cfg.MaxProducts)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	return &Client{
		cfg:       cfg,
		searchURL: searchURL,
		http:      client,
		extractor: extractor,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		limiter:   ratelimit.NewLimiter(cfg.RequestsPerSecond, cfg.Jitter),
		uas:       useragent.NewPool(cfg.UserAgents),
		logger:    logger,
	}, nil
}

// Close releases the client's pacing resources.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Fetch runs one search request for the term and returns the raw page body.
// It blocks on the shared concurrency semaphore and the rate limiter, retries
// transient failures per the configured policy, and returns a *RequestError
// once the policy is exhausted.
func (c *Client) Fetch(ctx context.Context, term string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("catalog: acquiring request slot: %w", err)
	}
	defer c.sem.Release(1)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("catalog: rate limiter: %w", err)
	}

	u := *c.searchURL
	q := u.Query()
	q.Set(searchParam, term)
	u.RawQuery = q.Encode()

	var (
		body       string
		attempts   int
		lastStatus int
	)

	start := time.Now()
	err := c.cfg.Retry.Do(ctx, func() (bool, error) {
		attempts++
		lastStatus = 0

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("User-Agent", c.uas.GetSequential())
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "ro-RO,ro;q=0.9,en;q=0.8")

		resp, err := c.http.Do(ctx, req)
		if err != nil {
			// Do not keep retrying a request the caller already gave up on.
			if ctx.Err() != nil {
				return false, err
			}
			return true, err
		}
		defer resp.Body.Close()

		lastStatus = resp.StatusCode
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return true, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return true, err
		}
		body = string(b)
		return false, nil
	})

	duration := time.Since(start)
	metrics.RecordFetch(lastStatus, err, duration)

	if err != nil {
		c.logger.Warn("catalog search failed", "term", term, "attempts", attempts, "status", lastStatus, "err", err)
		return "", &RequestError{
			Term:       term,
			URL:        u.String(),
			StatusCode: lastStatus,
			Attempts:   attempts,
			Err:        err,
		}
	}

	c.logger.Debug("catalog search fetched", "term", term, "attempts", attempts, "bytes", len(body), "duration", duration)
	return body, nil
}

// Search fetches the term's result page and extracts candidates from it.
// Relevance scoring is left to the caller.
func (c *Client) Search(ctx context.Context, term string) ([]product.Candidate, error) {
	body, err := c.Fetch(ctx, term)
	if err != nil {
		return nil, err
	}
	return c.extractor.Extract(body)
}
