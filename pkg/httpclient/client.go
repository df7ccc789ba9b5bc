// Package httpclient wraps the standard http.Client with the small set of
// knobs the catalog fetcher needs: a hard timeout, an explicit redirect
// policy, optional cookie persistence, and an injectable transport.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Config defines the setup for the HTTP client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects caps redirect following. Negative means follow none.
	MaxRedirects int
	// UseCookieJar keeps session cookies across requests, which some store
	// fronts require before serving search results.
	UseCookieJar bool
	// Transport overrides the default transport, e.g. for TLS fingerprinting.
	Transport http.RoundTripper
}

// Client is an http.Client configured per Config.
type Client struct {
	*http.Client
}

// New creates a client from the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &http.Client{
		Timeout: cfg.Timeout,
	}

	if cfg.MaxRedirects >= 0 {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("httpclient: stopped after %d redirects", cfg.MaxRedirects)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c}, nil
}

// Do executes the request under the provided context. The context governs
// cancellation independent of the client-level timeout.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	resp, err := c.Client.Do(req.Clone(ctx))
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}
