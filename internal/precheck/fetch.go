// Package precheck screens a candidate site over plain HTTP before a browser
// session is spent on it: reachability, bot-protection walls, and robots.txt
// policy. Requests present a browser TLS fingerprint and rotate User-Agents
// so the screening itself does not trip the walls it is looking for.
package precheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/harrier/internal/fingerprint"
	"github.com/FranksOps/harrier/pkg/httpclient"
	"github.com/FranksOps/harrier/pkg/proxy"
	"github.com/FranksOps/harrier/pkg/ratelimit"
	"github.com/FranksOps/harrier/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// Config configures the precheck client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	Fingerprint  fingerprint.Profile
	Limiter      *ratelimit.Limiter
}

// Result captures one probe response for wall analysis and persistence.
type Result struct {
	ID         string
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	CreatedAt  time.Time
	// Error is non-empty when the request itself failed; the probe is still
	// returned so the caller can record the attempt.
	Error string
	// Blocked and WallVendor are filled by wall analysis.
	Blocked    bool
	WallVendor string
}

// Client performs screened GETs with fingerprinting, UA rotation, and
// optional proxy rotation. One client shares its cookie jar and connection
// pool across requests.
type Client struct {
	cfg    Config
	client *httpclient.Client
}

// NewClient builds a Client, defaulting to a Chrome fingerprint and the
// stock UA pool.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}

	// The proxy choice rides the request context so one shared transport can
	// still rotate per request.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if val := req.Context().Value(proxyKey); val != nil {
			if u, ok := val.(*url.URL); ok {
				return u, nil
			}
		}
		if req.URL.Hostname() == "127.0.0.1" || req.URL.Hostname() == "localhost" {
			return nil, nil
		}
		return http.ProxyFromEnvironment(req)
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, proxyFunc)
	if err != nil {
		return nil, fmt.Errorf("build transport: %w", err)
	}
	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("build client: %w", err)
	}
	return &Client{cfg: cfg, client: client}, nil
}

// Probe GETs targetURL and runs wall detection on the response. Transport
// failures are folded into the Result rather than returned, so every probe
// yields a persistable record; only programming errors surface as error.
func (c *Client) Probe(ctx context.Context, targetURL string) (*Result, error) {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	result := &Result{
		ID:        uuid.New().String(),
		URL:       targetURL,
		CreatedAt: start.UTC(),
	}

	var activeProxy *url.URL
	if c.cfg.ProxyPool != nil {
		activeProxy = c.cfg.ProxyPool.Next()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("build request: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}
	if activeProxy != nil {
		req = req.WithContext(context.WithValue(req.Context(), proxyKey, activeProxy))
	}

	req.Header.Set("User-Agent", c.cfg.UAPool.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req.Context(), req)
	if err != nil {
		if activeProxy != nil {
			_ = c.cfg.ProxyPool.MarkFailure(activeProxy)
		}
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Duration = time.Since(start)
		return result, nil
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = c.cfg.ProxyPool.MarkSuccess(activeProxy)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("read body: %v", err)
	}

	result.StatusCode = resp.StatusCode
	result.Headers = resp.Header
	result.Body = body
	result.Duration = time.Since(start)

	Analyze(result, DefaultDetectors())
	return result, nil
}

// Fetch GETs targetURL and returns the body, erroring on transport failures
// and non-2xx statuses. It satisfies the sitemap reader's fetcher interface.
func (c *Client) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	res, err := c.Probe(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("fetch %s: %s", targetURL, res.Error)
	}
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", targetURL, res.StatusCode)
	}
	return res.Body, nil
}
