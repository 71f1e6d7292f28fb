// Package proxyfetch fetches page HTML through a set of interchangeable
// relay proxies, racing them and keeping the first good response.
package proxyfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/metrics"
)

// Default configuration values.
const (
	// DefaultProxyTimeout bounds each individual proxy request.
	DefaultProxyTimeout = 12 * time.Second

	// DefaultUserAgent is sent with proxy requests unless overridden.
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// minBodyBytes is the smallest response treated as a real page rather
	// than a proxy error stub.
	minBodyBytes = 200

	// maxBodyBytes caps how much of a page is read.
	maxBodyBytes = 10 * 1024 * 1024
)

// URLPlaceholder marks where the target URL is substituted into a proxy
// endpoint template.
const URLPlaceholder = "{url}"

// DefaultProxyTemplates are the relay endpoints raced by default. Any subset
// being down or slow is tolerated.
var DefaultProxyTemplates = []string{
	"https://api.allorigins.win/raw?url=" + URLPlaceholder,
	"https://corsproxy.io/?url=" + URLPlaceholder,
	"https://api.codetabs.com/v1/proxy?quest=" + URLPlaceholder,
}

// ErrAllProxiesFailed is returned when every configured proxy fails or times
// out. The wrapped error joins the per-proxy failures for diagnostics.
var ErrAllProxiesFailed = errors.New("could not fetch page through any proxy")

// ErrNoProxies is returned when the fetcher has no endpoints configured.
var ErrNoProxies = errors.New("no proxy endpoints configured")

// Config holds fetcher configuration.
type Config struct {
	// ProxyTemplates are endpoint templates containing URLPlaceholder.
	ProxyTemplates []string
	// ProxyTimeout bounds each individual proxy request.
	ProxyTimeout time.Duration
	// UserAgent is sent with every proxy request.
	UserAgent string
}

// WithDefaults returns a copy of the config with defaults applied for
// zero-value fields.
func (c Config) WithDefaults() Config {
	if len(c.ProxyTemplates) == 0 {
		c.ProxyTemplates = DefaultProxyTemplates
	}
	if c.ProxyTimeout <= 0 {
		c.ProxyTimeout = DefaultProxyTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Fetcher races proxy endpoints to fetch a page's HTML.
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	log        logger.Interface
	metrics    *metrics.Metrics
}

// result is the outcome of a single proxy branch.
type result struct {
	proxy string
	html  string
	err   error
}

// NewFetcher creates a proxy-racing fetcher.
func NewFetcher(cfg Config, log logger.Interface, m *metrics.Metrics) *Fetcher {
	cfg = cfg.WithDefaults()

	return &Fetcher{
		cfg: cfg,
		httpClient: &http.Client{
			// Per-branch timeouts are enforced via context so a winner
			// can also cancel the losers; no client-level timeout.
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		log:     log,
		metrics: m,
	}
}

// FetchHTML fetches targetURL's HTML via whichever proxy responds with a
// usable body first. The remaining in-flight requests are cancelled as soon
// as a winner is chosen. The caller's ctx composes with the per-branch
// timeout: either can abort the whole operation.
func (f *Fetcher) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	if len(f.cfg.ProxyTemplates) == 0 {
		return "", ErrNoProxies
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan result, len(f.cfg.ProxyTemplates))
	for _, tmpl := range f.cfg.ProxyTemplates {
		go f.fetchBranch(raceCtx, tmpl, targetURL, results)
	}

	failures := make([]error, 0, len(f.cfg.ProxyTemplates))
	for range f.cfg.ProxyTemplates {
		res := <-results
		if res.err == nil {
			f.metrics.RecordProxyFetch(true)
			f.log.Debug("proxy race won", "proxy", res.proxy, "url", targetURL)
			return res.html, nil
		}

		failures = append(failures, fmt.Errorf("%s: %w", res.proxy, res.err))
	}

	f.metrics.RecordProxyFetch(false)
	f.log.Warn("all proxies failed",
		"url", targetURL,
		"proxy_count", len(f.cfg.ProxyTemplates),
		"error", errors.Join(failures...).Error(),
	)

	return "", fmt.Errorf("%w: %w", ErrAllProxiesFailed, errors.Join(failures...))
}

// fetchBranch runs one proxy request under its own timeout.
func (f *Fetcher) fetchBranch(ctx context.Context, template, targetURL string, results chan<- result) {
	branchCtx, cancel := context.WithTimeout(ctx, f.cfg.ProxyTimeout)
	defer cancel()

	proxyURL := ExpandTemplate(template, targetURL)

	html, err := f.fetchOnce(branchCtx, proxyURL)
	results <- result{proxy: proxyHost(template), html: html, err: err}
}

// fetchOnce performs a single GET and validates the response.
func (f *Fetcher) fetchOnce(ctx context.Context, proxyURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if len(body) < minBodyBytes {
		return "", fmt.Errorf("response too small (%d bytes)", len(body))
	}

	return string(body), nil
}

// ExpandTemplate substitutes the escaped target URL into a proxy template.
func ExpandTemplate(template, targetURL string) string {
	return strings.Replace(template, URLPlaceholder, url.QueryEscape(targetURL), 1)
}

// ValidateTemplate checks that a proxy endpoint template parses as a URL and
// contains the target placeholder.
func ValidateTemplate(template string) error {
	if !strings.Contains(template, URLPlaceholder) {
		return fmt.Errorf("proxy template %q missing %s placeholder", template, URLPlaceholder)
	}

	if _, err := url.Parse(strings.Replace(template, URLPlaceholder, "x", 1)); err != nil {
		return fmt.Errorf("proxy template %q: %w", template, err)
	}

	return nil
}

// proxyHost extracts the proxy's hostname from its template for logging.
func proxyHost(template string) string {
	parsed, err := url.Parse(strings.Replace(template, URLPlaceholder, "", 1))
	if err != nil || parsed.Host == "" {
		return template
	}
	return parsed.Host
}
