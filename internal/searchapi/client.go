// Package searchapi provides the HTTP client for the external search API.
//
// The API is a programmable-search-style JSON endpoint: one key and engine
// ID serve both the general web branch and the image/shopping branch (the
// latter via searchType=image, whose hits link to product pages through
// image.contextLink). This response-shape coupling is deliberately isolated
// here, behind the engine's dual-fetch step.
package searchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Defaults for the search API client.
const (
	// DefaultBaseURL is the default search API endpoint.
	DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 10 * time.Second
	// DefaultResultCount is how many hits each branch requests.
	DefaultResultCount = 10
)

// ErrMissingCredentials is returned before any network call when the API
// key or engine ID is absent. This is a configuration error, not retryable.
var ErrMissingCredentials = errors.New("search API credentials not configured")

// Client is an HTTP client for the search API.
type Client struct {
	baseURL    string
	apiKey     string
	engineID   string
	count      int
	httpClient *http.Client
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests and self-hosted
// mirrors.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithResultCount sets how many hits each branch requests.
func WithResultCount(count int) Option {
	return func(c *Client) {
		if count > 0 {
			c.count = count
		}
	}
}

// NewClient creates a search API client for the given credentials.
func NewClient(apiKey, engineID string, opts ...Option) *Client {
	client := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		engineID: engineID,
		count:    DefaultResultCount,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// HasCredentials reports whether the client can make calls at all.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.engineID != ""
}

// Search issues a general web-search query.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	return c.search(ctx, query, false)
}

// ImageSearch issues an image-branch query whose hits double as shopping
// listings via their context links.
func (c *Client) ImageSearch(ctx context.Context, query string) ([]Item, error) {
	return c.search(ctx, query, true)
}

func (c *Client) search(ctx context.Context, query string, imageBranch bool) ([]Item, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", c.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.count))
	if imageBranch {
		params.Set("searchType", "image")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search API status %d: %s", resp.StatusCode, string(body))
	}

	var parsed Response
	if decodeErr := json.NewDecoder(resp.Body).Decode(&parsed); decodeErr != nil {
		return nil, fmt.Errorf("decode search response: %w", decodeErr)
	}

	return parsed.Items, nil
}
