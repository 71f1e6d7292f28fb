package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/shopsearch/internal/api"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/engine"
	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/resolver"
	"github.com/jonesrussell/shopsearch/internal/searchapi"
)

// stubSearcher implements api.ProductSearcher with canned results.
type stubSearcher struct {
	results []domain.SearchResult
	err     error

	// enriched, when set, is emitted as an extra progress event on the
	// streaming path.
	enriched *domain.SearchResult
}

func (s *stubSearcher) Search(_ context.Context, _ string, onProgress engine.ProgressFunc) ([]domain.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if onProgress != nil {
		for _, r := range s.results {
			onProgress(r)
		}
	}
	return s.results, nil
}

func (s *stubSearcher) SearchStream(
	ctx context.Context,
	query string,
	onProgress engine.ProgressFunc,
	onSettled func(),
) ([]domain.SearchResult, error) {
	results, err := s.Search(ctx, query, onProgress)
	if err == nil && s.enriched != nil && onProgress != nil {
		onProgress(*s.enriched)
	}
	onSettled()
	return results, err
}

// stubResolver implements api.URLResolver.
type stubResolver struct {
	meta *domain.Metadata
	err  error
}

func (r *stubResolver) Resolve(_ context.Context, _ string) (*domain.Metadata, error) {
	return r.meta, r.err
}

func newRouter(searcher *stubSearcher, res *stubResolver) http.Handler {
	return api.SetupRouter(logger.NewNoOp(), searcher, res, prometheus.NewRegistry())
}

func mugResult() domain.SearchResult {
	return domain.SearchResult{
		Metadata: domain.Metadata{
			Title: "Blue Ceramic Mug",
			Image: "https://shop.example.com/mug.jpg",
			Price: domain.Price{Amount: 19.99, Currency: domain.USD},
			URL:   "https://shop.example.com/products/mug",
		},
		Source: "shop.example.com",
	}
}

func TestSearchEndpoint(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{results: []domain.SearchResult{mugResult()}}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=mug", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mug", resp.Query)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Blue Ceramic Mug", resp.Results[0].Title)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSearchEndpointRequiresQuery(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search", http.NoBody))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpointNoResultsIsOK(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{err: engine.ErrNoResults}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=obscure", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.SearchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Total)
}

func TestSearchEndpointErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing credentials", searchapi.ErrMissingCredentials, http.StatusServiceUnavailable},
		{"invalid url", resolver.ErrInvalidURL, http.StatusBadRequest},
		{"resolve failed", resolver.ErrResolveFailed, http.StatusUnprocessableEntity},
		{"upstream failure", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newRouter(&stubSearcher{err: tt.err}, &stubResolver{})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=mug", http.NoBody))

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestResolveEndpoint(t *testing.T) {
	t.Parallel()

	meta := mugResult().Metadata
	router := newRouter(&stubSearcher{}, &stubResolver{meta: &meta})

	body := strings.NewReader(`{"url":"shop.example.com/products/mug"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", body)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ResolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Blue Ceramic Mug", resp.Metadata.Title)
	assert.InDelta(t, 19.99, resp.Metadata.Price.Amount, 0.001)
}

func TestResolveEndpointErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing url field", `{}`, nil, http.StatusBadRequest},
		{"invalid url", `{"url":"not a url"}`, resolver.ErrInvalidURL, http.StatusBadRequest},
		{"opaque failure", `{"url":"https://a.example.com/x"}`, resolver.ErrResolveFailed, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newRouter(&stubSearcher{}, &stubResolver{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/resolve", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearchStreamEmitsResultsAndDone(t *testing.T) {
	t.Parallel()

	initial := mugResult()
	initial.Price = domain.Price{}

	enriched := mugResult()

	router := newRouter(&stubSearcher{
		results:  []domain.SearchResult{initial},
		enriched: &enriched,
	}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search/stream?q=mug", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: result"))
	assert.Contains(t, body, `"amount":19.99`)
	assert.Contains(t, body, "event: done")
	assert.True(t, strings.Index(body, "event: result") < strings.Index(body, "event: done"))
}

func TestSearchStreamReportsFailure(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{err: errors.New("boom")}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/search/stream?q=mug", http.NoBody))

	body := rec.Body.String()
	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, "event: done")
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := newRouter(&stubSearcher{}, &stubResolver{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
}
