package api

import "github.com/jonesrussell/shopsearch/internal/domain"

// SearchResponse is the body of a completed search request. Results hold
// the initial synthesis only; enrichment upgrades are delivered on the
// streaming endpoint.
type SearchResponse struct {
	Query   string                `json:"query"`
	Results []domain.SearchResult `json:"results"`
	Total   int                   `json:"total"`
}

// ResolveRequest is the body of a resolve request.
type ResolveRequest struct {
	URL string `json:"url" binding:"required"`
}

// ResolveResponse wraps the resolved product metadata.
type ResolveResponse struct {
	Metadata domain.Metadata `json:"metadata"`
}
