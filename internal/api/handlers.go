package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/shopsearch/internal/engine"
	"github.com/jonesrussell/shopsearch/internal/resolver"
	"github.com/jonesrussell/shopsearch/internal/searchapi"
)

// handleSearch serves GET /api/v1/search?q=...
func handleSearch(searcher ProductSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			respondBadRequest(c, "query parameter q is required")
			return
		}

		results, err := searcher.Search(c.Request.Context(), query, nil)
		switch {
		case errors.Is(err, engine.ErrNoResults):
			// Distinguishable from failure: the upstream answered, nothing
			// survived filtering.
			c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results, Total: 0})
			return
		case errors.Is(err, searchapi.ErrMissingCredentials):
			respondError(c, http.StatusServiceUnavailable, "search is not configured")
			return
		case errors.Is(err, resolver.ErrInvalidURL):
			respondBadRequest(c, err.Error())
			return
		case errors.Is(err, resolver.ErrResolveFailed):
			respondError(c, http.StatusUnprocessableEntity, resolver.ErrResolveFailed.Error())
			return
		case err != nil:
			respondError(c, http.StatusBadGateway, "search failed")
			return
		}

		c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results, Total: len(results)})
	}
}

// handleResolve serves POST /api/v1/resolve.
func handleResolve(urlResolver URLResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request payload")
			return
		}

		meta, err := urlResolver.Resolve(c.Request.Context(), req.URL)
		switch {
		case errors.Is(err, resolver.ErrInvalidURL):
			respondBadRequest(c, err.Error())
			return
		case errors.Is(err, resolver.ErrResolveFailed):
			respondError(c, http.StatusUnprocessableEntity, resolver.ErrResolveFailed.Error())
			return
		case err != nil:
			respondInternalError(c, "resolve failed")
			return
		}

		c.JSON(http.StatusOK, ResolveResponse{Metadata: *meta})
	}
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondBadRequest sends a 400 with message.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

// respondInternalError sends a 500 with message.
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}
