package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/engine"
	"github.com/jonesrussell/shopsearch/internal/logger"
)

// SSE stream constants.
const (
	streamHeartbeatInterval = 15 * time.Second
	streamEventBuffer       = 64
	heartbeatComment        = ":heartbeat\n\n"
)

// handleSearchStream serves GET /api/v1/search/stream?q=... as Server-Sent
// Events. Each result is sent as soon as it is synthesized, enrichment
// upgrades arrive as further "result" events for the same URL, and a final
// "done" event marks the end of the stream.
func handleSearchStream(log logger.Interface, searcher ProductSearcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			respondBadRequest(c, "query parameter q is required")
			return
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			respondInternalError(c, "streaming unsupported")
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
		flusher.Flush()

		ctx := c.Request.Context()

		events := make(chan domain.SearchResult, streamEventBuffer)
		settled := make(chan struct{})
		errs := make(chan error, 1)

		onProgress := func(result domain.SearchResult) {
			select {
			case events <- result:
			case <-ctx.Done():
			}
		}

		go func() {
			_, err := searcher.SearchStream(ctx, query, onProgress, func() { close(settled) })
			errs <- err
		}()

		heartbeat := time.NewTicker(streamHeartbeatInterval)
		defer heartbeat.Stop()

		reportErr := func(err error) {
			if err != nil && !errors.Is(err, engine.ErrNoResults) {
				log.Warn("stream search failed", "query", query, "error", err.Error())
				writeStreamEvent(c, "error", gin.H{"error": "search failed"})
				flusher.Flush()
			}
		}

		errSeen := false
		for {
			select {
			case result := <-events:
				writeStreamEvent(c, "result", result)
				flusher.Flush()

			case err := <-errs:
				errSeen = true
				reportErr(err)

			case <-settled:
				drainStreamEvents(c, events)
				// On failure the settle signal fires before the error is
				// delivered; collect it so the client hears why.
				if !errSeen {
					reportErr(<-errs)
				}
				writeStreamEvent(c, "done", gin.H{})
				flusher.Flush()
				return

			case <-heartbeat.C:
				fmt.Fprint(c.Writer, heartbeatComment)
				flusher.Flush()

			case <-ctx.Done():
				return
			}
		}
	}
}

// drainStreamEvents flushes results already queued when the search settled.
// The settle signal is sent only after every emission, so nothing can be
// added behind this drain.
func drainStreamEvents(c *gin.Context, events chan domain.SearchResult) {
	for {
		select {
		case result := <-events:
			writeStreamEvent(c, "result", result)
		default:
			return
		}
	}
}

// writeStreamEvent writes one SSE frame.
func writeStreamEvent(c *gin.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
}
