package proxyfetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonesrussell/shopsearch/internal/logger"
	"github.com/jonesrussell/shopsearch/internal/proxyfetch"
)

const targetURL = "https://example.com/item"

// pageBody is large enough to pass the minimum-size check.
var pageBody = "<html><head><title>Item</title></head><body>" + strings.Repeat("x", 400) + "</body></html>"

func newFetcher(t *testing.T, templates ...string) *proxyfetch.Fetcher {
	t.Helper()

	return proxyfetch.NewFetcher(proxyfetch.Config{
		ProxyTemplates: templates,
		ProxyTimeout:   2 * time.Second,
	}, logger.NewNoOp(), nil)
}

// proxyStub is an httptest server acting as one relay endpoint.
func proxyStub(t *testing.T, handler http.HandlerFunc) (*httptest.Server, string) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv, srv.URL + "/?url=" + proxyfetch.URLPlaceholder
}

func TestFetchHTML_FastestSuccessWins(t *testing.T) {
	t.Parallel()

	var slowCancelled atomic.Bool

	_, slowTmpl := proxyStub(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			slowCancelled.Store(true)
			return
		case <-time.After(5 * time.Second):
		}
		_, _ = w.Write([]byte("slow proxy body that should never be used " + pageBody))
	})

	_, fastTmpl := proxyStub(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(pageBody))
	})

	_, failTmpl := proxyStub(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	html, err := newFetcher(t, slowTmpl, fastTmpl, failTmpl).FetchHTML(context.Background(), targetURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if html != pageBody {
		t.Errorf("got body from the wrong proxy")
	}

	// The winner's return must cancel the slow sibling.
	deadline := time.Now().Add(2 * time.Second)
	for !slowCancelled.Load() {
		if time.Now().After(deadline) {
			t.Fatal("slow proxy request was not cancelled after a winner was chosen")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFetchHTML_AllProxiesFailAggregates(t *testing.T) {
	t.Parallel()

	_, errTmpl := proxyStub(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, smallTmpl := proxyStub(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tiny"))
	})

	_, err := newFetcher(t, errTmpl, smallTmpl).FetchHTML(context.Background(), targetURL)
	if !errors.Is(err, proxyfetch.ErrAllProxiesFailed) {
		t.Fatalf("err = %v, want ErrAllProxiesFailed", err)
	}

	// Per-proxy detail is retained for diagnostics.
	if !strings.Contains(err.Error(), "http status 502") {
		t.Errorf("aggregated error lacks the 502 branch detail: %v", err)
	}
	if !strings.Contains(err.Error(), "too small") {
		t.Errorf("aggregated error lacks the undersized-body detail: %v", err)
	}
}

func TestFetchHTML_PerBranchTimeout(t *testing.T) {
	t.Parallel()

	_, hangTmpl := proxyStub(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	fetcher := proxyfetch.NewFetcher(proxyfetch.Config{
		ProxyTemplates: []string{hangTmpl},
		ProxyTimeout:   50 * time.Millisecond,
	}, logger.NewNoOp(), nil)

	start := time.Now()
	_, err := fetcher.FetchHTML(context.Background(), targetURL)
	if !errors.Is(err, proxyfetch.ErrAllProxiesFailed) {
		t.Fatalf("err = %v, want ErrAllProxiesFailed", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout took %v, want well under a second", elapsed)
	}
}

func TestFetchHTML_CallerCancellation(t *testing.T) {
	t.Parallel()

	_, hangTmpl := proxyStub(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := newFetcher(t, hangTmpl).FetchHTML(ctx, targetURL)
	if err == nil {
		t.Fatal("expected error after caller cancellation")
	}
}

func TestExpandTemplate(t *testing.T) {
	t.Parallel()

	got := proxyfetch.ExpandTemplate("https://relay.test/raw?url="+proxyfetch.URLPlaceholder, "https://a.b/c?d=1")
	want := "https://relay.test/raw?url=https%3A%2F%2Fa.b%2Fc%3Fd%3D1"
	if got != want {
		t.Errorf("ExpandTemplate = %q, want %q", got, want)
	}
}
