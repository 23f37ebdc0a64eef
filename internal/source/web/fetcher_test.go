package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web_summarizer/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestFetcher(timeout time.Duration) *Fetcher {
	return New(Config{Timeout: timeout}, testLogger())
}

func TestFetchPage_ExtractsBodyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "SummarizerBot")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>skip</title></head>
			<body><h1>Hello</h1>
			<script>var skipped = true;</script>
			<style>.skipped {}</style>
			<p>world   from
			the    page</p></body></html>`))
	}))
	defer server.Close()

	text, err := newTestFetcher(0).FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Hello world from the page", text)
	assert.NotContains(t, text, "skipped")
}

func TestFetchPage_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchPage(context.Background(), server.URL)
	assert.ErrorContains(t, err, "unexpected status")
}

func TestFetchPage_NonHTMLContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "html"}`))
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchPage(context.Background(), server.URL)
	assert.ErrorContains(t, err, "unsupported content type")
}

func TestFetchPage_EmptyBodyIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>only()</script></body></html>`))
	}))
	defer server.Close()

	_, err := newTestFetcher(0).FetchPage(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestFetchPage_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before use

	_, err := newTestFetcher(0).FetchPage(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestFetchPage_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	_, err := newTestFetcher(50 * time.Millisecond).FetchPage(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTimeout))
}

func TestFetchPage_TruncatesLargeContent(t *testing.T) {
	big := strings.Repeat("a ", maxContentChars) // well over the cap once collapsed
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>" + big + "</body></html>"))
	}))
	defer server.Close()

	text, err := newTestFetcher(0).FetchPage(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text, truncationMarker))
	assert.Len(t, []rune(text), maxContentChars+len([]rune(truncationMarker)))
}

func TestFetchPage_FollowsRedirects(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/final", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>landed</body></html>"))
	}))
	defer target.Close()

	text, err := newTestFetcher(0).FetchPage(context.Background(), target.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, "landed", text)
}
