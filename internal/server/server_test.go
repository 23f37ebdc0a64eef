package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web_summarizer/internal/domain"
)

// stubPipeline is a hand-rolled Pipeline for handler tests.
type stubPipeline struct {
	summarizeFunc func(ctx context.Context, rawURL string) (string, error)
	takeFunc      func(ctx context.Context, token string) (*domain.PendingSummary, error)
	sendFunc      func(ctx context.Context, originalURL, markdown string) error
	bookmarks     bool
}

func (p *stubPipeline) Summarize(ctx context.Context, rawURL string) (string, error) {
	return p.summarizeFunc(ctx, rawURL)
}

func (p *stubPipeline) TakeSummary(ctx context.Context, token string) (*domain.PendingSummary, error) {
	return p.takeFunc(ctx, token)
}

func (p *stubPipeline) SendToBookmarks(ctx context.Context, originalURL, markdown string) error {
	return p.sendFunc(ctx, originalURL, markdown)
}

func (p *stubPipeline) BookmarksEnabled() bool {
	return p.bookmarks
}

func newTestServer(pipeline *stubPipeline) *Server {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(pipeline, "test-secret", logger)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubPipeline{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSummarize_Success(t *testing.T) {
	pipeline := &stubPipeline{
		summarizeFunc: func(_ context.Context, rawURL string) (string, error) {
			assert.Equal(t, "https://example.com/article", rawURL)
			return "token-1", nil
		},
	}
	srv := newTestServer(pipeline)

	body := strings.NewReader(`{"url": "https://example.com/article"}`)
	req := httptest.NewRequest(http.MethodPost, "/summarize", body)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "/show_summary", resp["redirect_url"])

	// The payload must not be in the response; only the signed token cookie.
	assert.NotContains(t, rec.Body.String(), "token-1")

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	var tokenSet bool
	for _, c := range cookies {
		if c.Name == tokenCookie {
			tokenSet = true
			assert.NotEqual(t, "token-1", c.Value) // signed, not raw
		}
	}
	assert.True(t, tokenSet)
}

func TestSummarize_NonJSONBody(t *testing.T) {
	srv := newTestServer(&stubPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader("url=x"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummarize_MissingURL(t *testing.T) {
	srv := newTestServer(&stubPipeline{})

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No URL provided.", resp["message"])
}

func TestSummarize_ValidationFailureIs400(t *testing.T) {
	pipeline := &stubPipeline{
		summarizeFunc: func(_ context.Context, _ string) (string, error) {
			return "", domain.NewPipelineError(domain.FailValidation, "Invalid URL format.", fmt.Errorf("bad scheme"))
		},
	}
	srv := newTestServer(pipeline)

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"url": "nope"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid URL format.")
}

func TestSummarize_DownstreamFailureIs500(t *testing.T) {
	pipeline := &stubPipeline{
		summarizeFunc: func(_ context.Context, _ string) (string, error) {
			return "", domain.NewPipelineError(domain.FailFetch, "Could not fetch content.", fmt.Errorf("connection refused"))
		},
	}
	srv := newTestServer(pipeline)

	req := httptest.NewRequest(http.MethodPost, "/summarize", strings.NewReader(`{"url": "https://example.com"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not fetch content.")
	// Internal detail stays out of the response.
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestShowSummary_RendersStoredResult(t *testing.T) {
	pipeline := &stubPipeline{
		takeFunc: func(_ context.Context, token string) (*domain.PendingSummary, error) {
			assert.Equal(t, "token-1", token)
			return &domain.PendingSummary{
				OriginalURL:     "https://example.com/article",
				SummaryHTML:     "<h1>Summary</h1>",
				SummaryMarkdown: "# Summary",
			}, nil
		},
		bookmarks: true,
	}
	srv := newTestServer(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/show_summary", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: srv.cookies.sign("token-1")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Summary</h1>")
	assert.Contains(t, rec.Body.String(), "https://example.com/article")
	assert.Contains(t, rec.Body.String(), "send_to_bookmark_service")
}

func TestShowSummary_MissingTokenRedirects(t *testing.T) {
	srv := newTestServer(&stubPipeline{})

	req := httptest.NewRequest(http.MethodGet, "/show_summary", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestShowSummary_TamperedCookieReadsAsAbsent(t *testing.T) {
	called := false
	pipeline := &stubPipeline{
		takeFunc: func(_ context.Context, _ string) (*domain.PendingSummary, error) {
			called = true
			return nil, domain.ErrNotFound
		},
	}
	srv := newTestServer(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/show_summary", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: "forged-token.Zm9yZ2Vk"})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, called, "pipeline should not be consulted with a forged cookie")
}

func TestShowSummary_ExpiredRecordRedirects(t *testing.T) {
	pipeline := &stubPipeline{
		takeFunc: func(_ context.Context, _ string) (*domain.PendingSummary, error) {
			return nil, domain.ErrNotFound
		},
	}
	srv := newTestServer(pipeline)

	req := httptest.NewRequest(http.MethodGet, "/show_summary", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookie, Value: srv.cookies.sign("gone-token")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSendToBookmarks_Disabled(t *testing.T) {
	srv := newTestServer(&stubPipeline{bookmarks: false})

	form := strings.NewReader("original_url=https%3A%2F%2Fexample.com&summary_markdown=md")
	req := httptest.NewRequest(http.MethodPost, "/send_to_bookmark_service", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSendToBookmarks_Success(t *testing.T) {
	var gotURL, gotMarkdown string
	pipeline := &stubPipeline{
		bookmarks: true,
		sendFunc: func(_ context.Context, originalURL, markdown string) error {
			gotURL = originalURL
			gotMarkdown = markdown
			return nil
		},
	}
	srv := newTestServer(pipeline)

	form := strings.NewReader("original_url=https%3A%2F%2Fexample.com%2Fa&summary_markdown=%23+Title")
	req := httptest.NewRequest(http.MethodPost, "/send_to_bookmark_service", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://example.com/a", gotURL)
	assert.Equal(t, "# Title", gotMarkdown)
}

func TestSendToBookmarks_FailureStillRedirects(t *testing.T) {
	pipeline := &stubPipeline{
		bookmarks: true,
		sendFunc: func(_ context.Context, _, _ string) error {
			return domain.NewPipelineError(domain.FailPublish, "Failed to publish.", fmt.Errorf("list missing"))
		},
	}
	srv := newTestServer(pipeline)

	form := strings.NewReader("original_url=https%3A%2F%2Fexample.com&summary_markdown=md")
	req := httptest.NewRequest(http.MethodPost, "/send_to_bookmark_service", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	// Publish failure never blocks; the user just sees a notice.
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestIndex_PrefillValidation(t *testing.T) {
	srv := newTestServer(&stubPipeline{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?url=https%3A%2F%2Fexample.com%2Fa", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="https://example.com/a"`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?url=not-a-url", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `value="not-a-url"`)
	assert.Contains(t, rec.Body.String(), "Invalid URL format")
}

func TestIndex_ShowsFlashOnce(t *testing.T) {
	srv := newTestServer(&stubPipeline{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: flashCookie, Value: srv.cookies.sign("info|No summary data found.")})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "No summary data found.")

	// The flash cookie is cleared after display.
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}
