package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"web_summarizer/internal/domain"
)

const (
	maxContentChars  = 100000
	truncationMarker = "... [Content truncated due to size]"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36 SummarizerBot/1.0"
)

// Config holds web fetcher configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher turns a web page URL into a plain-text content blob.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
}

// New creates a web page fetcher.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		httpClient: &http.Client{},
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		logger:     logger.With("fetcher", "web"),
	}
}

// FetchPage fetches the URL and extracts the visible text of its body
// element. Redirects are followed; the whole request is bounded by the
// configured timeout.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			f.logger.Error("page fetch timed out", "url", url, "timeout", f.timeout)
			return "", fmt.Errorf("fetch %s: %w", url, domain.ErrTimeout)
		}
		f.logger.Error("page fetch failed", "url", url, "error", err)
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Error("page fetch returned non-2xx", "url", url, "status", resp.StatusCode)
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		f.logger.Warn("non-HTML content type", "url", url, "content_type", contentType)
		return "", fmt.Errorf("unsupported content type: %q", contentType)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		f.logger.Error("failed to parse HTML", "url", url, "error", err)
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		f.logger.Warn("no body element in page", "url", url)
		return "", fmt.Errorf("no body element")
	}

	text := domain.CollapseWhitespace(body.Text())
	if text == "" {
		f.logger.Warn("page body contained no text", "url", url)
		return "", fmt.Errorf("empty page content")
	}

	text = domain.CapRunes(text, maxContentChars, truncationMarker)

	f.logger.Info("fetched page content", "url", url, "chars", len(text))
	return text, nil
}
