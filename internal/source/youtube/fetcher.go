package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"web_summarizer/internal/domain"
)

const (
	maxTranscriptChars = 75000
	truncationMarker   = "... [Transcript truncated due to size]"
)

// preferredLanguages is checked in order when selecting a transcript.
var preferredLanguages = []string{"en", "en-US", "en-GB"}

// Config holds transcript fetcher configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Fetcher turns a video id into plain transcript text. The whole
// acquisition is raced against a wall-clock timer because the upstream
// per-call timeouts cannot be trusted on their own.
type Fetcher struct {
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a transcript fetcher.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Fetcher{
		client:  NewClient(cfg.BaseURL, logger),
		timeout: cfg.Timeout,
		logger:  logger.With("fetcher", "youtube"),
	}
}

// FetchTranscript fetches and formats the best available transcript for
// the video, bounded by the configured wall-clock timeout.
func (f *Fetcher) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	type result struct {
		text string
		err  error
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		text, err := f.acquire(callCtx, videoID)
		ch <- result{text: text, err: err}
	}()

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-timer.C:
		cancel()
		f.logger.Error("transcript fetch timed out", "video_id", videoID, "timeout", f.timeout)
		return "", fmt.Errorf("fetch transcript for %s: %w", videoID, domain.ErrTimeout)
	case <-ctx.Done():
		cancel()
		return "", ctx.Err()
	}
}

func (f *Fetcher) acquire(ctx context.Context, videoID string) (string, error) {
	list, err := f.client.ListTranscripts(ctx, videoID)
	if err != nil {
		f.logger.Error("failed to list transcripts", "video_id", videoID, "error", err)
		return "", fmt.Errorf("list transcripts: %w", err)
	}

	transcript, ok := list.FindManuallyCreated(preferredLanguages)
	if !ok {
		transcript, ok = list.FindGenerated(preferredLanguages)
	}
	if !ok {
		transcript, ok = list.First()
	}
	if !ok {
		return "", fmt.Errorf("no transcript available for video %s", videoID)
	}

	f.logger.Info("selected transcript",
		"video_id", videoID,
		"language", transcript.LanguageCode,
		"generated", transcript.Generated,
	)

	segments, err := transcript.Fetch(ctx)
	if err != nil {
		f.logger.Error("failed to fetch transcript", "video_id", videoID, "error", err)
		return "", fmt.Errorf("fetch transcript: %w", err)
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}

	full := domain.CollapseWhitespace(strings.Join(texts, " "))
	if full == "" {
		f.logger.Warn("formatted transcript is empty", "video_id", videoID)
		return "", fmt.Errorf("empty transcript for video %s", videoID)
	}

	full = domain.CapRunes(full, maxTranscriptChars, truncationMarker)

	f.logger.Info("fetched transcript", "video_id", videoID, "chars", len(full))
	return full, nil
}
