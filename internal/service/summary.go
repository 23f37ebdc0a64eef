package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"web_summarizer/internal/domain"
)

// User-facing messages for each failure point. Internal detail never
// crosses the pipeline boundary.
const (
	msgInvalidURL       = "Invalid URL format. Please include http:// or https://"
	msgTranscriptFailed = "Could not fetch transcript. Transcripts might be disabled or unavailable."
	msgPageFailed       = "Could not fetch or process content. Site might be inaccessible or blocking requests."
	msgSummaryFailed    = "Failed to generate summary. LLM might be unavailable or had an issue."
	msgStoreFailed      = "Server error: Failed to store summary data."
	msgTitleFailed      = "Failed to generate a title for the bookmark."
	msgPublishFailed    = "Failed to send the summary to the bookmark service."
)

// SummaryService runs the summarization pipeline: classify, fetch,
// summarize, store, and optionally publish. Every request is strictly
// sequential with no automatic retries.
type SummaryService struct {
	web         WebFetcher
	transcripts TranscriptFetcher
	summarizer  Summarizer
	store       SummaryStore
	bookmarks   BookmarkPublisher
	events      EventPublisher
	logger      *slog.Logger
}

// NewSummaryService wires the pipeline. bookmarks and events may be nil
// when the corresponding integration is not configured.
func NewSummaryService(
	web WebFetcher,
	transcripts TranscriptFetcher,
	summarizer Summarizer,
	store SummaryStore,
	bookmarks BookmarkPublisher,
	events EventPublisher,
	logger *slog.Logger,
) *SummaryService {
	return &SummaryService{
		web:         web,
		transcripts: transcripts,
		summarizer:  summarizer,
		store:       store,
		bookmarks:   bookmarks,
		events:      events,
		logger:      logger.With("component", "service"),
	}
}

// Summarize runs the pipeline for one URL and returns the one-time
// token under which the result was stored. The payload itself is never
// returned here; the caller redeems the token in a separate request.
func (s *SummaryService) Summarize(ctx context.Context, rawURL string) (string, error) {
	ref, err := domain.Classify(rawURL)
	if err != nil {
		s.logger.Warn("rejected invalid url", "url", rawURL, "error", err)
		return "", domain.NewPipelineError(domain.FailValidation, msgInvalidURL, err)
	}

	var content string
	switch ref.Kind {
	case domain.KindYouTubeVideo:
		s.logger.Info("processing youtube url", "url", rawURL, "video_id", ref.VideoID)
		content, err = s.transcripts.FetchTranscript(ctx, ref.VideoID)
		if err != nil {
			return "", fetchFailure(err, msgTranscriptFailed)
		}
	default:
		s.logger.Info("processing web page", "url", rawURL)
		content, err = s.web.FetchPage(ctx, ref.RawURL)
		if err != nil {
			return "", fetchFailure(err, msgPageFailed)
		}
	}

	markdown, err := s.summarizer.Summarize(ctx, content, ref.RawURL, ref.Kind)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			return "", domain.NewPipelineError(domain.FailTimeout, msgSummaryFailed, err)
		}
		return "", domain.NewPipelineError(domain.FailSummary, msgSummaryFailed, err)
	}

	html, err := renderMarkdown(markdown)
	if err != nil {
		return "", domain.NewPipelineError(domain.FailSummary, msgSummaryFailed, err)
	}

	summary := &domain.PendingSummary{
		OriginalURL:     ref.RawURL,
		SummaryHTML:     html,
		SummaryMarkdown: markdown,
	}

	token, err := s.store.Put(ctx, summary)
	if err != nil {
		return "", domain.NewPipelineError(domain.FailStorage, msgStoreFailed, err)
	}

	s.logger.Info("stored pending summary", "url", rawURL, "kind", ref.Kind)

	// Event fan-out is best-effort and never fails the pipeline.
	if s.events != nil {
		if err := s.events.Publish(ctx, summary, ref.Kind); err != nil {
			s.logger.Error("failed to publish summary event", "url", rawURL, "error", err)
		}
	}

	return token, nil
}

// TakeSummary redeems a one-time token. Absent or expired tokens report
// domain.ErrNotFound.
func (s *SummaryService) TakeSummary(ctx context.Context, token string) (*domain.PendingSummary, error) {
	summary, err := s.store.Take(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("pending summary not found", "token", token)
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("take summary: %w", err)
	}
	return summary, nil
}

// SendToBookmarks derives a short title from the markdown and runs the
// bookmark publish protocol. A failure here never touches the summary
// the user already has.
func (s *SummaryService) SendToBookmarks(ctx context.Context, originalURL, markdown string) error {
	if s.bookmarks == nil {
		return domain.NewPipelineError(domain.FailPublish, msgPublishFailed,
			fmt.Errorf("bookmark publishing is not configured"))
	}

	title, err := s.summarizer.ShortTitle(ctx, markdown)
	if err != nil {
		return domain.NewPipelineError(domain.FailPublish, msgTitleFailed, err)
	}

	if err := s.bookmarks.Publish(ctx, title, markdown, originalURL); err != nil {
		return domain.NewPipelineError(domain.FailPublish, msgPublishFailed, err)
	}

	s.logger.Info("sent summary to bookmark service", "url", originalURL)
	return nil
}

// BookmarksEnabled reports whether the bookmark integration is
// configured.
func (s *SummaryService) BookmarksEnabled() bool {
	return s.bookmarks != nil
}

func fetchFailure(err error, message string) error {
	if errors.Is(err, domain.ErrTimeout) {
		return domain.NewPipelineError(domain.FailTimeout, message, err)
	}
	return domain.NewPipelineError(domain.FailFetch, message, err)
}
