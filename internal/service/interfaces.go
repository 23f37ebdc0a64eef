package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"web_summarizer/internal/domain"
)

type WebFetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, content, sourceURL string, kind domain.SourceKind) (string, error)
	ShortTitle(ctx context.Context, markdown string) (string, error)
}

type SummaryStore interface {
	Put(ctx context.Context, summary *domain.PendingSummary) (string, error)
	Take(ctx context.Context, token string) (*domain.PendingSummary, error)
}

type BookmarkPublisher interface {
	Publish(ctx context.Context, title, markdown, originalURL string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, summary *domain.PendingSummary, kind domain.SourceKind) error
	Close() error
}
