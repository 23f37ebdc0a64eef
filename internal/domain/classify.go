package domain

import (
	"fmt"
	"net/url"
	"regexp"
)

// youtubePatterns cover the recognized YouTube video URL shapes, each
// isolating an exactly-11-character video id. Order matters: the first
// match wins.
var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// Classify validates a raw input URL and decides whether it refers to a
// YouTube video or a generic web page. Pure function, no I/O.
func Classify(raw string) (SourceRef, error) {
	if raw == "" {
		return SourceRef{}, fmt.Errorf("empty url")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return SourceRef{}, fmt.Errorf("parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return SourceRef{}, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return SourceRef{}, fmt.Errorf("missing host")
	}

	for _, pattern := range youtubePatterns {
		if m := pattern.FindStringSubmatch(raw); m != nil {
			return SourceRef{RawURL: raw, Kind: KindYouTubeVideo, VideoID: m[1]}, nil
		}
	}

	return SourceRef{RawURL: raw, Kind: KindWebPage}, nil
}
