package domain

import "time"

// SourceKind distinguishes the two supported content sources. It drives
// both the fetch strategy and the prompt template used for summarization.
type SourceKind string

const (
	KindWebPage      SourceKind = "webpage"
	KindYouTubeVideo SourceKind = "youtube"
)

// SourceRef is a classified input URL. Immutable once built by Classify.
type SourceRef struct {
	RawURL  string
	Kind    SourceKind
	VideoID string // set only when Kind is KindYouTubeVideo
}

// PendingSummary is a completed summarization result parked in the
// ephemeral store between the compute request and the display request.
type PendingSummary struct {
	Token           string    `db:"token" json:"-"`
	OriginalURL     string    `db:"original_url" json:"original_url"`
	SummaryHTML     string    `db:"summary_html" json:"summary_html"`
	SummaryMarkdown string    `db:"summary_markdown" json:"summary_markdown"`
	CreatedAt       time.Time `db:"created_at" json:"-"`
}
