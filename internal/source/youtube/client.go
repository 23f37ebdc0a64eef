package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Innertube ANDROID client constants. The ANDROID player endpoint
// returns caption tracks without the PoToken dance the WEB client needs.
const (
	defaultBaseURL     = "https://www.youtube.com"
	playerPath         = "/youtubei/v1/player"
	androidVersion     = "20.10.38"
	androidSDKVersion  = 30
	androidUserAgent   = "com.google.android.youtube/" + androidVersion + " (Linux; U; Android 11) gzip"
	maxPlayerRespBytes = 3 * 1024 * 1024
	maxTimedTextBytes  = 512 * 1024
)

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// timedTextDoc covers both caption XML shapes: the classic
// <transcript><text>...</text></transcript> document and the srv3
// <timedtext><body><p>...</p></body></timedtext> variant.
type timedTextDoc struct {
	Texts []xmlSegment `xml:"text"`
	Body  struct {
		Lines []xmlSegment `xml:"p"`
	} `xml:"body"`
}

type xmlSegment struct {
	Text  string `xml:",chardata"`
	Words []struct {
		Text string `xml:",chardata"`
	} `xml:"s"`
}

// Client talks to the YouTube Innertube API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an Innertube client. baseURL is overridable so tests
// can point it at a local server; empty means the real endpoint.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With("fetcher", "youtube"),
	}
}

// ListTranscripts asks the player endpoint for the video's caption
// tracks. Videos with captions disabled, or no caption data at all,
// produce an error rather than an empty list.
func (c *Client) ListTranscripts(ctx context.Context, videoID string) (*TranscriptList, error) {
	reqBody, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{
			Client: playerClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: androidSDKVersion,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal player request: %w", err)
	}

	url := c.baseURL + playerPath + "?prettyPrint=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("player endpoint status %d: %s", resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlayerRespBytes))
	if err != nil {
		return nil, fmt.Errorf("read player response: %w", err)
	}

	var player playerResponse
	if err := json.Unmarshal(body, &player); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}

	if player.PlayabilityStatus != nil && player.PlayabilityStatus.Status != "OK" {
		return nil, fmt.Errorf("video not playable: %s (%s)",
			player.PlayabilityStatus.Status, player.PlayabilityStatus.Reason)
	}

	if player.Captions == nil {
		return nil, fmt.Errorf("transcripts are disabled or unavailable for video %s", videoID)
	}

	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("no transcripts available for video %s", videoID)
	}

	c.logger.Debug("listed caption tracks", "video_id", videoID, "tracks", len(tracks))

	return &TranscriptList{client: c, videoID: videoID, tracks: tracks}, nil
}

// TranscriptList is the set of caption tracks available for one video.
type TranscriptList struct {
	client  *Client
	videoID string
	tracks  []captionTrack
}

// FindManuallyCreated returns the first manually authored transcript
// whose language is in langs.
func (l *TranscriptList) FindManuallyCreated(langs []string) (*Transcript, bool) {
	for _, lang := range langs {
		for _, t := range l.tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return l.transcript(t), true
			}
		}
	}
	return nil, false
}

// FindGenerated returns the first auto-generated transcript whose
// language is in langs.
func (l *TranscriptList) FindGenerated(langs []string) (*Transcript, bool) {
	for _, lang := range langs {
		for _, t := range l.tracks {
			if t.LanguageCode == lang && t.Kind == "asr" {
				return l.transcript(t), true
			}
		}
	}
	return nil, false
}

// First returns the first transcript in any language.
func (l *TranscriptList) First() (*Transcript, bool) {
	if len(l.tracks) == 0 {
		return nil, false
	}
	return l.transcript(l.tracks[0]), true
}

func (l *TranscriptList) transcript(t captionTrack) *Transcript {
	return &Transcript{
		client:       l.client,
		videoID:      l.videoID,
		LanguageCode: t.LanguageCode,
		Generated:    t.Kind == "asr",
		baseURL:      t.BaseURL,
	}
}

// Transcript is a single selectable caption track.
type Transcript struct {
	client       *Client
	videoID      string
	LanguageCode string
	Generated    bool
	baseURL      string
}

// Segment is one caption cue's text.
type Segment struct {
	Text string
}

// Fetch downloads and parses the track's timedtext XML.
func (t *Transcript) Fetch(ctx context.Context) ([]Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", androidUserAgent)

	resp, err := t.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timedtext status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTimedTextBytes))
	if err != nil {
		return nil, fmt.Errorf("read timedtext: %w", err)
	}

	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	nodes := doc.Texts
	if len(nodes) == 0 {
		nodes = doc.Body.Lines
	}

	segments := make([]Segment, 0, len(nodes))
	for _, node := range nodes {
		text := node.Text
		if strings.TrimSpace(text) == "" && len(node.Words) > 0 {
			parts := make([]string, 0, len(node.Words))
			for _, w := range node.Words {
				parts = append(parts, w.Text)
			}
			text = strings.Join(parts, "")
		}
		if strings.TrimSpace(text) == "" {
			t.client.logger.Warn("skipping unrecognized caption segment", "video_id", t.videoID)
			continue
		}
		segments = append(segments, Segment{Text: text})
	}

	return segments, nil
}
