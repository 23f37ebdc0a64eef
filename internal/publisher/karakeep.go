package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"web_summarizer/internal/domain"
)

const (
	maxBookmarkTitleChars = 255

	listTimeout   = 15 * time.Second
	createTimeout = 20 * time.Second
	linkTimeout   = 15 * time.Second
)

// listDataKeys are the conventional wrapper keys tried, in order, when
// the lists endpoint answers with an object instead of a bare array.
var listDataKeys = []string{"data", "results", "items", "lists"}

// KarakeepConfig holds bookmark service configuration.
type KarakeepConfig struct {
	APIURL   string
	APIKey   string
	ListName string
}

// Karakeep publishes summaries to the bookmark service using its
// three-step protocol: resolve the target list id, create a bookmark,
// then link the bookmark into the list. The steps are not transactional;
// a failure after create leaves an unlinked bookmark behind.
type Karakeep struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	listName   string
	logger     *slog.Logger
}

// NewKarakeep creates a bookmark publisher.
func NewKarakeep(cfg KarakeepConfig, logger *slog.Logger) *Karakeep {
	return &Karakeep{
		httpClient: &http.Client{},
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		apiKey:     cfg.APIKey,
		listName:   cfg.ListName,
		logger:     logger.With("publisher", "karakeep"),
	}
}

// Publish runs the full create-then-link protocol. Only a clean
// completion of all three steps counts as success.
func (k *Karakeep) Publish(ctx context.Context, title, markdown, originalURL string) error {
	listID, err := k.resolveListID(ctx)
	if err != nil {
		return fmt.Errorf("resolve list id: %w", err)
	}

	bookmarkID, err := k.createBookmark(ctx, title, markdown, originalURL)
	if err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}

	if err := k.linkBookmark(ctx, listID, bookmarkID); err != nil {
		return fmt.Errorf("link bookmark %s to list %s: %w", bookmarkID, listID, err)
	}

	k.logger.Info("published summary to bookmark list",
		"list", k.listName,
		"bookmark_id", bookmarkID,
	)
	return nil
}

type listEntry struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

func (k *Karakeep) resolveListID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	body, err := k.doRequest(ctx, http.MethodGet, k.apiURL+"/lists", nil)
	if err != nil {
		return "", err
	}

	var raw json.RawMessage = body

	// The endpoint answers either with a bare array of lists or with an
	// object wrapping the array under a conventional key.
	var entries []listEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return "", fmt.Errorf("unrecognized lists response shape")
		}
		found := false
		for _, key := range listDataKeys {
			inner, ok := wrapper[key]
			if !ok {
				continue
			}
			if err := json.Unmarshal(inner, &entries); err == nil {
				found = true
				break
			}
		}
		if !found {
			k.logger.Error("lists response had no recognized data key", "keys_tried", listDataKeys)
			return "", fmt.Errorf("no list data under expected keys")
		}
	}

	for _, entry := range entries {
		if entry.Name != k.listName {
			continue
		}
		id := idToString(entry.ID)
		if id == "" {
			k.logger.Error("matching list entry has no usable id", "list", k.listName)
			return "", fmt.Errorf("list %q has no id field", k.listName)
		}
		return id, nil
	}

	return "", fmt.Errorf("list %q not found", k.listName)
}

type createBookmarkPayload struct {
	Title      string `json:"title"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Archived   bool   `json:"archived"`
	Favourited bool   `json:"favourited"`
	URL        string `json:"url"`
	Note       string `json:"note"`
}

func (k *Karakeep) createBookmark(ctx context.Context, title, markdown, originalURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, createTimeout)
	defer cancel()

	title = domain.CapRunes(title, maxBookmarkTitleChars, "")

	// The list id is deliberately absent here; linking is a separate step.
	payload := createBookmarkPayload{
		Title:      title,
		Text:       markdown,
		Type:       "text",
		Archived:   false,
		Favourited: false,
		URL:        originalURL,
		Note:       "Summary generated from: " + originalURL,
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	body, err := k.doRequest(ctx, http.MethodPost, k.apiURL+"/bookmarks", reqBody)
	if err != nil {
		return "", err
	}

	var created struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}

	id := idToString(created.ID)
	if id == "" {
		return "", fmt.Errorf("create response has no id field")
	}
	return id, nil
}

func (k *Karakeep) linkBookmark(ctx context.Context, listID, bookmarkID string) error {
	ctx, cancel := context.WithTimeout(ctx, linkTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/lists/%s/bookmarks/%s", k.apiURL, listID, bookmarkID)
	_, err := k.doRequest(ctx, http.MethodPut, url, []byte("{}"))
	return err
}

func (k *Karakeep) doRequest(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+k.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		k.logger.Error("bookmark service returned error",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, url, resp.StatusCode)
	}

	return respBody, nil
}

// idToString normalizes an id field that may arrive as a JSON string or
// number.
func idToString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
