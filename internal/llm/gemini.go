package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"web_summarizer/internal/domain"
)

const (
	maxPromptContentChars = 80000
	maxTitleInputChars    = 2000
	truncationMarker      = "... [Content truncated due to size]"
)

const youtubePromptTemplate = `You are a helpful AI assistant that connects to YouTube videos, downloads their transcripts, and provides detailed summaries. Your goal is to create comprehensive and easy-to-understand summaries, highlighting all key points discussed.
Here's how you should operate:
 Receive a YouTube Video URL %s.
 Download the transcript. If a transcript is unavailable, inform the user and cease operation.
 Analyze the transcript to identify key themes and arguments.
 Summarize the video's content, ensuring a comprehensive overview.
 Structure the summary using bullet points where helpful, especially when listing arguments, steps, or different viewpoints.
Use bold or other formatting for bullet points or where it makes sense, for emphasis or to highlight important topics.  Make sure any sub headings are also bold formatted or made to stand out.
 Use clear and concise language.
 Present the information in a logical order.
Do not ask any follow-up questions.

Transcript:
---
%s
---

Summary:`

const webPromptTemplate = `Take the URL that was passed over and summarize it.  %s

Aim to cover the topic thoroughly by exploring various aspects and perspectives.

Response Structure:
Make sure the story is thoroughly expanded, include snippets from the article or page if appropriate.
Provide comprehensive coverage of the topic, including detailed information and multiple perspectives.
Use clear headings and bullet points.
Highlight key takeaways.
Do not ask any follow-up questions.

Content:
---
%s
---

Summary:`

const titlePromptTemplate = `Please summarize the following text into a concise title of less than 10 words. Output only the title itself, without any introductory phrases like "Title:".

Text to summarize into a title:
---
%s
---

Concise Title (less than 10 words):`

// Config holds Gemini client configuration.
type Config struct {
	APIKey         string
	Model          string
	SummaryTimeout time.Duration
	TitleTimeout   time.Duration
	Temperature    float32
	TopP           float32
}

// Gemini generates summaries and titles through the Gemini API. Every
// model call runs on a background goroutine raced against a wall-clock
// timer, so callers never block past the configured ceiling even when
// the underlying client ignores its own timeout knobs.
type Gemini struct {
	client         *genai.Client
	model          string
	summaryTimeout time.Duration
	titleTimeout   time.Duration
	temperature    float32
	topP           float32
	logger         *slog.Logger
}

// New creates a Gemini-backed summarizer.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Gemini, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.SummaryTimeout == 0 {
		cfg.SummaryTimeout = 90 * time.Second
	}
	if cfg.TitleTimeout == 0 {
		cfg.TitleTimeout = 30 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.95
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	logger.Info("gemini client configured", "model", cfg.Model)

	return &Gemini{
		client:         client,
		model:          cfg.Model,
		summaryTimeout: cfg.SummaryTimeout,
		titleTimeout:   cfg.TitleTimeout,
		temperature:    cfg.Temperature,
		topP:           cfg.TopP,
		logger:         logger.With("component", "llm"),
	}, nil
}

// Summarize sends fetched content to the model and returns the summary
// as markdown.
func (g *Gemini) Summarize(ctx context.Context, content, sourceURL string, kind domain.SourceKind) (string, error) {
	if content == "" {
		return "", fmt.Errorf("no content to summarize")
	}

	prompt := buildSummaryPrompt(content, sourceURL, kind)

	g.logger.Info("requesting summary",
		"url", sourceURL,
		"kind", kind,
		"prompt_chars", len(prompt),
	)

	text, err := runBounded(ctx, g.summaryTimeout, func(callCtx context.Context) (string, error) {
		return g.generate(callCtx, prompt)
	})
	if err != nil {
		g.logger.Error("summary generation failed", "url", sourceURL, "error", err)
		return "", fmt.Errorf("generate summary: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// ShortTitle derives a short title from summary markdown.
func (g *Gemini) ShortTitle(ctx context.Context, markdown string) (string, error) {
	if markdown == "" {
		return "", fmt.Errorf("no text to derive a title from")
	}

	prompt := fmt.Sprintf(titlePromptTemplate, domain.CapRunes(markdown, maxTitleInputChars, ""))

	text, err := runBounded(ctx, g.titleTimeout, func(callCtx context.Context) (string, error) {
		return g.generate(callCtx, prompt)
	})
	if err != nil {
		g.logger.Error("title generation failed", "error", err)
		return "", fmt.Errorf("generate title: %w", err)
	}

	title := cleanTitle(text)
	g.logger.Info("generated short title", "title", title)
	return title, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
		TopP:        genai.Ptr(g.topP),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 {
			finishReason = string(resp.Candidates[0].FinishReason)
		}
		blockReason := ""
		if resp.PromptFeedback != nil {
			blockReason = string(resp.PromptFeedback.BlockReason)
		}
		g.logger.Error("model returned empty or blocked response",
			"finish_reason", finishReason,
			"block_reason", blockReason,
		)
		return "", fmt.Errorf("empty model response (finish reason: %s)", finishReason)
	}

	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// runBounded races fn against a wall-clock timer. On timeout fn's
// context is cancelled (best-effort) and the caller gets ErrTimeout.
func runBounded(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (string, error) {
	type result struct {
		text string
		err  error
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		text, err := fn(callCtx)
		ch <- result{text: text, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-timer.C:
		cancel()
		return "", fmt.Errorf("model call exceeded %s: %w", timeout, domain.ErrTimeout)
	case <-ctx.Done():
		cancel()
		return "", ctx.Err()
	}
}

func buildSummaryPrompt(content, sourceURL string, kind domain.SourceKind) string {
	content = domain.CapRunes(content, maxPromptContentChars, truncationMarker)
	if kind == domain.KindYouTubeVideo {
		return fmt.Sprintf(youtubePromptTemplate, sourceURL, content)
	}
	return fmt.Sprintf(webPromptTemplate, sourceURL, content)
}

// cleanTitle strips surrounding quotes and hard-caps overlong answers to
// ten words plus an ellipsis.
func cleanTitle(raw string) string {
	title := strings.Trim(strings.TrimSpace(raw), `"'`)
	words := strings.Fields(title)
	if len(words) > 12 {
		return strings.Join(words[:10], " ") + "..."
	}
	return title
}
