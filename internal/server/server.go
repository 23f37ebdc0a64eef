package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"web_summarizer/internal/domain"
)

const (
	tokenCookie = "summary_token"
	flashCookie = "flash"
)

// Pipeline is the part of the summarization service the HTTP layer
// needs.
type Pipeline interface {
	Summarize(ctx context.Context, rawURL string) (string, error)
	TakeSummary(ctx context.Context, token string) (*domain.PendingSummary, error)
	SendToBookmarks(ctx context.Context, originalURL, markdown string) error
	BookmarksEnabled() bool
}

// Server exposes the summarization pipeline over HTTP.
type Server struct {
	pipeline Pipeline
	cookies  *CookieSigner
	logger   *slog.Logger
	mux      *http.ServeMux
}

// New builds the HTTP server around the pipeline.
func New(pipeline Pipeline, sessionSecret string, logger *slog.Logger) *Server {
	s := &Server{
		pipeline: pipeline,
		cookies:  NewCookieSigner(sessionSecret),
		logger:   logger.With("component", "server"),
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /summarize", s.handleSummarize)
	s.mux.HandleFunc("GET /show_summary", s.handleShowSummary)
	s.mux.HandleFunc("POST /send_to_bookmark_service", s.handleSendToBookmarks)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{Flash: s.popFlash(w, r)}

	if prefill := r.URL.Query().Get("url"); prefill != "" {
		if _, err := domain.Classify(prefill); err != nil {
			s.logger.Warn("invalid url in query parameter", "url", prefill)
			data.Flash = &flashData{Level: "error", Message: "Invalid URL format provided in the link. Please check the URL."}
		} else {
			data.PrefillURL = prefill
		}
	}

	s.render(w, indexTmpl, data)
}

type summarizeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Invalid request format. Expected JSON.",
		})
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "No URL provided.",
		})
		return
	}

	token, err := s.pipeline.Summarize(r.Context(), req.URL)
	if err != nil {
		status, message := failureResponse(err)
		s.logger.Error("summarization failed", "url", req.URL, "error", err)
		s.writeJSON(w, status, map[string]string{"status": "error", "message": message})
		return
	}

	// Only the token travels back; the payload waits in the store for
	// the follow-up request.
	s.cookies.Set(w, tokenCookie, token)
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"redirect_url": "/show_summary",
	})
}

func (s *Server) handleShowSummary(w http.ResponseWriter, r *http.Request) {
	token, ok := s.cookies.Read(r, tokenCookie)
	s.cookies.Clear(w, tokenCookie)
	if !ok {
		s.flashRedirect(w, r, "info", "No summary data found. Please generate a summary first.")
		return
	}

	summary, err := s.pipeline.TakeSummary(r.Context(), token)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to load pending summary", "error", err)
		}
		s.flashRedirect(w, r, "error", "Summary data could not be retrieved. Please try again.")
		return
	}

	s.render(w, summaryTmpl, summaryData{
		OriginalURL:      summary.OriginalURL,
		SummaryHTML:      template.HTML(summary.SummaryHTML),
		SummaryMarkdown:  summary.SummaryMarkdown,
		BookmarksEnabled: s.pipeline.BookmarksEnabled(),
	})
}

func (s *Server) handleSendToBookmarks(w http.ResponseWriter, r *http.Request) {
	if !s.pipeline.BookmarksEnabled() {
		s.flashRedirect(w, r, "error", "Bookmark integration is not enabled.")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.flashRedirect(w, r, "error", "Invalid form submission.")
		return
	}

	originalURL := r.PostFormValue("original_url")
	markdown := r.PostFormValue("summary_markdown")
	if originalURL == "" || markdown == "" {
		s.flashRedirect(w, r, "error", "Missing summary data for bookmark submission.")
		return
	}

	if err := s.pipeline.SendToBookmarks(r.Context(), originalURL, markdown); err != nil {
		s.logger.Error("bookmark publish failed", "url", originalURL, "error", err)
		s.flashRedirect(w, r, "error", userMessage(err, "Failed to send summary to the bookmark service."))
		return
	}

	s.flashRedirect(w, r, "success", "Summary sent to the bookmark service.")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// popFlash reads and clears the flash cookie.
func (s *Server) popFlash(w http.ResponseWriter, r *http.Request) *flashData {
	value, ok := s.cookies.Read(r, flashCookie)
	if !ok {
		return nil
	}
	s.cookies.Clear(w, flashCookie)

	level, message, ok := strings.Cut(value, "|")
	if !ok {
		return nil
	}
	return &flashData{Level: level, Message: message}
}

func (s *Server) flashRedirect(w http.ResponseWriter, r *http.Request, level, message string) {
	s.cookies.Set(w, flashCookie, level+"|"+message)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		s.logger.Error("template render failed", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// failureResponse maps a pipeline failure to an HTTP status and a
// user-safe message. Validation failures are the client's fault; every
// downstream failure is a server-side 500.
func failureResponse(err error) (int, string) {
	var pErr *domain.PipelineError
	if errors.As(err, &pErr) {
		if pErr.Kind == domain.FailValidation {
			return http.StatusBadRequest, pErr.Message
		}
		return http.StatusInternalServerError, pErr.Message
	}
	return http.StatusInternalServerError, "An unexpected server error occurred."
}

func userMessage(err error, fallback string) string {
	var pErr *domain.PipelineError
	if errors.As(err, &pErr) {
		return pErr.Message
	}
	return fallback
}
