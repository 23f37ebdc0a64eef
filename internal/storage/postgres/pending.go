package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"web_summarizer/internal/domain"
)

// PendingSummaryStore keeps pending summaries in Postgres so the
// compute/display handoff survives multi-replica deployments. Take is a
// single DELETE ... RETURNING, which makes the destructive read atomic
// without explicit locking.
type PendingSummaryStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewPendingSummaryStore creates a Postgres-backed summary store whose
// entries expire after ttl.
func NewPendingSummaryStore(db *sqlx.DB, ttl time.Duration) *PendingSummaryStore {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &PendingSummaryStore{db: db, ttl: ttl}
}

// Put stores the summary under a fresh random token and returns it.
func (s *PendingSummaryStore) Put(ctx context.Context, summary *domain.PendingSummary) (string, error) {
	token := uuid.NewString()

	query := `
		INSERT INTO pending_summaries (token, original_url, summary_html, summary_markdown, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		token,
		summary.OriginalURL,
		summary.SummaryHTML,
		summary.SummaryMarkdown,
		time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert pending summary: %w", err)
	}

	return token, nil
}

// Take destructively reads the entry for token. Absent, expired, or
// unreadable rows all report domain.ErrNotFound; the row is removed in
// every case.
func (s *PendingSummaryStore) Take(ctx context.Context, token string) (*domain.PendingSummary, error) {
	var summary domain.PendingSummary

	query := `
		DELETE FROM pending_summaries
		WHERE token = $1
		RETURNING token, original_url, summary_html, summary_markdown, created_at`

	err := s.db.GetContext(ctx, &summary, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		// The row (if any) is gone either way; an unreadable record is
		// treated the same as an absent one.
		return nil, domain.ErrNotFound
	}

	if time.Since(summary.CreatedAt) > s.ttl {
		return nil, domain.ErrNotFound
	}

	return &summary, nil
}
