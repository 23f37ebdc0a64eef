package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"web_summarizer/internal/domain"
)

// purgeThreshold bounds how many orphaned entries accumulate before Put
// sweeps expired ones. There is no background reaper; expiry is only
// enforced at access time.
const purgeThreshold = 1000

type entry struct {
	summary   domain.PendingSummary
	expiresAt time.Time
}

// Store is a mutex-guarded in-process summary store. Tokens are
// single-use: a successful Take deletes the entry.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	logger  *slog.Logger
}

// New creates a memory store whose entries expire after ttl.
func New(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger.With("store", "memory"),
	}
}

// Put stores the summary under a fresh random token and returns it.
func (s *Store) Put(_ context.Context, summary *domain.PendingSummary) (string, error) {
	token := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > purgeThreshold {
		for k, v := range s.entries {
			if now.After(v.expiresAt) {
				delete(s.entries, k)
			}
		}
	}

	stored := *summary
	stored.Token = token
	stored.CreatedAt = now

	s.entries[token] = entry{summary: stored, expiresAt: now.Add(s.ttl)}

	s.logger.Debug("stored pending summary", "token", token)
	return token, nil
}

// Take destructively reads the entry for token. A second Take with the
// same token, or an expired entry, reports domain.ErrNotFound.
func (s *Store) Take(_ context.Context, token string) (*domain.PendingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(s.entries, token)

	if time.Now().After(e.expiresAt) {
		s.logger.Debug("pending summary expired", "token", token)
		return nil, domain.ErrNotFound
	}

	summary := e.summary
	return &summary, nil
}
