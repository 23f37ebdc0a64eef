package memory

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"web_summarizer/internal/domain"
)

func newTestStore(ttl time.Duration) *Store {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(ttl, logger)
}

func TestPutTake_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	token, err := store.Put(ctx, &domain.PendingSummary{
		OriginalURL:     "https://example.com/article",
		SummaryHTML:     "<p>summary</p>",
		SummaryMarkdown: "summary",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := store.Take(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/article", got.OriginalURL)
	assert.Equal(t, "<p>summary</p>", got.SummaryHTML)
	assert.Equal(t, "summary", got.SummaryMarkdown)
	assert.Equal(t, token, got.Token)
}

func TestTake_SecondReadIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	token, err := store.Put(ctx, &domain.PendingSummary{OriginalURL: "https://example.com"})
	require.NoError(t, err)

	_, err = store.Take(ctx, token)
	require.NoError(t, err)

	_, err = store.Take(ctx, token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTake_UnknownToken(t *testing.T) {
	store := newTestStore(time.Minute)

	_, err := store.Take(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTake_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Nanosecond)

	token, err := store.Put(ctx, &domain.PendingSummary{OriginalURL: "https://example.com"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = store.Take(ctx, token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPut_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := store.Put(ctx, &domain.PendingSummary{OriginalURL: "https://example.com"})
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
