// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// Tests for the in-memory result store.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

func sampleResult(sessionID string) *ScoredResult {
	return &ScoredResult{
		SessionID:  sessionID,
		TrustScore: 73,
		Breakdown:  datatypes.TrustBreakdown{Fast: 10, Slow: 2.5, Pause: 7.5, Location: 7.5},
		Band:       "medium",
		ScoredAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("sess-1")))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 73, got.TrustScore)
	assert.Equal(t, "medium", got.Band)
	assert.InDelta(t, 10.0, got.Breakdown.Fast, 1e-9)
}

func TestMemoryStore_GetMissingReturnsNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SaveOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("sess-1")))
	updated := sampleResult("sess-1")
	updated.TrustScore = 100
	updated.Band = "high"
	require.NoError(t, s.Save(ctx, updated))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.TrustScore)
	assert.Equal(t, "high", got.Band)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleResult("sess-1")))

	first, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	first.TrustScore = -1

	second, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 73, second.TrustScore)
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleResult("sess-1")))

	require.NoError(t, s.Delete(ctx, "sess-1"))
	_, err := s.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is a no-op, not an error.
	assert.NoError(t, s.Delete(ctx, "sess-1"))
}
