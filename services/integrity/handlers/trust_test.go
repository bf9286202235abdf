// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// Tests for the trust-score endpoint: body shapes and persistence.

package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/integrity/services/integrity/store"
)

func trustRouter(results store.ResultStore) *gin.Engine {
	router := gin.New()
	router.POST("/v1/integrity/trust-score", HandleTrustScore(results))
	return router
}

func TestHandleTrustScore_BareArray(t *testing.T) {
	router := trustRouter(nil)

	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", []any{
		map[string]any{"questionId": "q1", "timing": 500, "pauses": 0, "locationAnomalies": false},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(60), body["trustScore"])
	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, float64(40), breakdown["fast"])
}

func TestHandleTrustScore_WrappedObject(t *testing.T) {
	router := trustRouter(nil)

	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", map[string]any{
		"responses": []any{
			map[string]any{"questionId": "q1", "timing": 5000},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decodeBody(t, w)["trustScore"])
}

func TestHandleTrustScore_EmptyArrayScoresFullTrust(t *testing.T) {
	router := trustRouter(nil)

	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", []any{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decodeBody(t, w)["trustScore"])
}

func TestHandleTrustScore_GarbageEntriesCoerced(t *testing.T) {
	router := trustRouter(nil)

	// Non-object entries drop, malformed fields coerce; never a 400.
	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", []any{
		"not an object",
		map[string]any{"questionId": "q1", "timing": "soon", "pauses": -3},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	score := body["trustScore"].(float64)
	assert.GreaterOrEqual(t, score, float64(0))
	assert.LessOrEqual(t, score, float64(100))
}

func TestHandleTrustScore_RejectsNonArrayBody(t *testing.T) {
	router := trustRouter(nil)

	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", map[string]any{
		"responses": "not an array",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t,
		"Invalid payload. Expected an array of responses or { responses: [...] }",
		decodeBody(t, w)["error"])
}

func TestHandleTrustScore_PersistsWhenSessionIDPresent(t *testing.T) {
	results := store.NewMemoryStore()
	router := trustRouter(results)

	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", map[string]any{
		"sessionId": "sess-42",
		"responses": []any{
			map[string]any{"questionId": "q1", "timing": 500},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	saved, err := results.Get(context.Background(), "sess-42")
	require.NoError(t, err)
	assert.Equal(t, 60, saved.TrustScore)
	assert.Equal(t, "medium", saved.Band)
	assert.False(t, saved.ScoredAt.IsZero())
}

func TestHandleTrustScore_NoSessionIDSkipsPersistence(t *testing.T) {
	results := store.NewMemoryStore()
	router := trustRouter(results)

	w := performJSON(router, http.MethodPost, "/v1/integrity/trust-score", []any{
		map[string]any{"questionId": "q1", "timing": 500},
	})
	require.Equal(t, http.StatusOK, w.Code)

	_, err := results.Get(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
