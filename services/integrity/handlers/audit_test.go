// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// Tests for the consistency-audit endpoint.

package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/integrity/services/integrity/audit"
)

func auditRouter(mock *mockReasoningClient) *gin.Engine {
	router := gin.New()
	router.POST("/v1/integrity/audit", HandleAudit(audit.New(mock)))
	return router
}

func auditBody() map[string]any {
	return map[string]any{
		"survey": map[string]any{
			"title": "Health Check-in",
			"questions": []any{
				map[string]any{"id": "q1", "type": "single-choice", "title": "Overall health?"},
			},
		},
		"answers": map[string]any{"q1": "excellent"},
	}
}

func TestHandleAudit_Success(t *testing.T) {
	mock := &mockReasoningClient{
		response: `{"issues":[{"id":"i1","questionId":"q1","type":"contradiction","message":"Conflicts with q2","severity":"warn"}],"consistencyScore":72}`,
	}
	router := auditRouter(mock)

	w := performJSON(router, http.MethodPost, "/v1/integrity/audit", auditBody())
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(72), body["consistencyScore"])
	issues := body["issues"].([]any)
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]any)
	assert.Equal(t, "contradiction", issue["type"])
}

func TestHandleAudit_MissingFieldsRejected(t *testing.T) {
	router := auditRouter(&mockReasoningClient{})

	for _, body := range []map[string]any{
		{"answers": map[string]any{"q1": "yes"}},
		{"survey": map[string]any{"title": "t"}},
		{},
	} {
		w := performJSON(router, http.MethodPost, "/v1/integrity/audit", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "survey and answers are required", decodeBody(t, w)["error"])
	}
}

// TestHandleAudit_MalformedUpstreamStaysOK verifies the boundary never
// sees a parse failure: the auditor already degraded it to the safe
// default.
func TestHandleAudit_MalformedUpstreamStaysOK(t *testing.T) {
	mock := &mockReasoningClient{response: "the model rambled instead of emitting JSON"}
	router := auditRouter(mock)

	w := performJSON(router, http.MethodPost, "/v1/integrity/audit", auditBody())
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(100), body["consistencyScore"])
	assert.Empty(t, body["issues"])
}

func TestHandleAudit_TransportFailureIs500(t *testing.T) {
	mock := &mockReasoningClient{err: errors.New("upstream unreachable")}
	router := auditRouter(mock)

	w := performJSON(router, http.MethodPost, "/v1/integrity/audit", auditBody())
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "AI validation failed", decodeBody(t, w)["error"])
}
