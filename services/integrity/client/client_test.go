// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// Tests for the remote engine client.

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

func TestScore_PostsResponsesAndDecodesResult(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trustScore":60,"breakdown":{"fast":40,"slow":0,"pause":0,"location":0}}`))
	}))
	defer server.Close()

	c := New(server.URL)
	score, breakdown, err := c.Score(context.Background(), []datatypes.ResponseMeta{
		{QuestionID: "q1", TimingMs: 500},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/integrity/trust-score", gotPath)
	require.Contains(t, gotBody, "responses")
	assert.Equal(t, 60, score)
	assert.InDelta(t, 40.0, breakdown.Fast, 1e-9)
}

func TestAudit_DecodesVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/integrity/audit", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "en", body["locale"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"issues":[{"id":"i1","type":"contradiction","message":"Conflicting answers","severity":"warn"}],"consistencyScore":65}`))
	}))
	defer server.Close()

	c := New(server.URL)
	result, err := c.Audit(context.Background(), datatypes.SurveySchema{Title: "t"},
		map[string]datatypes.AnswerValue{"q1": "yes"}, "en")
	require.NoError(t, err)

	assert.Equal(t, 65, result.ConsistencyScore)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "contradiction", result.Issues[0].Kind)
}

func TestCategorize_OmitsEmptyOptionalFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/integrity/autocode", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"coded":[{"text":"a long enough answer","categories":[]}]}`))
	}))
	defer server.Close()

	c := New(server.URL)
	result, err := c.Categorize(context.Background(), []string{"a long enough answer"}, nil, 0, "")
	require.NoError(t, err)

	assert.NotContains(t, gotBody, "taxonomy")
	assert.NotContains(t, gotBody, "n")
	assert.NotContains(t, gotBody, "language")
	require.Len(t, result.Coded, 1)
}

func TestClient_SendsBearerKey(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"trustScore":100,"breakdown":{}}`))
	}))
	defer server.Close()

	c := New(server.URL, WithAPIKey("sk-test-123"))
	_, _, err := c.Score(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test-123", gotAuth)
}

func TestClient_SurfacesServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"AI validation failed"}`))
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Audit(context.Background(), datatypes.SurveySchema{}, nil, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "AI validation failed")
}

func TestClient_UnreachableEngineErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := New(server.URL)
	_, _, err := c.Score(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity engine unreachable")
}
