// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// Smoke tests for route registration and endpoint guarding.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldlens/integrity/services/integrity/audit"
	"github.com/fieldlens/integrity/services/integrity/coding"
	"github.com/fieldlens/integrity/services/integrity/datatypes"
	"github.com/fieldlens/integrity/services/integrity/store"
	"github.com/fieldlens/integrity/services/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := datatypes.RegisterValidations(v); err != nil {
			panic(err)
		}
	}
}

type staticReasoningClient struct{ response string }

func (s staticReasoningClient) Complete(context.Context, string, string, llm.CompletionParams) (string, error) {
	return s.response, nil
}

func testRouter(apiKey string) *gin.Engine {
	client := staticReasoningClient{response: `{"issues":[],"consistencyScore":100}`}
	router := gin.New()
	SetupRoutes(router, Deps{
		Auditor: audit.New(client),
		Coder:   coding.New(client),
		Results: store.NewMemoryStore(),
		APIKey:  apiKey,
	})
	return router
}

func request(router *gin.Engine, method, path, body, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupRoutes_PublicEndpoints(t *testing.T) {
	router := testRouter("sk-guard")

	// Health and metrics stay open even when the API is keyed.
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, request(router, http.MethodGet, "/metrics", "", "").Code)
}

func TestSetupRoutes_GuardedEndpoints(t *testing.T) {
	router := testRouter("sk-guard")

	paths := []struct{ method, path, body string }{
		{http.MethodPost, "/v1/integrity/trust-score", `[]`},
		{http.MethodPost, "/v1/integrity/audit", `{}`},
		{http.MethodPost, "/v1/integrity/autocode", `{}`},
		{http.MethodGet, "/v1/integrity/results/sess-1", ""},
	}
	for _, p := range paths {
		w := request(router, p.method, p.path, p.body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", p.method, p.path)
	}
}

func TestSetupRoutes_EndToEndTrustScore(t *testing.T) {
	router := testRouter("")

	w := request(router, http.MethodPost, "/v1/integrity/trust-score",
		`[{"questionId":"q1","timing":500}]`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"trustScore":60`)
}

func TestSetupRoutes_EndToEndAudit(t *testing.T) {
	router := testRouter("sk-guard")

	body := `{"survey":{"questions":[{"id":"q1","type":"text","title":"Comments?"}]},"answers":{"q1":"all good"}}`
	w := request(router, http.MethodPost, "/v1/integrity/audit", body, "sk-guard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"consistencyScore":100`)
}
