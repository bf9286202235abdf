// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// Tests for the API-key middleware.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authRouter(key string) *gin.Engine {
	router := gin.New()
	router.Use(APIKeyAuth(key))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func perform(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPIKeyAuth_EmptyKeyDisablesCheck(t *testing.T) {
	router := authRouter("")
	assert.Equal(t, http.StatusOK, perform(router, "").Code)
}

func TestAPIKeyAuth_ValidKeyPasses(t *testing.T) {
	router := authRouter("sk-test-123")
	assert.Equal(t, http.StatusOK, perform(router, "Bearer sk-test-123").Code)
}

func TestAPIKeyAuth_Rejections(t *testing.T) {
	router := authRouter("sk-test-123")

	for name, header := range map[string]string{
		"missing header":   "",
		"wrong key":        "Bearer sk-wrong",
		"no bearer prefix": "sk-test-123",
		"basic scheme":     "Basic sk-test-123",
	} {
		w := perform(router, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}
