// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers provides the HTTP request handlers for the
// integrity engine's boundary endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldlens/integrity/services/integrity/observability"
)

// nowFn is a seam for deterministic timestamps in tests.
var nowFn = time.Now

func incRequest(endpoint, status string) {
	observability.RequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
