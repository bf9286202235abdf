// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fieldlens/integrity/services/integrity/audit"
	"github.com/fieldlens/integrity/services/integrity/coding"
	"github.com/fieldlens/integrity/services/integrity/handlers"
	"github.com/fieldlens/integrity/services/integrity/middleware"
	"github.com/fieldlens/integrity/services/integrity/store"
)

// Deps carries the wired components the routes need.
type Deps struct {
	Auditor *audit.Auditor
	Coder   *coding.Coder
	Results store.ResultStore
	APIKey  string
}

// SetupRoutes registers the engine's endpoints. The three scoring
// operations are stateless request/response calls with no session
// affinity; ordering across them is never required.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1/integrity", middleware.APIKeyAuth(deps.APIKey))
	{
		v1.POST("/trust-score", handlers.HandleTrustScore(deps.Results))
		v1.POST("/audit", handlers.HandleAudit(deps.Auditor))
		v1.POST("/autocode", handlers.HandleAutoCode(deps.Coder))
		v1.GET("/results/:sessionId", handlers.HandleGetResult(deps.Results))
	}
}
