// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/fieldlens/integrity/services/integrity/coding"
)

var autocodeTracer = otel.Tracer("fieldlens.integrity.handlers")

// AutoCodeRequest is the auto-coding request body.
type AutoCodeRequest struct {
	Texts    []string `json:"texts" binding:"required,min=1"`
	Taxonomy []string `json:"taxonomy"`
	N        int      `json:"n"`
	Language string   `json:"language"`
}

// HandleAutoCode categorizes free-text answers. Texts below the
// codable length threshold produce no output entry; a request whose
// texts are all too short succeeds with an empty coded list and no
// upstream call.
func HandleAutoCode(coder *coding.Coder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := autocodeTracer.Start(c.Request.Context(), "HandleAutoCode")
		defer span.End()

		var req AutoCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			incRequest("autocode", "client_error")
			c.JSON(http.StatusBadRequest, gin.H{"error": "texts array required"})
			return
		}

		result, err := coder.Categorize(ctx, req.Texts, req.Taxonomy, req.N, req.Language)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Auto-coding failed", "error", err)
			incRequest("autocode", "upstream_error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "AI auto-coding failed"})
			return
		}

		incRequest("autocode", "success")
		c.JSON(http.StatusOK, result)
	}
}
