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

	"github.com/fieldlens/integrity/services/integrity/audit"
	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

var auditTracer = otel.Tracer("fieldlens.integrity.handlers")

// AuditRequest is the consistency-audit request body.
type AuditRequest struct {
	Survey  *datatypes.SurveySchema          `json:"survey" binding:"required"`
	Answers map[string]datatypes.AnswerValue `json:"answers" binding:"required"`
	Locale  string                           `json:"locale"`
}

// HandleAudit runs a consistency audit. Transport failures toward the
// reasoning service surface as 500 so the caller can retry; malformed
// reasoning output never reaches this layer - the auditor has already
// replaced it with the safe default.
func HandleAudit(auditor *audit.Auditor) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := auditTracer.Start(c.Request.Context(), "HandleAudit")
		defer span.End()

		var req AuditRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Error("Failed to parse the audit request", "error", err)
			incRequest("audit", "client_error")
			c.JSON(http.StatusBadRequest, gin.H{"error": "survey and answers are required"})
			return
		}

		result, err := auditor.Audit(ctx, *req.Survey, req.Answers, req.Locale)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Consistency audit failed", "error", err)
			incRequest("audit", "upstream_error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "AI validation failed"})
			return
		}

		incRequest("audit", "success")
		c.JSON(http.StatusOK, result)
	}
}
