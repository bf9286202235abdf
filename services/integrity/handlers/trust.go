// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
	"github.com/fieldlens/integrity/services/integrity/store"
	"github.com/fieldlens/integrity/services/integrity/trust"
)

var trustTracer = otel.Tracer("fieldlens.integrity.handlers")

// HandleTrustScore scores behavioral metadata. The body is either a
// bare array of response metadata or a {responses: [...]} wrapper;
// both shapes are accepted for compatibility. A wrapper may carry a
// sessionId, in which case the scored result is persisted for later
// dashboard retrieval.
//
// Malformed entries are coerced, never rejected: scoring is total.
// Only a body that is not an array at all is a client error.
func HandleTrustScore(results store.ResultStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := trustTracer.Start(c.Request.Context(), "HandleTrustScore")
		defer span.End()

		var body any
		if err := c.ShouldBindJSON(&body); err != nil {
			incRequest("trust_score", "client_error")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		items, sessionID, ok := unwrapResponses(body)
		if !ok {
			incRequest("trust_score", "client_error")
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid payload. Expected an array of responses or { responses: [...] }",
			})
			return
		}

		meta := datatypes.SanitizeMeta(items)
		score, breakdown := trust.ScoreWithBreakdown(meta)

		if sessionID != "" && results != nil {
			persistResult(ctx, results, sessionID, score, breakdown)
		}

		incRequest("trust_score", "success")
		c.JSON(http.StatusOK, gin.H{"trustScore": score, "breakdown": breakdown})
	}
}

// unwrapResponses accepts the two supported body shapes and returns
// the raw metadata items plus the optional session id.
func unwrapResponses(body any) (items []any, sessionID string, ok bool) {
	switch b := body.(type) {
	case []any:
		return b, "", true
	case map[string]any:
		responses, isArray := b["responses"].([]any)
		if !isArray {
			return nil, "", false
		}
		id, _ := b["sessionId"].(string)
		return responses, id, true
	}
	return nil, "", false
}

// persistResult stores a scored submission. Persistence is advisory:
// a store failure is logged, never surfaced to the respondent path.
func persistResult(ctx context.Context, results store.ResultStore, sessionID string, score int, breakdown datatypes.TrustBreakdown) {
	err := results.Save(ctx, &store.ScoredResult{
		SessionID:  sessionID,
		TrustScore: score,
		Breakdown:  breakdown,
		Band:       trust.Band(score),
		ScoredAt:   nowFn(),
	})
	if err != nil {
		slog.Warn("Failed to persist scored result", "session_id", sessionID, "error", err)
	}
}
