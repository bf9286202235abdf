// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldlens/integrity/services/integrity/store"
)

// HandleGetResult fetches a previously persisted scored result for a
// session, for dashboard display.
func HandleGetResult(results store.ResultStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("sessionId")
		result, err := results.Get(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				incRequest("results", "client_error")
				c.JSON(http.StatusNotFound, gin.H{"error": "no scored result for session"})
				return
			}
			slog.Error("Failed to load scored result", "session_id", sessionID, "error", err)
			incRequest("results", "upstream_error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load result"})
			return
		}
		incRequest("results", "success")
		c.JSON(http.StatusOK, result)
	}
}
