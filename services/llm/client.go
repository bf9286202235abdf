// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides clients for the external reasoning services
// that back consistency auditing and auto-coding.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// CompletionParams tunes a single reasoning request.
type CompletionParams struct {
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float32 `json:"temperature"`
	ForceJSON   bool     `json:"force_json"`
}

// ReasoningClient defines the standard interface for any reasoning
// backend. Implementations are stateless request/response clients:
// no session affinity, every call self-contained.
type ReasoningClient interface {
	// Complete sends a system instruction plus a user payload and
	// returns the raw model output. Transport failures and non-success
	// upstream statuses are returned as errors; callers own the
	// malformed-output fallback policy.
	Complete(ctx context.Context, system, user string, params CompletionParams) (string, error)
}

// NewClient constructs a reasoning client for the configured backend.
// Supported backends: "openai" (default), "gemini".
func NewClient(backend string) (ReasoningClient, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "openai":
		return NewOpenAIClient()
	case "gemini":
		return NewGeminiClient()
	default:
		return nil, fmt.Errorf("unknown reasoning backend %q", backend)
	}
}
