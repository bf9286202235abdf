// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package audit implements the AI-assisted consistency audit of survey
// answers against their schema.
//
// The auditor serializes schema + answers + locale into a request to an
// external reasoning service instructed to return strict JSON, then
// normalizes the verdict. Error handling is deliberately asymmetric:
//
//   - Transport failure (service unreachable, non-success status) is
//     surfaced to the caller as an error. The caller owns retry; prior
//     issue state is left untouched by convention.
//   - A malformed response body is swallowed and replaced with the safe
//     default (no issues, full consistency score). An auditor parse
//     error must never block submission - the signal is advisory.
//
// The consistency score is opaque: the engine never recomputes it, it
// only clamps the type (defaulting to 100 when the field is not a
// number) and array-normalizes the issue list.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
	"github.com/fieldlens/integrity/services/integrity/observability"
	"github.com/fieldlens/integrity/services/llm"
)

// systemPrompt instructs the reasoning service. The output shape it
// names is the wire contract normalizeVerdict parses.
const systemPrompt = `You are an expert survey QA assistant. Analyze respondent answers for logical consistency, contradictions, and illogical patterns.
- Output STRICT JSON only.
- Score overall consistency from 0 to 100.
- Provide specific, actionable issue messages per question when possible.
- Severity: info | warn | error.
Return JSON with fields: { "issues": Issue[], "consistencyScore": number } where Issue = { id: string, questionId?: string, related?: string[], type: string, message: string, severity: 'info'|'warn'|'error', suggestion?: string }`

const auditMaxTokens = 700

// Auditor runs consistency audits against a reasoning backend.
type Auditor struct {
	client llm.ReasoningClient
}

// New returns an Auditor backed by the given reasoning client.
func New(client llm.ReasoningClient) *Auditor {
	return &Auditor{client: client}
}

// auditPayload is the user message sent to the reasoning service.
type auditPayload struct {
	Survey  datatypes.SurveySchema           `json:"survey"`
	Answers map[string]datatypes.AnswerValue `json:"answers"`
	Locale  string                           `json:"locale"`
}

// Audit checks the given answers against the schema and returns the
// normalized verdict. The error is non-nil only for transport-level
// failures; malformed upstream output degrades to the safe default.
func (a *Auditor) Audit(ctx context.Context, schema datatypes.SurveySchema, answers map[string]datatypes.AnswerValue, locale string) (datatypes.AuditResult, error) {
	if locale == "" {
		locale = "en"
	}
	payload, err := json.Marshal(auditPayload{Survey: schema, Answers: answers, Locale: locale})
	if err != nil {
		return datatypes.AuditResult{}, fmt.Errorf("failed to serialize audit payload: %w", err)
	}

	start := time.Now()
	raw, err := a.client.Complete(ctx, systemPrompt, string(payload), llm.CompletionParams{
		MaxTokens: auditMaxTokens,
		ForceJSON: true,
	})
	observability.ReasoningLatencySeconds.WithLabelValues("audit").Observe(time.Since(start).Seconds())
	if err != nil {
		return datatypes.AuditResult{}, fmt.Errorf("consistency audit call failed: %w", err)
	}

	return normalizeVerdict(raw), nil
}

// normalizeVerdict turns raw model output into a well-formed result.
// Any parse failure, at any level, degrades to the corresponding safe
// default rather than an error.
func normalizeVerdict(raw string) datatypes.AuditResult {
	result := datatypes.AuditResult{
		Issues:           []datatypes.ValidationIssue{},
		ConsistencyScore: 100,
	}

	var verdict struct {
		Issues           json.RawMessage `json:"issues"`
		ConsistencyScore json.RawMessage `json:"consistencyScore"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &verdict); err != nil {
		slog.Warn("Audit verdict unparsable, returning minimal structure", "error", err)
		observability.FallbacksTotal.WithLabelValues("audit").Inc()
		return result
	}

	var issues []datatypes.ValidationIssue
	if err := json.Unmarshal(verdict.Issues, &issues); err == nil && issues != nil {
		for i := range issues {
			if issues[i].ID == "" {
				issues[i].ID = uuid.NewString()
			}
		}
		result.Issues = issues
	}

	var score float64
	if err := json.Unmarshal(verdict.ConsistencyScore, &score); err == nil && !math.IsNaN(score) {
		result.ConsistencyScore = int(math.Round(score))
	}

	return result
}

// stripFences removes a surrounding markdown code fence, which some
// models emit despite the strict-JSON instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
