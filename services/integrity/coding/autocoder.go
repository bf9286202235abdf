// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package coding implements auto-coding (categorization) of open-ended
// survey answers via an external reasoning service.
//
// Texts shorter than MinCodableLength are not worth categorizing and
// are skipped entirely: no call is made for them and they produce no
// output entry. When every candidate text is too short, Categorize
// returns an empty result without touching the network.
//
// Failure policy mirrors the consistency auditor's malformed-payload
// fallback: an unusable `coded` field degrades to one empty-category
// entry per text. Transport failures additionally return an error so
// the HTTP boundary can report them, but the fallback result is still
// returned alongside - in-process callers treat the signal as advisory
// and apply the fallback.
package coding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
	"github.com/fieldlens/integrity/services/integrity/observability"
	"github.com/fieldlens/integrity/services/llm"
)

// MinCodableLength is the minimum trimmed length, in runes, for a text
// to be worth categorizing.
const MinCodableLength = 10

// DefaultTopN is the number of category predictions requested per text
// when the caller does not specify one.
const DefaultTopN = 2

const codingMaxTokens = 900

const systemPromptFmt = `You are an NLP analyst that performs auto-coding of open-ended survey responses.
- Categorize each response with concise category labels.
- If a taxonomy is provided, map to those labels. If not, induce 3-8 stable, human-readable categories.
- For each response, return top %d categories with confidence (0-1).
- Output STRICT JSON only with { coded: { text, categories: { label, confidence }[] }[], suggestedTaxonomy?: string[] }`

// Coder categorizes free-text answers against a reasoning backend.
type Coder struct {
	client llm.ReasoningClient
}

// New returns a Coder backed by the given reasoning client.
func New(client llm.ReasoningClient) *Coder {
	return &Coder{client: client}
}

type codingPayload struct {
	Texts    []string `json:"texts"`
	Taxonomy []string `json:"taxonomy,omitempty"`
	N        int      `json:"n"`
	Language string   `json:"language"`
}

// Codable filters texts down to the ones worth categorizing: trimmed,
// at or above MinCodableLength.
func Codable(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		t = strings.TrimSpace(t)
		if utf8.RuneCountInString(t) >= MinCodableLength {
			out = append(out, t)
		}
	}
	return out
}

// Categorize requests top-N category predictions for each codable
// text. Texts below MinCodableLength are skipped with no output entry.
//
// On transport failure the per-text fallback result is returned along
// with a non-nil error: boundary callers propagate the error, advisory
// callers keep the fallback. A malformed response body is not an
// error; it degrades to the fallback silently.
func (c *Coder) Categorize(ctx context.Context, texts, taxonomy []string, topN int, language string) (datatypes.AutoCodeResult, error) {
	codable := Codable(texts)
	if len(codable) == 0 {
		return datatypes.AutoCodeResult{Coded: []datatypes.CodedText{}}, nil
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if language == "" {
		language = "en"
	}

	payload, err := json.Marshal(codingPayload{
		Texts:    codable,
		Taxonomy: taxonomy,
		N:        topN,
		Language: language,
	})
	if err != nil {
		return fallback(codable), fmt.Errorf("failed to serialize coding payload: %w", err)
	}

	start := time.Now()
	raw, err := c.client.Complete(ctx, fmt.Sprintf(systemPromptFmt, topN), string(payload), llm.CompletionParams{
		MaxTokens: codingMaxTokens,
		ForceJSON: true,
	})
	observability.ReasoningLatencySeconds.WithLabelValues("autocode").Observe(time.Since(start).Seconds())
	if err != nil {
		return fallback(codable), fmt.Errorf("auto-coding call failed: %w", err)
	}

	return normalizeCoded(raw, codable), nil
}

// normalizeCoded parses raw model output, applying the per-text
// fallback when the `coded` field is missing or malformed, and sorts
// each text's categories by confidence descending.
func normalizeCoded(raw string, texts []string) datatypes.AutoCodeResult {
	var parsed datatypes.AutoCodeResult
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil || parsed.Coded == nil {
		slog.Warn("Auto-coding verdict unparsable, applying per-text fallback")
		observability.FallbacksTotal.WithLabelValues("autocode").Inc()
		return fallback(texts)
	}
	for i := range parsed.Coded {
		if parsed.Coded[i].Categories == nil {
			parsed.Coded[i].Categories = []datatypes.CategoryPrediction{}
			continue
		}
		cats := parsed.Coded[i].Categories
		sort.SliceStable(cats, func(a, b int) bool {
			return cats[a].Confidence > cats[b].Confidence
		})
	}
	return parsed
}

func fallback(texts []string) datatypes.AutoCodeResult {
	coded := make([]datatypes.CodedText, len(texts))
	for i, t := range texts {
		coded[i] = datatypes.CodedText{Text: t, Categories: []datatypes.CategoryPrediction{}}
	}
	return datatypes.AutoCodeResult{Coded: coded}
}

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
