// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package client is an HTTP client for the integrity engine's three
// endpoints. It satisfies the session package's Auditor, Coder and
// Scorer interfaces, so an embedding application can run sessions
// locally while the engine itself runs as a remote service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

const defaultTimeout = 30 * time.Second

// EngineClient calls a remote integrity engine.
type EngineClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes an EngineClient.
type Option func(*EngineClient)

// WithAPIKey sets the bearer key sent on every request.
func WithAPIKey(key string) Option {
	return func(c *EngineClient) { c.apiKey = key }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *EngineClient) { c.httpClient = hc }
}

// New returns a client for the engine at baseURL, e.g.
// "http://integrity:8640".
func New(baseURL string, opts ...Option) *EngineClient {
	c := &EngineClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Audit implements session.Auditor against POST /v1/integrity/audit.
func (c *EngineClient) Audit(ctx context.Context, schema datatypes.SurveySchema, answers map[string]datatypes.AnswerValue, locale string) (datatypes.AuditResult, error) {
	body := map[string]any{"survey": schema, "answers": answers}
	if locale != "" {
		body["locale"] = locale
	}
	var result datatypes.AuditResult
	if err := c.postJSON(ctx, "/v1/integrity/audit", body, &result); err != nil {
		return datatypes.AuditResult{}, err
	}
	return result, nil
}

// Categorize implements session.Coder against POST
// /v1/integrity/autocode.
func (c *EngineClient) Categorize(ctx context.Context, texts, taxonomy []string, topN int, language string) (datatypes.AutoCodeResult, error) {
	body := map[string]any{"texts": texts}
	if len(taxonomy) > 0 {
		body["taxonomy"] = taxonomy
	}
	if topN > 0 {
		body["n"] = topN
	}
	if language != "" {
		body["language"] = language
	}
	var result datatypes.AutoCodeResult
	if err := c.postJSON(ctx, "/v1/integrity/autocode", body, &result); err != nil {
		return datatypes.AutoCodeResult{}, err
	}
	return result, nil
}

// Score implements session.Scorer against POST
// /v1/integrity/trust-score. A transport error here is the one path
// that can drive a session to Failed.
func (c *EngineClient) Score(ctx context.Context, meta []datatypes.ResponseMeta) (int, datatypes.TrustBreakdown, error) {
	body := map[string]any{"responses": meta}
	var result struct {
		TrustScore int                      `json:"trustScore"`
		Breakdown  datatypes.TrustBreakdown `json:"breakdown"`
	}
	if err := c.postJSON(ctx, "/v1/integrity/trust-score", body, &result); err != nil {
		return 0, datatypes.TrustBreakdown{}, err
	}
	return result.TrustScore, result.Breakdown, nil
}

// postJSON posts a JSON body and decodes a JSON response. Non-2xx
// statuses are returned as errors carrying the server's error message
// when one is present.
func (c *EngineClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("integrity engine unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("integrity engine returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("integrity engine returned %d", resp.StatusCode)
	}
	return json.Unmarshal(data, out)
}
