// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists scored submission results so dashboard
// callers can fetch a submission's trust score after the fact.
//
// Two backends exist: an in-memory map for single-instance and test
// deployments, and Redis for anything shared. Results are advisory
// dashboard data, not the system of record; the Redis backend keeps
// them on a TTL.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

// ErrNotFound is returned when no result exists for a session.
var ErrNotFound = errors.New("scored result not found")

// ScoredResult is one persisted submission outcome.
type ScoredResult struct {
	SessionID  string                   `json:"sessionId"`
	TrustScore int                      `json:"trustScore"`
	Breakdown  datatypes.TrustBreakdown `json:"breakdown"`
	Band       string                   `json:"band"`
	ScoredAt   time.Time                `json:"scoredAt"`
}

// ResultStore persists and retrieves scored results by session id.
type ResultStore interface {
	Save(ctx context.Context, result *ScoredResult) error
	Get(ctx context.Context, sessionID string) (*ScoredResult, error)
	Delete(ctx context.Context, sessionID string) error
}

// memoryStore is the in-process fallback backend.
type memoryStore struct {
	mu      sync.RWMutex
	results map[string]ScoredResult
}

// NewMemoryStore returns an in-memory ResultStore.
func NewMemoryStore() ResultStore {
	return &memoryStore{results: make(map[string]ScoredResult)}
}

func (m *memoryStore) Save(_ context.Context, result *ScoredResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.SessionID] = *result
	return nil
}

func (m *memoryStore) Get(_ context.Context, sessionID string) (*ScoredResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &result, nil
}

func (m *memoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, sessionID)
	return nil
}
