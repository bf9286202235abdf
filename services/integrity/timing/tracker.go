// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package timing records per-question elapsed time and interaction
// interruptions during a survey session.
//
// The tracker enforces the "first answer wins" policy: a question's
// elapsed time is set exactly once, when its answer first becomes
// non-empty, and is immutable afterward. There is no network I/O and
// no background goroutine; every method returns immediately.
package timing

import (
	"sync"
	"time"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

// Tracker owns the timing state for a single response session.
// Exactly one Tracker exists per session.
//
// All methods are safe for concurrent use, though sessions are
// normally driven by a single event stream.
type Tracker struct {
	mu      sync.Mutex
	timings map[string]*datatypes.QuestionTiming
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{timings: make(map[string]*datatypes.QuestionTiming)}
}

// Start begins timing a question when it becomes visible. Idempotent:
// starting an already-started question is a no-op, so re-rendering a
// question never resets its clock.
func (t *Tracker) Start(questionID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.timings[questionID]; ok {
		return
	}
	t.timings[questionID] = &datatypes.QuestionTiming{
		QuestionID: questionID,
		StartedAt:  now,
	}
}

// RecordInteraction increments the pause count for a question. Pauses
// represent focus-loss events (tab switches and the like) reported by
// the caller. Interactions on unstarted or already-locked questions
// are ignored.
func (t *Tracker) RecordInteraction(questionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	qt, ok := t.timings[questionID]
	if !ok || qt.Locked() {
		return
	}
	qt.PauseCount++
}

// LockOnAnswer freezes the elapsed time for a question. Called the
// first time its answer becomes non-empty. Subsequent calls are
// no-ops: once locked, elapsed time is monotonic and immutable.
func (t *Tracker) LockOnAnswer(questionID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	qt, ok := t.timings[questionID]
	if !ok || qt.Locked() {
		return
	}
	answered := now
	qt.FirstAnsweredAt = &answered
	elapsed := now.Sub(qt.StartedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	qt.ElapsedMs = elapsed
}

// Snapshot returns a value copy of all timing records, safe to hand
// downstream. Mutating the snapshot does not affect the tracker.
func (t *Tracker) Snapshot() map[string]datatypes.QuestionTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := make(map[string]datatypes.QuestionTiming, len(t.timings))
	for id, qt := range t.timings {
		cp := *qt
		if qt.FirstAnsweredAt != nil {
			answered := *qt.FirstAnsweredAt
			cp.FirstAnsweredAt = &answered
		}
		snap[id] = cp
	}
	return snap
}
