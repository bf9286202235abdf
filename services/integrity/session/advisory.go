// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package session

import (
	"context"
	"log/slog"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

// armSettleTimer (re)starts the debounce timer. Each mutation pushes
// the advisory round out by the full settle window, so a burst of
// keystrokes produces one round, not one per keystroke.
func (s *Session) armSettleTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	settle := s.cfg.SettleWindow
	s.timer = s.newTimerLocked(settle)
}

// FlushAdvisory runs one advisory round synchronously, bypassing the
// settle timer. Used by tests and by callers that want fresh signals
// immediately before presenting a review screen.
func (s *Session) FlushAdvisory(ctx context.Context) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.runAdvisory(ctx)
}

// runAdvisory performs one audit + auto-coding round against a
// snapshot of the current answers. Both calls run concurrently and
// independently; neither blocks the mutation path. Completions apply
// last-write-wins: a completion whose sequence number is older than
// the applied one is dropped. No in-flight request is ever cancelled -
// out-of-order completion is tolerated because the signal is advisory.
func (s *Session) runAdvisory(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateActive && s.state != StateSubmitting {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	answers := make(map[string]datatypes.AnswerValue, len(s.answers))
	for k, v := range s.answers {
		answers[k] = v
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AdvisoryTimeout)
	defer cancel()

	done := make(chan struct{}, 2)
	go func() {
		s.auditRound(ctx, seq, answers)
		done <- struct{}{}
	}()
	go func() {
		s.codingRound(ctx, seq, answers)
		done <- struct{}{}
	}()
	<-done
	<-done
}

func (s *Session) auditRound(ctx context.Context, seq uint64, answers map[string]datatypes.AnswerValue) {
	if s.auditor == nil {
		return
	}
	result, err := s.auditor.Audit(ctx, s.schema, answers, s.cfg.Locale)
	if err != nil {
		// Transport failure: prior issue state stays untouched.
		slog.Warn("Advisory audit failed", "session_id", s.id, "error", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.advisory.AuditSeq {
		return
	}
	s.advisory.AuditSeq = seq
	s.advisory.Issues = result.Issues
	s.advisory.ConsistencyScore = result.ConsistencyScore
}

func (s *Session) codingRound(ctx context.Context, seq uint64, answers map[string]datatypes.AnswerValue) {
	if s.coder == nil {
		return
	}
	texts := s.freeTexts(answers)
	if len(texts) == 0 {
		return
	}
	result, err := s.coder.Categorize(ctx, texts, s.cfg.Taxonomy, s.cfg.TopN, s.cfg.Locale)
	if err != nil {
		// Degraded result still replaces the snapshot; coding is the
		// advisory half of the asymmetric failure policy.
		slog.Warn("Advisory auto-coding degraded", "session_id", s.id, "error", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.advisory.CodeSeq {
		return
	}
	s.advisory.CodeSeq = seq
	s.advisory.Coded = result.Coded
}

// freeTexts collects the answers to text questions, in schema order.
// Length filtering belongs to the coder, not the session.
func (s *Session) freeTexts(answers map[string]datatypes.AnswerValue) []string {
	texts := make([]string, 0, len(answers))
	for _, q := range s.schema.Questions {
		if q.Type != datatypes.QuestionText {
			continue
		}
		if text, ok := datatypes.AnswerText(answers[q.ID]); ok && text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
