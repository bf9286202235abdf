// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package session orchestrates one in-progress survey submission.
//
// A Session owns the submission's answer map and its timing tracker
// exclusively; no state crosses session boundaries. The lifecycle is
// a small state machine:
//
//	Active -> Submitting -> {Scored | Failed}
//
// While Active, every answer mutation updates the timing tracker and
// arms a settle timer. When the timer fires, one advisory round runs:
// a consistency audit and an auto-coding pass, both asynchronous and
// fire-and-forget relative to the mutation path - answering a question
// never waits on a network round trip. Overlapping rounds may be in
// flight; completions apply last-write-wins guarded by a monotonic
// sequence number, and a stale completion is simply dropped. These
// signals are advisory and never block submission.
//
// Submit assembles behavioral metadata from the tracker snapshot plus
// caller-supplied telemetry and hands it to the trust scorer. Missing
// telemetry fields are treated as zero/false; the engine never invents
// pause or anomaly data. The local scorer is a total function, so with
// it Submit cannot fail; a remote scorer's transport error drives the
// session to Failed, and retry belongs to the caller.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
	"github.com/fieldlens/integrity/services/integrity/observability"
	"github.com/fieldlens/integrity/services/integrity/timing"
	"github.com/fieldlens/integrity/services/integrity/trust"
)

// State is the lifecycle phase of a session.
type State string

const (
	StateActive     State = "active"
	StateSubmitting State = "submitting"
	StateScored     State = "scored"
	StateFailed     State = "failed"
)

var (
	// ErrNotActive is returned for mutations after submission started.
	ErrNotActive = errors.New("session is not active")
	// ErrAlreadyScored is returned for a second Submit on a terminal
	// session.
	ErrAlreadyScored = errors.New("session already reached a terminal state")
)

// DefaultSettleWindow is the debounce delay between the last answer
// mutation and the advisory audit/coding round.
const DefaultSettleWindow = 600 * time.Millisecond

// DefaultAdvisoryTimeout bounds one advisory round's external calls.
const DefaultAdvisoryTimeout = 10 * time.Second

// Auditor is the consistency-audit dependency. Satisfied by
// audit.Auditor and by client.EngineClient.
type Auditor interface {
	Audit(ctx context.Context, schema datatypes.SurveySchema, answers map[string]datatypes.AnswerValue, locale string) (datatypes.AuditResult, error)
}

// Coder is the auto-coding dependency. Satisfied by coding.Coder and
// by client.EngineClient.
type Coder interface {
	Categorize(ctx context.Context, texts, taxonomy []string, topN int, language string) (datatypes.AutoCodeResult, error)
}

// Scorer is the trust-scoring dependency. LocalScorer never fails;
// a remote implementation may return a transport error.
type Scorer interface {
	Score(ctx context.Context, meta []datatypes.ResponseMeta) (int, datatypes.TrustBreakdown, error)
}

// LocalScorer scores in-process with the pure trust function.
type LocalScorer struct{}

// Score implements Scorer. It is total: the error is always nil.
func (LocalScorer) Score(_ context.Context, meta []datatypes.ResponseMeta) (int, datatypes.TrustBreakdown, error) {
	score, breakdown := trust.ScoreWithBreakdown(meta)
	return score, breakdown, nil
}

// Telemetry carries caller-supplied behavioral signals for submission.
// Any question absent from these maps contributes zero pauses and no
// anomaly; the engine does not synthesize placeholder telemetry.
type Telemetry struct {
	// Pauses overrides the tracker's interaction count per question.
	Pauses map[string]int
	// LocationAnomalies flags questions answered from a suspicious
	// location, as determined by the caller's own checks.
	LocationAnomalies map[string]bool
}

// Advisory is the last-known audit and auto-coding snapshot. Sequence
// numbers are monotonic per advisory round; callers that care about
// ordering can compare them across reads.
type Advisory struct {
	AuditSeq         uint64                      `json:"auditSeq"`
	Issues           []datatypes.ValidationIssue `json:"issues"`
	ConsistencyScore int                         `json:"consistencyScore"`
	CodeSeq          uint64                      `json:"codeSeq"`
	Coded            []datatypes.CodedText       `json:"coded"`
}

// Result is the terminal outcome of a scored session.
type Result struct {
	SessionID  string                   `json:"sessionId"`
	TrustScore int                      `json:"trustScore"`
	Breakdown  datatypes.TrustBreakdown `json:"breakdown"`
	Band       string                   `json:"band"`
	ScoredAt   time.Time                `json:"scoredAt"`
	Advisory   Advisory                 `json:"advisory"`
}

// Config tunes a session. The zero value is usable: defaults are
// applied by New.
type Config struct {
	// SettleWindow is the debounce delay before an advisory round.
	SettleWindow time.Duration
	// AdvisoryTimeout bounds external calls in one advisory round.
	AdvisoryTimeout time.Duration
	// Locale is threaded through audit and coding requests.
	Locale string
	// Taxonomy, when set, constrains auto-coding labels.
	Taxonomy []string
	// TopN is the number of category predictions per text.
	TopN int
	// Clock overrides time.Now, for deterministic tests.
	Clock func() time.Time
}

// Session is the orchestrator for one submission.
type Session struct {
	id      string
	schema  datatypes.SurveySchema
	auditor Auditor
	coder   Coder
	scorer  Scorer
	cfg     Config

	mu       sync.Mutex
	state    State
	answers  map[string]datatypes.AnswerValue
	tracker  *timing.Tracker
	timer    *time.Timer
	seq      uint64
	advisory Advisory
	result   *Result
}

// New creates an Active session for the given schema. A nil scorer
// defaults to LocalScorer; auditor and coder may be nil, in which case
// the corresponding advisory signal is simply never produced.
func New(schema datatypes.SurveySchema, auditor Auditor, coder Coder, scorer Scorer, cfg Config) *Session {
	if cfg.SettleWindow <= 0 {
		cfg.SettleWindow = DefaultSettleWindow
	}
	if cfg.AdvisoryTimeout <= 0 {
		cfg.AdvisoryTimeout = DefaultAdvisoryTimeout
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 2
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if scorer == nil {
		scorer = LocalScorer{}
	}
	observability.ActiveSessions.Inc()
	return &Session{
		id:      uuid.NewString(),
		schema:  schema,
		auditor: auditor,
		coder:   coder,
		scorer:  scorer,
		cfg:     cfg,
		state:   StateActive,
		answers: make(map[string]datatypes.AnswerValue),
		tracker: timing.NewTracker(),
		advisory: Advisory{
			Issues:           []datatypes.ValidationIssue{},
			ConsistencyScore: 100,
			Coded:            []datatypes.CodedText{},
		},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ShowQuestion starts timing a question when it becomes visible.
// Idempotent via the tracker.
func (s *Session) ShowQuestion(questionID string) {
	s.tracker.Start(questionID, s.cfg.Clock())
}

// RecordInteraction registers a focus-loss event for a question.
func (s *Session) RecordInteraction(questionID string) {
	s.tracker.RecordInteraction(questionID)
}

// SetAnswer mutates one answer. The first non-empty value locks the
// question's elapsed time; every mutation re-arms the settle timer.
func (s *Session) SetAnswer(questionID string, value datatypes.AnswerValue) error {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.answers[questionID] = value
	s.mu.Unlock()

	now := s.cfg.Clock()
	s.tracker.Start(questionID, now)
	if !datatypes.IsEmptyAnswer(value) {
		s.tracker.LockOnAnswer(questionID, now)
	}
	s.armSettleTimer()
	return nil
}

// Answers returns a copy of the current answer map.
func (s *Session) Answers() map[string]datatypes.AnswerValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]datatypes.AnswerValue, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Advisory returns the last-known audit and auto-coding snapshot.
func (s *Session) Advisory() Advisory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advisory
}

// Timings returns the tracker snapshot.
func (s *Session) Timings() map[string]datatypes.QuestionTiming {
	return s.tracker.Snapshot()
}

// Submit transitions the session out of Active and computes the trust
// score. Completeness of required answers is the caller's precondition;
// the engine scores exactly what it is given.
//
// With the local scorer, Submit cannot fail. A remote scorer error
// moves the session to Failed and is returned; retrying is the
// caller's responsibility.
func (s *Session) Submit(ctx context.Context, tel Telemetry) (*Result, error) {
	s.mu.Lock()
	switch s.state {
	case StateActive:
	case StateSubmitting:
		s.mu.Unlock()
		return nil, ErrNotActive
	default:
		s.mu.Unlock()
		return nil, ErrAlreadyScored
	}
	s.state = StateSubmitting
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	observability.ActiveSessions.Dec()

	meta := s.assembleMeta(tel)
	score, breakdown, err := s.scorer.Score(ctx, meta)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateFailed
		slog.Error("Trust scoring failed", "session_id", s.id, "error", err)
		return nil, err
	}
	s.state = StateScored
	s.result = &Result{
		SessionID:  s.id,
		TrustScore: score,
		Breakdown:  breakdown,
		Band:       trust.Band(score),
		ScoredAt:   s.cfg.Clock(),
		Advisory:   s.advisory,
	}
	slog.Info("Session scored", "session_id", s.id, "trust_score", score, "band", s.result.Band)
	return s.result, nil
}

// Result returns the terminal result, or nil before Scored.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Close releases the settle timer. Safe to call in any state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.state == StateActive {
		s.state = StateFailed
		observability.ActiveSessions.Dec()
	}
}

// newTimerLocked arms the settle timer. Caller holds s.mu.
func (s *Session) newTimerLocked(d time.Duration) *time.Timer {
	return time.AfterFunc(d, func() {
		s.runAdvisory(context.Background())
	})
}

// assembleMeta builds the scorer input from the tracker snapshot and
// caller telemetry. Entries are sorted by question id so repeated
// submissions of identical state produce identical input.
func (s *Session) assembleMeta(tel Telemetry) []datatypes.ResponseMeta {
	snap := s.tracker.Snapshot()
	meta := make([]datatypes.ResponseMeta, 0, len(snap))
	for id, qt := range snap {
		pauses := qt.PauseCount
		if tel.Pauses != nil {
			if p, ok := tel.Pauses[id]; ok {
				pauses = p
			}
		}
		meta = append(meta, datatypes.ResponseMeta{
			QuestionID:      id,
			TimingMs:        float64(qt.ElapsedMs),
			Pauses:          float64(pauses),
			LocationAnomaly: tel.LocationAnomalies[id],
		})
	}
	sort.Slice(meta, func(i, j int) bool { return meta[i].QuestionID < meta[j].QuestionID })
	return meta
}
