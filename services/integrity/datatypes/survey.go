// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the shared data model for the response
// integrity engine: survey schemas, answers, timing records, audit
// issues, auto-coding predictions and behavioral metadata.
//
// The JSON field names in this package are part of the engine's wire
// contract and must not change; dashboards and embedding applications
// bind to them directly.
package datatypes

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single-choice"
	QuestionMultiChoice  QuestionType = "multi-choice"
	QuestionText         QuestionType = "text"
	QuestionRating       QuestionType = "rating"
	QuestionDropdown     QuestionType = "dropdown"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultiChoice, QuestionText,
		QuestionRating, QuestionDropdown:
		return true
	}
	return false
}

// QuestionSpec describes a single question in a survey schema.
// Immutable once a response session has started.
type QuestionSpec struct {
	ID          string          `json:"id" binding:"required"`
	Type        QuestionType    `json:"type" binding:"required,questiontype"`
	Title       string          `json:"title" binding:"required"`
	Required    bool            `json:"required,omitempty"`
	Constraints json.RawMessage `json:"constraints,omitempty"`
}

// SurveySchema is the question set a submission is audited against.
type SurveySchema struct {
	ID        string         `json:"id,omitempty"`
	Title     string         `json:"title,omitempty"`
	Questions []QuestionSpec `json:"questions" binding:"required,dive"`
}

// Question returns the spec for the given question id, if present.
func (s *SurveySchema) Question(id string) (QuestionSpec, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionSpec{}, false
}

// AnswerValue is a per-question answer: a chosen option identifier,
// a set of identifiers, free text, or a numeric rating. The engine
// never interprets answers beyond emptiness and free-text extraction.
type AnswerValue = any

// AnswerText extracts the free-text content of an answer, if any.
func AnswerText(v AnswerValue) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// IsEmptyAnswer reports whether an answer carries no content yet.
// Empty strings, empty option sets and nil all count as unanswered.
func IsEmptyAnswer(v AnswerValue) bool {
	switch a := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(a) == ""
	case []string:
		return len(a) == 0
	case []any:
		return len(a) == 0
	}
	return false
}

// RegisterValidations installs the engine's custom binding validations
// on the given validator instance. Call once at service startup with
// gin's binding engine.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("questiontype", func(fl validator.FieldLevel) bool {
		return QuestionType(fl.Field().String()).Valid()
	})
}
