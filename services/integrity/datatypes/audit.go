// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// Severity classifies how serious a consistency finding is.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// ValidationIssue is a single finding from a consistency audit.
//
// Issues are ephemeral: every audit run replaces the previous set
// wholesale, there is no merge or diff. The `related` and `type` wire
// names match the reasoning service's output contract.
type ValidationIssue struct {
	ID                 string   `json:"id"`
	QuestionID         string   `json:"questionId,omitempty"`
	RelatedQuestionIDs []string `json:"related,omitempty"`
	Kind               string   `json:"type"`
	Message            string   `json:"message"`
	Severity           Severity `json:"severity"`
	Suggestion         string   `json:"suggestion,omitempty"`
}

// AuditResult is the normalized outcome of one consistency audit.
// ConsistencyScore is opaque to the engine: it is whatever the
// reasoning service returned, type-clamped but never recomputed.
type AuditResult struct {
	Issues           []ValidationIssue `json:"issues"`
	ConsistencyScore int               `json:"consistencyScore"`
}
