// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// QuestionTiming records how a respondent interacted with one question.
//
// FirstAnsweredAt and ElapsedMs are set exactly once, on the first
// non-empty answer. Subsequent edits do not re-time the question:
// a respondent who answers and then revises is not timed twice.
type QuestionTiming struct {
	QuestionID      string     `json:"questionId"`
	StartedAt       time.Time  `json:"startedAt"`
	FirstAnsweredAt *time.Time `json:"firstAnsweredAt,omitempty"`
	ElapsedMs       int64      `json:"elapsedMs"`
	PauseCount      int        `json:"pauseCount"`
}

// Locked reports whether the question's elapsed time has been frozen
// by a first answer.
func (t *QuestionTiming) Locked() bool {
	return t.FirstAnsweredAt != nil
}
