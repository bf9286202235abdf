// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// CategoryPrediction is one label/confidence pair from auto-coding.
// Confidences are advisory and independent; they are not normalized
// to sum to one.
type CategoryPrediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// CodedText is a free-text answer with its predicted categories,
// sorted by confidence descending.
type CodedText struct {
	Text       string               `json:"text"`
	Categories []CategoryPrediction `json:"categories"`
}

// AutoCodeResult is the normalized outcome of one auto-coding run.
// SuggestedTaxonomy is only populated when the reasoning service
// induced its own category set (no taxonomy was supplied).
type AutoCodeResult struct {
	Coded             []CodedText `json:"coded"`
	SuggestedTaxonomy []string    `json:"suggestedTaxonomy,omitempty"`
}
