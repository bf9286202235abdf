// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "math"

// ResponseMeta is the behavioral metadata for one answered question,
// the sole input to trust scoring. The `locationAnomalies` wire name
// is historical and kept for compatibility.
type ResponseMeta struct {
	QuestionID      string  `json:"questionId"`
	TimingMs        float64 `json:"timing"`
	Pauses          float64 `json:"pauses"`
	LocationAnomaly bool    `json:"locationAnomalies"`
}

// TrustBreakdown records the per-signal deductions behind a trust
// score. Deductions are additive and independently capped, so the
// breakdown always sums to 100 minus the (unclamped) score.
type TrustBreakdown struct {
	Fast     float64 `json:"fast"`
	Slow     float64 `json:"slow"`
	Pause    float64 `json:"pause"`
	Location float64 `json:"location"`
}

// SanitizeMeta coerces loosely-typed request items into well-formed
// ResponseMeta entries. Non-object items are dropped; malformed fields
// are coerced rather than rejected: non-finite numbers become 0,
// negative pause counts are clamped to 0 and truncated to integers.
// Trust scoring is a total function over the result.
func SanitizeMeta(items []any) []ResponseMeta {
	metas := make([]ResponseMeta, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := obj["questionId"].(string)
		metas = append(metas, ResponseMeta{
			QuestionID:      id,
			TimingMs:        finiteNumber(obj["timing"]),
			Pauses:          math.Max(0, math.Floor(finiteNumber(obj["pauses"]))),
			LocationAnomaly: truthy(obj["locationAnomalies"]),
		})
	}
	return metas
}

// finiteNumber extracts a finite float from a decoded JSON value,
// defaulting to 0 for anything else.
func finiteNumber(v any) float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	}
	return false
}
