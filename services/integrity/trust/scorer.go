// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package trust implements behavioral trust scoring for survey
// submissions.
//
// The score is a pure, deterministic function of per-question
// behavioral metadata. Four signals contribute independent, additive
// deductions from a perfect score of 100:
//
//   - Unnaturally fast answers (under 1.5s) are the strongest fraud
//     signal and carry the highest weight.
//   - Suspiciously slow answers (over 90s) are a weaker signal;
//     respondents may simply be distracted.
//   - Repeated pauses (tab switches, focus loss) suggest divided
//     attention. The contribution is capped so a single outlier
//     question cannot dominate.
//   - Location anomalies are a strong, independent signal.
//
// Deductions are additive rather than multiplicative so the result
// stays interpretable: the breakdown always accounts for the full
// distance from 100. The thresholds and weights are fixed; scores
// must be reproducible across deployments for dashboard comparability.
//
// There is no error path. Scoring is total over its input: malformed
// numeric fields are coerced (negatives clamped to 0, non-finite
// values treated as 0) before any arithmetic.
package trust

import (
	"math"

	"github.com/fieldlens/integrity/services/integrity/datatypes"
)

// Scoring thresholds and weights. Changing these breaks score
// compatibility with previously recorded submissions.
const (
	FastThresholdMs = 1500
	SlowThresholdMs = 90000

	fastWeight     = 40
	slowWeight     = 10
	pausePointCost = 6
	pauseCap       = 30
	locationWeight = 30
)

// Banding thresholds used by dashboard indicators.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"

	highBandMin   = 75
	mediumBandMin = 50
)

// Score computes the 0-100 trust score for a set of behavioral
// metadata. An empty set yields 100: no signal means full trust.
func Score(meta []datatypes.ResponseMeta) int {
	score, _ := ScoreWithBreakdown(meta)
	return score
}

// ScoreWithBreakdown computes the trust score along with the
// per-signal deductions that produced it.
//
// Rounding is half-away-from-zero (math.Round), so a raw score of
// 72.5 becomes 73.
func ScoreWithBreakdown(meta []datatypes.ResponseMeta) (int, datatypes.TrustBreakdown) {
	if len(meta) == 0 {
		return 100, datatypes.TrustBreakdown{}
	}

	total := float64(len(meta))
	var fastCount, slowCount, anomalyCount float64
	var pauseSum float64

	for _, m := range meta {
		timing := coerce(m.TimingMs)
		if timing > 0 && timing < FastThresholdMs {
			fastCount++
		}
		if timing > SlowThresholdMs {
			slowCount++
		}
		pauseSum += math.Max(0, coerce(m.Pauses))
		if m.LocationAnomaly {
			anomalyCount++
		}
	}

	breakdown := datatypes.TrustBreakdown{
		Fast:     (fastCount / total) * fastWeight,
		Slow:     (slowCount / total) * slowWeight,
		Pause:    math.Min(pauseCap, (pauseSum/total)*pausePointCost),
		Location: (anomalyCount / total) * locationWeight,
	}

	raw := 100 - (breakdown.Fast + breakdown.Slow + breakdown.Pause + breakdown.Location)
	return int(math.Round(clamp(raw, 0, 100))), breakdown
}

// Band maps a trust score to the integrity band shown on dashboard
// indicators: high (>=75), medium (>=50), low otherwise.
func Band(score int) string {
	switch {
	case score >= highBandMin:
		return BandHigh
	case score >= mediumBandMin:
		return BandMedium
	default:
		return BandLow
	}
}

func coerce(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
