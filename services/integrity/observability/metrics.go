// Copyright (C) 2025 Fieldlens Labs (oss@fieldlens.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the integrity
// engine.
//
// Metrics cover the three scoring/audit operations plus session
// lifecycle. All operations are thread-safe via Prometheus's internal
// locking. Exposed on /metrics; pair with Prometheus + Grafana for
// dashboards and alerting.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace   = "fieldlens"
	integritySubsystem = "integrity"
)

var (
	// RequestsTotal counts boundary requests by endpoint and status.
	// Labels: endpoint (trust_score, audit, autocode, results),
	// status (success, client_error, upstream_error).
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: integritySubsystem,
			Name:      "requests_total",
			Help:      "Integrity engine requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	// ReasoningLatencySeconds measures reasoning-service round trips.
	// Labels: operation (audit, autocode).
	ReasoningLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: integritySubsystem,
			Name:      "reasoning_latency_seconds",
			Help:      "Latency of external reasoning service calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// FallbacksTotal counts malformed-payload fallbacks by operation.
	// A rising rate means the reasoning service has stopped honoring
	// the strict-JSON contract.
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: integritySubsystem,
			Name:      "fallbacks_total",
			Help:      "Malformed upstream payloads replaced with safe defaults.",
		},
		[]string{"operation"},
	)

	// ActiveSessions gauges in-flight response sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: integritySubsystem,
			Name:      "active_sessions",
			Help:      "Response sessions currently in the Active state.",
		},
	)
)
