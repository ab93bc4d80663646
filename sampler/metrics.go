// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sampler

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for sampling operations.
var (
	tracer = otel.Tracer("uncertain.sampler")
	meter  = otel.Meter("uncertain.sampler")
)

// Metrics for sampling operations.
var (
	sampleLatency metric.Float64Histogram
	sampleTotal   metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		sampleLatency, err = meter.Float64Histogram(
			"sample_duration_seconds",
			metric.WithDescription("Duration of Sample calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		sampleTotal, err = meter.Int64Counter(
			"sample_total",
			metric.WithDescription("Total number of Sample calls"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordSample records one completed Sample call. Metric failures degrade
// silently; sampling must not depend on the observability pipeline.
func recordSample(ctx context.Context, elapsed time.Duration, hit bool) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("cache_hit", hit))
	sampleLatency.Record(ctx, elapsed.Seconds(), attrs)
	sampleTotal.Add(ctx, 1, attrs)
}
