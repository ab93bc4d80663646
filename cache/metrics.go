// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for cache operations.
var meter = otel.Meter("uncertain.cache")

// Metrics for cache operations.
var (
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	cacheComputes metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"sample_cache_hits_total",
			metric.WithDescription("Total number of sample cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"sample_cache_misses_total",
			metric.WithDescription("Total number of sample cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheComputes, err = meter.Int64Counter(
			"sample_cache_computes_total",
			metric.WithDescription("Total number of producer invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordHit() {
	if initMetrics() != nil {
		return
	}
	cacheHits.Add(context.Background(), 1)
}

func recordMiss() {
	if initMetrics() != nil {
		return
	}
	cacheMisses.Add(context.Background(), 1)
}

func recordCompute() {
	if initMetrics() != nil {
		return
	}
	cacheComputes.Add(context.Background(), 1)
}
