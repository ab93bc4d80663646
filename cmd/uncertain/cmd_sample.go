// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianUncertain/cache"
	"github.com/AleutianAI/AleutianUncertain/dist"
	"github.com/AleutianAI/AleutianUncertain/pkg/logging"
	"github.com/AleutianAI/AleutianUncertain/sampler"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	sampleModelPath string
	sampleCount     int
	sampleSeed      int64
	sampleJSON      bool
	sampleMetrics   bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample a YAML-described expression graph",
	Long: `Load a model file, build its expression graph, and produce correlated
samples of the root expression.

Model format:

  count: 10000
  sources:
    x: {dist: normal, mean: 5, stddev: 2}
    c: {dist: point, value: 3}
  expr:
    op: mul
    left:
      op: sub
      left: {ref: x}
      right: {ref: x}
    right: {ref: c}

Distributions: normal (mean, stddev), uniform (low, high), exponential
(rate), point (value), categorical (values, weights).
Binary ops: add, sub, mul, div. Unary ops: neg, abs, exp, log, sqrt,
scale (k), shift (k).

Output is a summary table on a terminal, JSON otherwise (or with --json).`,
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().StringVarP(&sampleModelPath, "model", "f", "", "path to the YAML model file (required)")
	sampleCmd.Flags().IntVarP(&sampleCount, "count", "n", 0, "sample count (overrides the model's count)")
	sampleCmd.Flags().Int64Var(&sampleSeed, "seed", -1, "RNG seed for reproducible runs (negative means unseeded)")
	sampleCmd.Flags().BoolVar(&sampleJSON, "json", false, "force JSON output")
	sampleCmd.Flags().BoolVar(&sampleMetrics, "metrics", false, "dump OpenTelemetry metric readings on exit")
	_ = sampleCmd.MarkFlagRequired("model")
}

// =============================================================================
// EXECUTION
// =============================================================================

func runSample(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{Level: level, Service: "uncertain"})

	if sampleMetrics {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("create metric exporter: %w", err)
		}
		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
			sdkmetric.WithResource(resource.NewSchemaless(
				attribute.String("service.name", "uncertain"),
			)),
		)
		otel.SetMeterProvider(provider)
		defer func() {
			// Shutdown flushes the final metric readings to stdout.
			if err := provider.Shutdown(ctx); err != nil {
				logger.Warn("metric provider shutdown failed", "error", err)
			}
		}()
	}

	data, err := os.ReadFile(sampleModelPath)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	var model Model
	if err := yaml.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	if err := validator.New().Struct(&model); err != nil {
		return fmt.Errorf("invalid model: %w", err)
	}

	count := model.Count
	if sampleCount > 0 {
		count = sampleCount
	}
	if count == 0 {
		count = 10000
	}

	var distOpts []dist.Option
	if sampleSeed >= 0 {
		distOpts = append(distOpts, dist.WithRand(rand.New(rand.NewSource(sampleSeed))))
	}

	u, err := model.Build(distOpts...)
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}

	s := sampler.New(cache.New[float64](), logger)
	samples, err := s.Sample(ctx, u, count)
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	logger.Debug("sampling complete",
		"count", len(samples),
		"cache_entries", s.Cache().Len(),
	)
	return writeSummary(os.Stdout, summarize(samples))
}

// =============================================================================
// OUTPUT
// =============================================================================

// Summary holds descriptive statistics of a sample sequence.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

func summarize(samples []float64) Summary {
	n := len(samples)
	if n == 0 {
		return Summary{}
	}

	sum := 0.0
	for _, v := range samples {
		sum += v
	}
	mean := sum / float64(n)

	ss := 0.0
	for _, v := range samples {
		d := v - mean
		ss += d * d
	}
	stddev := 0.0
	if n > 1 {
		stddev = math.Sqrt(ss / float64(n-1))
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	quantile := func(q float64) float64 {
		idx := int(q * float64(n-1))
		return sorted[idx]
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		Stddev: stddev,
		Min:    sorted[0],
		Max:    sorted[n-1],
		P50:    quantile(0.50),
		P90:    quantile(0.90),
		P99:    quantile(0.99),
	}
}

func writeSummary(f *os.File, s Summary) error {
	if !sampleJSON && isatty.IsTerminal(f.Fd()) {
		fmt.Fprintf(f, "count   %d\n", s.Count)
		fmt.Fprintf(f, "mean    %.6g\n", s.Mean)
		fmt.Fprintf(f, "stddev  %.6g\n", s.Stddev)
		fmt.Fprintf(f, "min     %.6g\n", s.Min)
		fmt.Fprintf(f, "max     %.6g\n", s.Max)
		fmt.Fprintf(f, "p50     %.6g\n", s.P50)
		fmt.Fprintf(f, "p90     %.6g\n", s.P90)
		fmt.Fprintf(f, "p99     %.6g\n", s.P99)
		return nil
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
