// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dist provides named base distributions as uncertain-value sources.
//
// Each constructor wraps a draw closure in a graph.NewSource handle. By
// default draws come from the process-global math/rand generator; pass
// WithRand for a deterministic, seeded stream. The injected generator is
// mutex-guarded because source draws for distinct cache keys may run
// concurrently.
package dist

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/AleutianAI/AleutianUncertain/graph"
)

// ErrInvalidWeights is returned by Categorical when the weights are unusable.
var ErrInvalidWeights = errors.New("categorical weights must be non-empty, non-negative, and match values")

// lockedRand serializes access to a caller-supplied *rand.Rand, which is not
// safe for concurrent use on its own.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) normFloat64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.NormFloat64()
}

func (l *lockedRand) expFloat64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.ExpFloat64()
}

type config struct {
	rng *lockedRand
}

// Option configures a distribution constructor.
type Option func(*config)

// WithRand uses the given generator for draws instead of the process-global
// one. Use a seeded generator for reproducible runs:
//
//	r := rand.New(rand.NewSource(42))
//	x := dist.Normal(0, 1, dist.WithRand(r))
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.rng = &lockedRand{r: r} }
}

func apply(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) float64() float64 {
	if c.rng != nil {
		return c.rng.float64()
	}
	return rand.Float64()
}

func (c config) normFloat64() float64 {
	if c.rng != nil {
		return c.rng.normFloat64()
	}
	return rand.NormFloat64()
}

func (c config) expFloat64() float64 {
	if c.rng != nil {
		return c.rng.expFloat64()
	}
	return rand.ExpFloat64()
}

// Normal returns a source drawing from N(mean, stddev²).
func Normal(mean, stddev float64, opts ...Option) *graph.Uncertain[float64] {
	c := apply(opts)
	return graph.NewSource(func() float64 {
		return mean + stddev*c.normFloat64()
	})
}

// Uniform returns a source drawing uniformly from [low, high).
func Uniform(low, high float64, opts ...Option) *graph.Uncertain[float64] {
	c := apply(opts)
	return graph.NewSource(func() float64 {
		return low + (high-low)*c.float64()
	})
}

// Exponential returns a source drawing from Exp(rate). rate must be > 0.
func Exponential(rate float64, opts ...Option) *graph.Uncertain[float64] {
	c := apply(opts)
	return graph.NewSource(func() float64 {
		return c.expFloat64() / rate
	})
}

// Point returns a degenerate source that always draws value. Useful for
// mixing constants into an expression graph.
func Point(value float64) *graph.Uncertain[float64] {
	return graph.NewSource(func() float64 { return value })
}

// Bernoulli returns a boolean source that draws true with probability p.
// p is clamped to [0, 1].
func Bernoulli(p float64, opts ...Option) *graph.Uncertain[bool] {
	c := apply(opts)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return graph.NewSource(func() bool {
		return c.float64() < p
	})
}

// Categorical returns a source drawing from values with the given weights.
// A nil weights slice means uniform choice. Weights need not be normalized.
func Categorical(values []float64, weights []float64, opts ...Option) (*graph.Uncertain[float64], error) {
	if len(values) == 0 {
		return nil, ErrInvalidWeights
	}
	if weights == nil {
		weights = make([]float64, len(values))
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != len(values) {
		return nil, ErrInvalidWeights
	}

	// Cumulative weights, computed once at construction.
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 {
			return nil, ErrInvalidWeights
		}
		total += w
		cum[i] = total
	}
	if total <= 0 {
		return nil, ErrInvalidWeights
	}

	c := apply(opts)
	return graph.NewSource(func() float64 {
		u := c.float64() * total
		for i, edge := range cum {
			if u < edge {
				return values[i]
			}
		}
		return values[len(values)-1]
	}), nil
}
