// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormal_SeededDeterminism(t *testing.T) {
	a := Normal(10, 2, WithRand(rand.New(rand.NewSource(42))))
	b := Normal(10, 2, WithRand(rand.New(rand.NewSource(42))))

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Draw(), b.Draw(), "same seed must replay the same stream")
	}
}

func TestNormal_MeanShift(t *testing.T) {
	u := Normal(100, 0, WithRand(rand.New(rand.NewSource(1))))
	for i := 0; i < 10; i++ {
		assert.Equal(t, 100.0, u.Draw(), "zero stddev collapses to the mean")
	}
}

func TestUniform_Bounds(t *testing.T) {
	u := Uniform(-3, 5, WithRand(rand.New(rand.NewSource(7))))
	for i := 0; i < 1000; i++ {
		v := u.Draw()
		if v < -3 || v >= 5 {
			t.Fatalf("draw %v outside [-3, 5)", v)
		}
	}
}

func TestExponential_NonNegative(t *testing.T) {
	u := Exponential(2, WithRand(rand.New(rand.NewSource(9))))
	for i := 0; i < 1000; i++ {
		if v := u.Draw(); v < 0 {
			t.Fatalf("exponential draw must be non-negative, got %v", v)
		}
	}
}

func TestPoint_Constant(t *testing.T) {
	u := Point(3.5)
	for i := 0; i < 5; i++ {
		assert.Equal(t, 3.5, u.Draw())
	}
}

func TestBernoulli_Clamped(t *testing.T) {
	always := Bernoulli(1.5, WithRand(rand.New(rand.NewSource(1))))
	never := Bernoulli(-0.25, WithRand(rand.New(rand.NewSource(1))))
	for i := 0; i < 100; i++ {
		assert.True(t, always.Draw(), "p above one clamps to certain truth")
		assert.False(t, never.Draw(), "p below zero clamps to certain falsehood")
	}
}

func TestBernoulli_Mixes(t *testing.T) {
	u := Bernoulli(0.5, WithRand(rand.New(rand.NewSource(3))))
	var trues int
	for i := 0; i < 1000; i++ {
		if u.Draw() {
			trues++
		}
	}
	assert.Greater(t, trues, 400)
	assert.Less(t, trues, 600)
}

func TestCategorical_DrawsFromSupport(t *testing.T) {
	values := []float64{1, 2, 3}
	u, err := Categorical(values, []float64{1, 1, 2}, WithRand(rand.New(rand.NewSource(5))))
	require.NoError(t, err)

	seen := map[float64]int{}
	for i := 0; i < 2000; i++ {
		seen[u.Draw()]++
	}
	for _, v := range values {
		assert.Positive(t, seen[v], "value %v never drawn", v)
	}
	assert.Len(t, seen, len(values))
	assert.Greater(t, seen[3], seen[1], "double-weighted value should dominate")
}

func TestCategorical_InvalidInputs(t *testing.T) {
	cases := []struct {
		name    string
		values  []float64
		weights []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{1, 2}, []float64{1}},
		{"negative weight", []float64{1, 2}, []float64{1, -1}},
		{"all zero weights", []float64{1, 2}, []float64{0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Categorical(tc.values, tc.weights)
			assert.ErrorIs(t, err, ErrInvalidWeights)
		})
	}
}
