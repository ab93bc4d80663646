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
	"fmt"
	"math"

	"github.com/AleutianAI/AleutianUncertain/dist"
	"github.com/AleutianAI/AleutianUncertain/graph"
)

// Model is the YAML description of a sampling run: named sources with
// distribution parameters plus an expression tree over them.
//
// A source referenced more than once in the expression resolves to the same
// handle each time, so correlated references behave correlated — the file
//
//	sources:
//	  x: {dist: normal, mean: 5, stddev: 2}
//	expr:
//	  op: sub
//	  left: {ref: x}
//	  right: {ref: x}
//
// samples to exactly zero at every index.
type Model struct {
	// Count is the default number of samples; overridable on the CLI.
	Count int `yaml:"count" validate:"gte=0"`

	// Sources maps names to base distributions.
	Sources map[string]SourceSpec `yaml:"sources" validate:"required,min=1,dive"`

	// Expr is the expression to sample.
	Expr *ExprSpec `yaml:"expr" validate:"required"`
}

// SourceSpec describes one base distribution. Parameter fields are
// interpreted per Dist; unused fields are ignored.
type SourceSpec struct {
	Dist string `yaml:"dist" validate:"required,oneof=normal uniform exponential point categorical"`

	Mean   float64 `yaml:"mean"`
	Stddev float64 `yaml:"stddev" validate:"gte=0"`
	Low    float64 `yaml:"low"`
	High   float64 `yaml:"high"`
	Rate   float64 `yaml:"rate" validate:"gte=0"`
	Value  float64 `yaml:"value"`

	Values  []float64 `yaml:"values,omitempty"`
	Weights []float64 `yaml:"weights,omitempty"`
}

// ExprSpec is one node of the expression tree. Exactly one of Ref or Op is
// set; binary ops use Left/Right, unary ops use Of (plus K for scale/shift).
type ExprSpec struct {
	Ref string `yaml:"ref,omitempty"`

	Op    string    `yaml:"op,omitempty"`
	Left  *ExprSpec `yaml:"left,omitempty"`
	Right *ExprSpec `yaml:"right,omitempty"`
	Of    *ExprSpec `yaml:"of,omitempty"`
	K     float64   `yaml:"k,omitempty"`
}

// Build resolves the model to a single uncertain handle. Source handles are
// constructed once per name and shared across every reference.
func (m *Model) Build(opts ...dist.Option) (*graph.Uncertain[float64], error) {
	handles := make(map[string]*graph.Uncertain[float64], len(m.Sources))
	for name, spec := range m.Sources {
		h, err := spec.build(opts)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		handles[name] = h
	}
	return buildExpr(m.Expr, handles)
}

func (s SourceSpec) build(opts []dist.Option) (*graph.Uncertain[float64], error) {
	switch s.Dist {
	case "normal":
		return dist.Normal(s.Mean, s.Stddev, opts...), nil
	case "uniform":
		if s.High < s.Low {
			return nil, fmt.Errorf("uniform: high %v below low %v", s.High, s.Low)
		}
		return dist.Uniform(s.Low, s.High, opts...), nil
	case "exponential":
		if s.Rate <= 0 {
			return nil, fmt.Errorf("exponential: rate must be > 0, got %v", s.Rate)
		}
		return dist.Exponential(s.Rate, opts...), nil
	case "point":
		return dist.Point(s.Value), nil
	case "categorical":
		return dist.Categorical(s.Values, s.Weights, opts...)
	default:
		return nil, fmt.Errorf("unknown distribution %q", s.Dist)
	}
}

func buildExpr(e *ExprSpec, handles map[string]*graph.Uncertain[float64]) (*graph.Uncertain[float64], error) {
	if e == nil {
		return nil, fmt.Errorf("empty expression node")
	}

	if e.Ref != "" {
		h, ok := handles[e.Ref]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", e.Ref)
		}
		return h, nil
	}

	switch e.Op {
	case "add", "sub", "mul", "div":
		if e.Left == nil || e.Right == nil {
			return nil, fmt.Errorf("op %q needs left and right", e.Op)
		}
		l, err := buildExpr(e.Left, handles)
		if err != nil {
			return nil, err
		}
		r, err := buildExpr(e.Right, handles)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case "add":
			return graph.Add(l, r), nil
		case "sub":
			return graph.Sub(l, r), nil
		case "mul":
			return graph.Mul(l, r), nil
		default:
			return graph.Div(l, r), nil
		}

	case "neg", "abs", "exp", "log", "sqrt", "scale", "shift":
		if e.Of == nil {
			return nil, fmt.Errorf("op %q needs an operand", e.Op)
		}
		operand, err := buildExpr(e.Of, handles)
		if err != nil {
			return nil, err
		}
		k := e.K
		switch e.Op {
		case "neg":
			return graph.Map(operand, func(v float64) float64 { return -v }), nil
		case "abs":
			return graph.Map(operand, math.Abs), nil
		case "exp":
			return graph.Map(operand, math.Exp), nil
		case "log":
			return graph.Map(operand, math.Log), nil
		case "sqrt":
			return graph.Map(operand, math.Sqrt), nil
		case "scale":
			return graph.Map(operand, func(v float64) float64 { return v * k }), nil
		default:
			return graph.Map(operand, func(v float64) float64 { return v + k }), nil
		}

	case "":
		return nil, fmt.Errorf("expression node needs ref or op")
	default:
		return nil, fmt.Errorf("unknown op %q", e.Op)
	}
}
