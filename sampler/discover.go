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
	"fmt"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianUncertain/graph"
)

// plan is the result of walking a graph before evaluation: every reachable
// source collapsed by identity, plus every conditional whose condition
// sequence must be materialized ahead of the per-index pass.
type plan[T any] struct {
	sources map[uuid.UUID]*graph.SourceNode[T]
	conds   []*graph.ConditionalNode[T]
}

// discover walks the graph rooted at root and collects its sources and
// conditionals.
//
// Sources are keyed by identity, so a source referenced under multiple
// parents collapses to one entry; this map-not-list shape is what makes the
// correlation guarantee hold for shared sub-expressions. Shared interior
// nodes are visited once via a pointer-identity set, keeping the walk linear
// on heavily shared graphs.
//
// A conditional with non-boolean branches has no evaluation rule and fails
// the walk with ErrUnsupportedConditional.
func discover[T any](root graph.Node[T]) (*plan[T], error) {
	p := &plan[T]{sources: make(map[uuid.UUID]*graph.SourceNode[T])}
	visited := make(map[graph.Node[T]]struct{})
	if err := collect(root, p, visited); err != nil {
		return nil, err
	}
	return p, nil
}

func collect[T any](n graph.Node[T], p *plan[T], visited map[graph.Node[T]]struct{}) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrMalformedGraph)
	}
	if _, seen := visited[n]; seen {
		return nil
	}
	visited[n] = struct{}{}

	switch n := n.(type) {
	case *graph.SourceNode[T]:
		p.sources[n.ID] = n
		return nil

	case *graph.UnaryNode[T]:
		return collect(n.Operand, p, visited)

	case *graph.BinaryNode[T]:
		if err := collect(n.Left, p, visited); err != nil {
			return err
		}
		return collect(n.Right, p, visited)

	case *graph.ConditionalNode[T]:
		var zero T
		if _, ok := any(zero).(bool); !ok {
			return ErrUnsupportedConditional
		}
		if n.Cond == nil {
			return fmt.Errorf("%w: conditional with nil condition", ErrMalformedGraph)
		}
		p.conds = append(p.conds, n)
		// The condition graph is walked by its own sampling pass; only
		// the branches belong to this plan.
		if err := collect(n.IfTrue, p, visited); err != nil {
			return err
		}
		return collect(n.IfFalse, p, visited)

	default:
		return fmt.Errorf("%w: unknown node kind %T", ErrMalformedGraph, n)
	}
}
