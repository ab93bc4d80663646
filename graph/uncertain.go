// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "github.com/google/uuid"

// Uncertain is the externally visible handle for an uncertain value: an
// expression graph root paired with its own identity and a single-draw
// capability.
//
// Description:
//
//	The handle identity is the cache key for the fully evaluated root-level
//	sample sequence. It is distinct from any source identity inside the
//	graph, except when the handle wraps a bare source, in which case the two
//	coincide by construction (see NewSource).
//
// Thread Safety: Uncertain is immutable after construction and safe for
// concurrent use.
type Uncertain[T any] struct {
	id   uuid.UUID
	draw func() T
	root Node[T]
}

// NewSource creates an uncertain value backed by a single random draw.
//
// Description:
//
//	Allocates a fresh identity shared by the handle and its leaf node, so
//	that the root-level sequence and the source sequence occupy the same
//	cache slot. draw may be impure; it is the only piece of the graph a
//	consistent evaluator ever invokes.
//
// Inputs:
//   - draw: Produces one value per call. Must not be nil.
//
// Outputs:
//   - *Uncertain[T]: The handle. Construction never fails.
func NewSource[T any](draw func() T) *Uncertain[T] {
	id := uuid.New()
	return &Uncertain[T]{
		id:   id,
		draw: draw,
		root: &SourceNode[T]{ID: id, Draw: draw},
	}
}

// ID returns the handle's stable identity.
func (u *Uncertain[T]) ID() uuid.UUID { return u.id }

// Root returns the root node of the expression graph.
func (u *Uncertain[T]) Root() Node[T] { return u.root }

// Draw produces one uncached, uncorrelated value from the handle.
//
// Draw exists for callers that want a single ad-hoc realization. It does
// not consult any cache and gives no correlation guarantee across repeated
// references to shared sources; use a sampler for that.
func (u *Uncertain[T]) Draw() T { return u.draw() }

// Map derives a new uncertain value by transforming every realization of u
// through the pure function f.
//
// The result has a fresh identity; u keeps its own. The operand graph is
// shared by reference, never copied.
func Map[T any](u *Uncertain[T], f func(T) T) *Uncertain[T] {
	return &Uncertain[T]{
		id:   uuid.New(),
		draw: func() T { return f(u.draw()) },
		root: &UnaryNode[T]{Operand: u.root, Kind: UnaryMap, Map: f},
	}
}

// Filter attaches a predicate to u.
//
// At the core evaluation layer a filter is a pass-through: realizations flow
// unchanged and the predicate is only recorded. Rejection sampling built on
// the predicate belongs to layers above the evaluator.
func Filter[T any](u *Uncertain[T], keep func(T) bool) *Uncertain[T] {
	return &Uncertain[T]{
		id:   uuid.New(),
		draw: u.draw,
		root: &UnaryNode[T]{Operand: u.root, Kind: UnaryFilter, Keep: keep},
	}
}

// Combine derives a new uncertain value by applying the pure operator to
// corresponding realizations of left and right.
//
// When left and right share sources (including being the same handle), a
// consistent evaluator feeds both sides the same draw at each sample index.
func Combine[T any](left, right *Uncertain[T], apply func(T, T) T) *Uncertain[T] {
	return &Uncertain[T]{
		id:   uuid.New(),
		draw: func() T { return apply(left.draw(), right.draw()) },
		root: &BinaryNode[T]{Left: left.root, Right: right.root, Apply: apply},
	}
}

// If selects between ifTrue and ifFalse based on a boolean uncertain value
// evaluated at the same sample index.
func If[T any](cond *Uncertain[bool], ifTrue, ifFalse *Uncertain[T]) *Uncertain[T] {
	return &Uncertain[T]{
		id: uuid.New(),
		draw: func() T {
			if cond.draw() {
				return ifTrue.draw()
			}
			return ifFalse.draw()
		},
		root: &ConditionalNode[T]{Cond: cond.root, IfTrue: ifTrue.root, IfFalse: ifFalse.root},
	}
}

// Arithmetic helpers over float64 handles.

// Add returns a + b.
func Add(a, b *Uncertain[float64]) *Uncertain[float64] {
	return Combine(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b. Subtracting a handle from itself yields exactly zero
// at every sample index under a consistent evaluator.
func Sub(a, b *Uncertain[float64]) *Uncertain[float64] {
	return Combine(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b.
func Mul(a, b *Uncertain[float64]) *Uncertain[float64] {
	return Combine(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a / b. Division by a zero realization follows IEEE 754.
func Div(a, b *Uncertain[float64]) *Uncertain[float64] {
	return Combine(a, b, func(x, y float64) float64 { return x / y })
}

// Boolean helpers for condition graphs.

// Not negates a boolean uncertain value.
func Not(u *Uncertain[bool]) *Uncertain[bool] {
	return Map(u, func(v bool) bool { return !v })
}

// And returns a && b. Both operands are evaluated at every index.
func And(a, b *Uncertain[bool]) *Uncertain[bool] {
	return Combine(a, b, func(x, y bool) bool { return x && y })
}

// Or returns a || b. Both operands are evaluated at every index.
func Or(a, b *Uncertain[bool]) *Uncertain[bool] {
	return Combine(a, b, func(x, y bool) bool { return x || y })
}
