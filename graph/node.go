// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the expression-graph model for uncertain values.
//
// An uncertain value is a quantity whose concrete value is determined by a
// random draw. The graph package represents such values as immutable trees of
// nodes: leaf sources with a stable identity, unary and binary operators over
// them, and conditionals selecting between sub-graphs. Multiple parents may
// point at the same sub-graph; sharing a node shares the pointer and never
// copies or re-executes the underlying closures.
//
// # Ownership Model
//
// Nodes are immutable after construction:
//   - Closures held by a node MUST NOT be swapped after the node is built
//   - The graph is required to be acyclic; cycle detection is not performed
//   - Source identities are assigned at construction time and never change
//
// # Thread Safety
//
// Because nodes are immutable, a fully constructed graph can be read from
// multiple goroutines without synchronization. Construction itself is
// single-writer, like any plain Go struct.
package graph

import "github.com/google/uuid"

// Node is one vertex in an uncertain-value expression graph over element
// type T. It is a sealed interface: the only implementations are
// SourceNode, UnaryNode, BinaryNode, and ConditionalNode.
//
// Nodes carry structure only. They hold closures and child references but
// have no evaluation behavior of their own; sampling semantics live in the
// sampler package.
type Node[T any] interface {
	// node restricts implementations to this package.
	node()
}

// SourceNode is a leaf representing one independent random draw.
//
// ID is stable for the lifetime of the node and is the cache key for the
// source's sample sequences. Draw produces one value per invocation and may
// be impure; a consistent evaluator calls it at most count times per
// (ID, count) cache key.
type SourceNode[T any] struct {
	ID   uuid.UUID
	Draw func() T
}

// UnaryKind distinguishes the two unary operator shapes.
type UnaryKind int

const (
	// UnaryMap transforms the operand value through a pure function.
	UnaryMap UnaryKind = iota

	// UnaryFilter attaches a predicate to the operand. Evaluation passes
	// the operand value through unchanged; rejection and resampling are a
	// concern of layers above the core evaluator.
	UnaryFilter
)

// UnaryNode applies a unary operator to a single operand.
//
// Exactly one of Map or Keep is set, matching Kind.
type UnaryNode[T any] struct {
	Operand Node[T]
	Kind    UnaryKind
	Map     func(T) T
	Keep    func(T) bool
}

// BinaryNode combines two operands through a pure binary operator.
//
// Both children are always evaluated for a given sample index; there is no
// operator-level short-circuiting, so both sides stay aligned on the same
// underlying draws.
type BinaryNode[T any] struct {
	Left  Node[T]
	Right Node[T]
	Apply func(T, T) T
}

// ConditionalNode selects between two sub-graphs based on a boolean
// condition graph evaluated at the same sample index.
//
// Cond is structurally an ordinary expression graph, just over bool. Only
// the selected branch is evaluated for a given index.
type ConditionalNode[T any] struct {
	Cond    Node[bool]
	IfTrue  Node[T]
	IfFalse Node[T]
}

func (*SourceNode[T]) node()      {}
func (*UnaryNode[T]) node()       {}
func (*BinaryNode[T]) node()      {}
func (*ConditionalNode[T]) node() {}
