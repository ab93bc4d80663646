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

import "errors"

// Sentinel errors for sampling operations.
var (
	// ErrNilHandle is returned when Sample is called with a nil handle.
	ErrNilHandle = errors.New("uncertain handle is nil")

	// ErrInvalidCount is returned when the requested sample count is
	// negative.
	ErrInvalidCount = errors.New("sample count must not be negative")

	// ErrUnsupportedConditional is returned when evaluation reaches a
	// conditional node whose branches are of a non-boolean element type.
	// The engine provides no evaluation rule for that combination; the
	// call fails immediately rather than guessing.
	ErrUnsupportedConditional = errors.New("conditional over non-boolean element type is not supported")

	// ErrMissingIndex indicates a sample index was absent from an
	// already-populated sequence. This is an internal invariant violation
	// (a cache/count mismatch), never papered over by re-drawing: a fresh
	// draw at this point would reintroduce the correlation bug the engine
	// exists to prevent.
	ErrMissingIndex = errors.New("sample index missing from cached sequence")

	// ErrMalformedGraph is returned when a graph contains a nil child or
	// a node kind the evaluator does not recognize.
	ErrMalformedGraph = errors.New("malformed expression graph")
)
