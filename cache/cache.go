// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache provides the sample cache backing consistent evaluation of
// uncertain-value graphs.
//
// The cache maps (identity, count) keys to materialized sample sequences.
// Once a key is stored it is never mutated or evicted; later requests for
// the same key observe the identical slice. Sequences cached for different
// counts under the same identity are independent slots with no prefix
// relationship.
//
// # Lifecycle
//
// A SampleCache is created once per evaluation session and injected into
// whatever evaluates against it. Entries persist for the cache's lifetime;
// unbounded growth is an accepted trade-off at this layer.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Producer execution is
// deduplicated per key via singleflight: concurrent requests for an absent
// key run the producer at most once, and losers observe the winner's stored
// sequence.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Key addresses one materialized sample sequence.
type Key struct {
	ID    uuid.UUID
	Count int
}

// String returns the canonical flight-group form of the key.
func (k Key) String() string {
	return k.ID.String() + ":" + strconv.Itoa(k.Count)
}

// Producer materializes a sequence for an absent key. It is invoked at most
// once per key; an error (or panic) leaves the key absent.
type Producer[T any] func() ([]T, error)

// SampleCache stores immutable sample sequences keyed by identity and count.
type SampleCache[T any] struct {
	mu      sync.RWMutex
	entries map[Key][]T
	flight  singleflight.Group

	// Stats (atomic for lock-free reads)
	hits     atomic.Int64
	misses   atomic.Int64
	computes atomic.Int64
}

// New creates an empty SampleCache.
func New[T any]() *SampleCache[T] {
	return &SampleCache[T]{
		entries: make(map[Key][]T),
	}
}

// Get probes the cache without inserting.
//
// Description:
//
//	Returns the stored sequence for (id, count) if present. Get never
//	invokes a producer and never blocks behind an in-flight compute; it is
//	the short-circuit used to skip re-evaluation of an already materialized
//	root.
//
// Inputs:
//   - id: Identity of the source or handle.
//   - count: Requested sequence length.
//
// Outputs:
//   - []T: The stored sequence. Callers must not mutate it.
//   - bool: True on a hit. A cached zero-length sequence is still a hit.
//
// Thread Safety: Safe for concurrent use; readers do not contend.
func (c *SampleCache[T]) Get(id uuid.UUID, count int) ([]T, bool) {
	c.mu.RLock()
	seq, ok := c.entries[Key{ID: id, Count: count}]
	c.mu.RUnlock()

	if ok {
		c.hits.Add(1)
		recordHit()
	} else {
		c.misses.Add(1)
		recordMiss()
	}
	return seq, ok
}

// GetOrCompute returns the sequence for (id, count), materializing it via
// produce when absent.
//
// Description:
//
//	On a hit the stored sequence is returned and produce is not invoked.
//	On a miss, concurrent callers for the same key collapse into a single
//	producer invocation; everyone observes the identical stored slice.
//	Distinct keys never serialize against each other.
//
//	A producer error stores nothing: the key stays absent and the error is
//	returned to every caller in the flight. The same holds if the producer
//	panics (the panic propagates, the key is not poisoned).
//
// Inputs:
//   - ctx: Checked before computing. Must not be nil.
//   - id: Identity of the source or handle.
//   - count: Requested sequence length. Must be >= 0.
//   - produce: Materializes exactly count values. Must not be nil.
//
// Outputs:
//   - []T: The stored sequence, length == count. Callers must not mutate it.
//   - error: ErrNegativeCount, ErrLengthMismatch, a context error, or the
//     producer's error.
//
// Thread Safety: Safe for concurrent use.
func (c *SampleCache[T]) GetOrCompute(ctx context.Context, id uuid.UUID, count int, produce Producer[T]) ([]T, error) {
	if count < 0 {
		return nil, ErrNegativeCount
	}
	key := Key{ID: id, Count: count}

	// Fast path: already materialized.
	if seq, ok := c.Get(id, count); ok {
		return seq, nil
	}

	v, err, _ := c.flight.Do(key.String(), func() (any, error) {
		// Re-probe inside the flight: the entry may have been stored
		// between the fast-path probe and joining the flight.
		c.mu.RLock()
		seq, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return seq, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seq, err := produce()
		if err != nil {
			return nil, err
		}
		if len(seq) != count {
			return nil, fmt.Errorf("%w: produced %d for key %s", ErrLengthMismatch, len(seq), key)
		}
		if seq == nil {
			seq = []T{}
		}

		c.mu.Lock()
		if existing, ok := c.entries[key]; ok {
			// Lost a race outside the flight group (e.g. a future
			// direct writer); the first stored sequence wins.
			c.mu.Unlock()
			return existing, nil
		}
		c.entries[key] = seq
		c.mu.Unlock()

		c.computes.Add(1)
		recordCompute()
		return seq, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// Len returns the number of materialized entries.
func (c *SampleCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits     int64
	Misses   int64
	Computes int64
	Entries  int
}

// Stats returns a snapshot of the cache counters.
//
// Counters are read atomically but not as one transaction; a snapshot taken
// under concurrent traffic may be slightly skewed across fields.
func (c *SampleCache[T]) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Computes: c.computes.Load(),
		Entries:  c.Len(),
	}
}
