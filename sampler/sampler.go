// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sampler implements consistent, memoized sampling of uncertain-value
// expression graphs.
//
// The hard requirement is correlation preservation: every reference to the
// same source anywhere in a graph must receive the same draw at the same
// sample index. Evaluating X - X must therefore yield exactly zero for every
// sample, not two independent draws. The sampler achieves this by collapsing
// reachable sources into an identity-keyed map, materializing each source's
// sequence once through the sample cache, and replaying the graph per index
// against those fixed sequences.
//
// Only source leaves and the root handle are cached; interior node results
// are recomputed per evaluation. Repeated Sample calls for the same handle
// and count short-circuit on the root entry and return the identical
// sequence.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/AleutianUncertain/cache"
	"github.com/AleutianAI/AleutianUncertain/graph"
)

// Parallel evaluation configuration defaults.
const (
	// defaultParallelThreshold is the minimum sample count to trigger
	// parallel index evaluation. Small requests stay sequential for
	// better cache locality.
	defaultParallelThreshold = 2048

	// maxParallelWorkers caps the number of goroutines regardless of CPU
	// count. Index replay is cheap; excessive fan-out only adds barrier
	// overhead.
	maxParallelWorkers = 8
)

// Options configure a Sampler.
type Options struct {
	// Parallelism is the maximum number of worker goroutines used for the
	// per-index evaluation pass. Values <= 1 force sequential evaluation.
	Parallelism int

	// ParallelThreshold is the minimum count at which the parallel pass
	// engages.
	ParallelThreshold int
}

// Option mutates Options.
type Option func(*Options)

// WithParallelism sets the worker cap for per-index evaluation.
func WithParallelism(n int) Option {
	return func(o *Options) { o.Parallelism = n }
}

// WithParallelThreshold sets the minimum count for parallel evaluation.
func WithParallelThreshold(n int) Option {
	return func(o *Options) { o.ParallelThreshold = n }
}

func defaultOptions() Options {
	workers := runtime.NumCPU()
	if workers > maxParallelWorkers {
		workers = maxParallelWorkers
	}
	return Options{
		Parallelism:       workers,
		ParallelThreshold: defaultParallelThreshold,
	}
}

// Sampler evaluates uncertain-value graphs against an injected sample cache.
//
// Description:
//
//	One Sampler serves any number of handles sharing the same cache. Two
//	handles that share a source observe the same per-index draws because
//	source sequences are keyed by source identity in the shared cache.
//
// Thread Safety: Sampler is safe for concurrent use. Concurrent Sample
// calls over shared sources collapse their draws into single producer
// invocations via the cache's singleflight discipline; replay may run
// concurrently, but every caller observes the first stored root sequence.
type Sampler[T any] struct {
	cache  *cache.SampleCache[T]
	logger *slog.Logger
	opts   Options
}

// New creates a Sampler over the given cache.
//
// Inputs:
//   - c: The sample cache to evaluate against. If nil, a private cache is
//     created; handles evaluated by this sampler then share draws only with
//     each other.
//   - logger: Logger for evaluation logs. If nil, uses slog.Default().
//   - opts: Optional parallelism tuning.
//
// Outputs:
//   - *Sampler[T]: The configured sampler. Never nil.
func New[T any](c *cache.SampleCache[T], logger *slog.Logger, opts ...Option) *Sampler[T] {
	if c == nil {
		c = cache.New[T]()
	}
	if logger == nil {
		logger = slog.Default()
	}
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Sampler[T]{
		cache:  c,
		logger: logger,
		opts:   options,
	}
}

// Cache returns the sample cache the sampler evaluates against, for
// top-level probes by the surrounding API layer.
func (s *Sampler[T]) Cache() *cache.SampleCache[T] { return s.cache }

// Sample produces count correlated samples of the graph rooted at u.
//
// Description:
//
//	Repeated calls for the same handle and count return the identical
//	sequence, bit for bit. Every source reachable from u is materialized at
//	length count through the cache before any index is evaluated, so each
//	occurrence of a source — however many parents reference it — replays the
//	same draw at a given index. The result is stored under the handle's own
//	identity.
//
// Inputs:
//   - ctx: Context for cancellation between evaluation phases. Must not be
//     nil.
//   - u: The handle to sample. Must not be nil.
//   - count: Number of samples. Must be >= 0; zero yields an empty sequence
//     without invoking any draw.
//
// Outputs:
//   - []T: Sequence of length count. Callers must not mutate it.
//   - error: A sentinel from this package, a cache error, a context error,
//     or an error produced by a draw/operator closure. On error nothing is
//     cached under the handle's key.
//
// Thread Safety: Safe for concurrent use.
func (s *Sampler[T]) Sample(ctx context.Context, u *graph.Uncertain[T], count int) ([]T, error) {
	if u == nil {
		return nil, ErrNilHandle
	}
	if count < 0 {
		return nil, ErrInvalidCount
	}

	ctx, span := tracer.Start(ctx, "sampler.Sample", trace.WithAttributes(
		attribute.String("handle_id", u.ID().String()),
		attribute.Int("count", count),
	))
	defer span.End()
	start := time.Now()

	// Root-level short-circuit: an already materialized handle never
	// forces a graph walk.
	if seq, ok := s.cache.Get(u.ID(), count); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		recordSample(ctx, time.Since(start), true)
		return seq, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	// The pipeline runs outside the root's flight: for a bare source handle
	// the handle id and the source id coincide, and the source-population
	// barrier keys the same (id, count) entry. Re-entering an in-flight
	// singleflight key would block on itself.
	seq, err := s.sampleRoot(ctx, u.Root(), count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Idempotent store: if source population or a concurrent caller already
	// materialized the key, the first stored sequence wins and is returned.
	stored, err := s.cache.GetOrCompute(ctx, u.ID(), count, func() ([]T, error) {
		return seq, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	recordSample(ctx, time.Since(start), false)
	return stored, nil
}

// sampleRoot runs the full evaluation pipeline for one root at one count:
// discovery, source barrier, condition pre-sampling, per-index replay.
func (s *Sampler[T]) sampleRoot(ctx context.Context, root graph.Node[T], count int) ([]T, error) {
	if count == 0 {
		return []T{}, nil
	}

	p, err := discover[T](root)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("sampling graph",
		"count", count,
		"sources", len(p.sources),
		"conditionals", len(p.conds),
	)

	srcSeqs, err := s.populateSources(ctx, p, count)
	if err != nil {
		return nil, err
	}
	condSeqs, err := s.populateConditions(ctx, p, count)
	if err != nil {
		return nil, err
	}
	// Barrier: every sequence an index can touch now exists at full
	// length, so indices are free to evaluate in any order.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.evaluate(ctx, root, count, srcSeqs, condSeqs)
}

// populateSources ensures every discovered source has a cached sequence of
// the requested length, drawing exactly count times per absent key.
func (s *Sampler[T]) populateSources(ctx context.Context, p *plan[T], count int) (map[uuid.UUID][]T, error) {
	seqs := make(map[uuid.UUID][]T, len(p.sources))
	for id, src := range p.sources {
		draw := src.Draw
		seq, err := s.cache.GetOrCompute(ctx, id, count, func() ([]T, error) {
			out := make([]T, count)
			for i := range out {
				out[i] = draw()
			}
			return out, nil
		})
		if err != nil {
			return nil, fmt.Errorf("populate source %s: %w", id, err)
		}
		seqs[id] = seq
	}
	return seqs, nil
}

// populateConditions materializes the boolean condition sequence for every
// conditional in the plan.
//
// Discovery only admits conditionals on boolean graphs, so the sampler's own
// element type is bool whenever this runs with work to do. The condition
// graph is sampled through the same pipeline, which means its sources follow
// the identical identity-collapsing and caching discipline — a source shared
// between a condition and a branch replays the same draws in both.
func (s *Sampler[T]) populateConditions(ctx context.Context, p *plan[T], count int) (map[*graph.ConditionalNode[T]][]bool, error) {
	if len(p.conds) == 0 {
		return nil, nil
	}
	bs, ok := any(s).(*Sampler[bool])
	if !ok {
		// discover already rejects this shape; kept as an invariant check.
		return nil, ErrUnsupportedConditional
	}

	seqs := make(map[*graph.ConditionalNode[T]][]bool, len(p.conds))
	for _, cond := range p.conds {
		seq, err := bs.sampleRoot(ctx, cond.Cond, count)
		if err != nil {
			return nil, fmt.Errorf("sample condition: %w", err)
		}
		seqs[cond] = seq
	}
	return seqs, nil
}

// evaluate replays the graph once per sample index against the materialized
// sequences, in parallel for large counts.
func (s *Sampler[T]) evaluate(
	ctx context.Context,
	root graph.Node[T],
	count int,
	srcSeqs map[uuid.UUID][]T,
	condSeqs map[*graph.ConditionalNode[T]][]bool,
) ([]T, error) {
	out := make([]T, count)

	workers := s.opts.Parallelism
	if workers > count {
		workers = count
	}
	if workers <= 1 || count < s.opts.ParallelThreshold {
		for i := 0; i < count; i++ {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			v, err := evalIndex(root, i, srcSeqs, condSeqs)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (count + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, count)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				v, err := evalIndex(root, i, srcSeqs, condSeqs)
				if err != nil {
					return err
				}
				out[i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// evalIndex evaluates one node at one sample index.
//
// Sources read their cached draw; maps transform; filters pass through;
// binary operators evaluate both children unconditionally so each side stays
// aligned on the same draws; conditionals consult the pre-sampled condition
// and evaluate only the selected branch.
func evalIndex[T any](
	n graph.Node[T],
	idx int,
	srcSeqs map[uuid.UUID][]T,
	condSeqs map[*graph.ConditionalNode[T]][]bool,
) (T, error) {
	var zero T
	switch n := n.(type) {
	case *graph.SourceNode[T]:
		seq, ok := srcSeqs[n.ID]
		if !ok || idx >= len(seq) {
			return zero, fmt.Errorf("%w: source %s index %d", ErrMissingIndex, n.ID, idx)
		}
		return seq[idx], nil

	case *graph.UnaryNode[T]:
		v, err := evalIndex(n.Operand, idx, srcSeqs, condSeqs)
		if err != nil {
			return zero, err
		}
		if n.Kind == graph.UnaryMap {
			return n.Map(v), nil
		}
		// Filter: predicate-only at this layer, value passes through.
		return v, nil

	case *graph.BinaryNode[T]:
		l, err := evalIndex(n.Left, idx, srcSeqs, condSeqs)
		if err != nil {
			return zero, err
		}
		r, err := evalIndex(n.Right, idx, srcSeqs, condSeqs)
		if err != nil {
			return zero, err
		}
		return n.Apply(l, r), nil

	case *graph.ConditionalNode[T]:
		seq, ok := condSeqs[n]
		if !ok || idx >= len(seq) {
			return zero, fmt.Errorf("%w: condition index %d", ErrMissingIndex, idx)
		}
		if seq[idx] {
			return evalIndex(n.IfTrue, idx, srcSeqs, condSeqs)
		}
		return evalIndex(n.IfFalse, idx, srcSeqs, condSeqs)

	default:
		return zero, fmt.Errorf("%w: unknown node kind %T", ErrMalformedGraph, n)
	}
}
