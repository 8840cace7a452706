// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolver drives the abstract source adapters in priority order
// and returns the first hit.
package resolver

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/internal/similarity"
	"github.com/pdiddy/paper-pipeline/internal/sources"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Cache stores positive lookup results keyed by normalized title.
type Cache interface {
	Get(ctx context.Context, key string) (types.SourceResult, bool, error)
	Put(ctx context.Context, key string, result types.SourceResult) error
}

// Resolver tries each adapter in order until one finds an abstract.
// It is safe for concurrent use when its adapters and cache are.
type Resolver struct {
	adapters []sources.Adapter
	active   map[string]bool
	cache    Cache
	metrics  *observability.Metrics
	log      zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache consults c before any adapter and stores hits in it.
func WithCache(c Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithMetrics records resolved abstracts and cache hits.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithLogger sets the resolver's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.log = observability.WithComponent(l, "resolver") }
}

// New returns a Resolver over adapters, which are tried in slice order.
func New(adapters []sources.Adapter, opts ...Option) *Resolver {
	r := &Resolver{adapters: adapters, active: make(map[string]bool, len(adapters)), log: zerolog.Nop()}
	for _, a := range adapters {
		r.active[provenance(a)] = true
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// provenance is the Source value an adapter stamps on its results.
func provenance(a sources.Adapter) string {
	if d, ok := a.(interface{ Display() string }); ok {
		return d.Display()
	}
	return a.Name()
}

// Adapters returns the adapter names in priority order.
func (r *Resolver) Adapters() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Resolve returns the first found result in adapter order. When every
// adapter misses, or ctx ends first, it returns a not-found result with
// source "none". A panicking adapter is treated as a miss. Cached results
// are only reused when the source that produced them is still configured.
func (r *Resolver) Resolve(ctx context.Context, title string) types.SourceResult {
	key := similarity.NormalizeTitle(title)
	if key == "" {
		return types.NotFound(types.SourceNone)
	}

	if r.cache != nil {
		if res, ok, err := r.cache.Get(ctx, key); err != nil {
			r.log.Warn().Err(err).Msg("cache read failed")
		} else if ok && r.active[res.Source] {
			r.metrics.RecordCacheHit()
			return res
		} else if ok {
			r.log.Debug().Str("source", res.Source).Msg("ignoring cached abstract from inactive source")
		}
	}

	for _, a := range r.adapters {
		if ctx.Err() != nil {
			r.log.Debug().Err(ctx.Err()).Msg("resolution stopped")
			break
		}

		res := r.try(ctx, a, title)
		if !res.Found || strings.TrimSpace(res.Abstract) == "" {
			continue
		}

		r.metrics.RecordAbstractResolved(res.Source)
		if r.cache != nil {
			if err := r.cache.Put(ctx, key, res); err != nil {
				r.log.Warn().Err(err).Msg("cache write failed")
			}
		}
		return res
	}
	return types.NotFound(types.SourceNone)
}

func (r *Resolver) try(ctx context.Context, a sources.Adapter, title string) (res types.SourceResult) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Str("source", a.Name()).Interface("panic", p).Msg("adapter panicked")
			res = types.NotFound(a.Name())
		}
	}()
	return a.Lookup(ctx, title)
}
