// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-pipeline/internal/cache"
	"github.com/pdiddy/paper-pipeline/internal/categorize"
	"github.com/pdiddy/paper-pipeline/internal/config"
	"github.com/pdiddy/paper-pipeline/internal/dedup"
	"github.com/pdiddy/paper-pipeline/internal/fetch"
	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/internal/pipeline"
	"github.com/pdiddy/paper-pipeline/internal/resolver"
	"github.com/pdiddy/paper-pipeline/internal/similarity"
	"github.com/pdiddy/paper-pipeline/internal/sources"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// app holds the components every command is built from.
type app struct {
	cfg      types.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics

	fetcher  *fetch.Fetcher
	dedup    *dedup.Deduplicator
	resolver *resolver.Resolver
	pipeline *pipeline.Pipeline
	cache    *cache.Store
}

// newApp loads configuration from viper and wires the pipeline.
func newApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := observability.NewLogger(cfg.Logging)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	denom, err := similarity.ParseDenominator(cfg.Similarity.Denominator)
	if err != nil {
		return nil, err
	}
	scorer := similarity.NewScorer(denom)

	strictness, err := dedup.ParseStrictness(string(cfg.Dedup.Strictness))
	if err != nil {
		return nil, err
	}

	client := httputil.NewClient(cfg.HTTP)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		metrics:  metrics,
		fetcher:  fetch.New(client, cfg.Fetch, fetch.WithMetrics(metrics), fetch.WithLogger(logger)),
		dedup: dedup.New(dedup.Options{
			Strictness: strictness,
			Threshold:  cfg.Dedup.Threshold,
			Scorer:     scorer,
		}),
	}

	opts := sources.OptionsFromConfig(cfg.Resolver, scorer, client, logger, metrics)
	adapters, skipped, err := sources.Build(cfg.Resolver.Order, cfg.Sources, opts)
	if err != nil {
		return nil, fmt.Errorf("building abstract sources: %w", err)
	}
	for _, name := range skipped {
		logger.Info().Str("source", name).Msg("source disabled: no API key configured")
	}

	resolverOpts := []resolver.Option{resolver.WithMetrics(metrics), resolver.WithLogger(logger)}
	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.cache = store
		resolverOpts = append(resolverOpts, resolver.WithCache(store))
		logger.Info().Str("path", cfg.Cache.Path).Msg("abstract cache enabled")
		logCacheStats(context.Background(), store, logger)
	}
	a.resolver = resolver.New(adapters, resolverOpts...)

	a.pipeline = pipeline.New(a.dedup, a.resolver, categorize.New(cfg.Pipeline.MinAbstractLength), pipeline.Config{
		MinAbstractLength: cfg.Pipeline.MinAbstractLength,
		RunBudget:         cfg.Pipeline.RunBudget,
	}, pipeline.WithMetrics(metrics), pipeline.WithLogger(logger))

	logger.Debug().Strs("sources", a.resolver.Adapters()).Msg("pipeline ready")
	return a, nil
}

// logCacheStats reports how many abstracts the cache already holds.
func logCacheStats(ctx context.Context, store *cache.Store, logger zerolog.Logger) {
	st, err := store.Stats(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("reading cache stats")
		return
	}
	bySource := zerolog.Dict()
	for source, n := range st.BySource {
		bySource.Int(source, n)
	}
	logger.Info().Int("entries", st.Entries).Dict("by_source", bySource).Msg("abstract cache loaded")
}

// Close releases the cache, if any.
func (a *app) Close() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}
