// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config turns a viper instance into a validated types.Config.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-pipeline/internal/dedup"
	"github.com/pdiddy/paper-pipeline/internal/similarity"
	"github.com/pdiddy/paper-pipeline/internal/sources"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// PAPER_PIPELINE_SERVER_ADDRESS for server.address.
const EnvPrefix = "PAPER_PIPELINE"

// SetDefaults registers every key of types.DefaultConfig with v. Keys must
// be known to viper for AutomaticEnv overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)

	v.SetDefault("fetch.rows_per_page", d.Fetch.RowsPerPage)
	v.SetDefault("fetch.page_delay", d.Fetch.PageDelay)
	v.SetDefault("fetch.max_results", d.Fetch.MaxResults)
	v.SetDefault("fetch.base_url", d.Fetch.BaseURL)
	v.SetDefault("fetch.mailto", d.Fetch.Mailto)

	v.SetDefault("dedup.strictness", string(d.Dedup.Strictness))
	v.SetDefault("dedup.threshold", d.Dedup.Threshold)
	v.SetDefault("similarity.denominator", d.Similarity.Denominator)

	v.SetDefault("resolver.order", sources.DefaultOrder)
	v.SetDefault("resolver.match_threshold", d.Resolver.MatchThreshold)
	v.SetDefault("resolver.candidates", d.Resolver.Candidates)
	v.SetDefault("resolver.call_delay", d.Resolver.CallDelay)
	v.SetDefault("resolver.max_attempts", d.Resolver.MaxAttempts)
	v.SetDefault("resolver.retry_base_delay", d.Resolver.RetryBaseDelay)

	for _, name := range sources.DefaultOrder {
		v.SetDefault("sources."+name+".api_key", "")
		v.SetDefault("sources."+name+".base_url", "")
		v.SetDefault("sources."+name+".mailto", "")
	}

	v.SetDefault("pipeline.min_abstract_length", d.Pipeline.MinAbstractLength)
	v.SetDefault("pipeline.run_budget", d.Pipeline.RunBudget)
	v.SetDefault("cache.path", d.Cache.Path)

	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.stream_heartbeat", d.Server.StreamHeartbeat)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// ConfigureEnv enables PAPER_PIPELINE_* overrides with "." mapped to "_".
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals v into a Config and validates it. Callers are expected
// to have called SetDefaults.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}

	if cfg.Resolver.Order != nil {
		cfg.Resolver.Order = splitList(cfg.Resolver.Order)
	}
	if err := Validate(&cfg); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerations, ranges and adapter names, normalizing
// enumerations in place. All problems are reported together.
func Validate(cfg *types.Config) error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, types.NewValidationError(field, fmt.Sprintf(format, args...)))
	}

	if d, err := similarity.ParseDenominator(cfg.Similarity.Denominator); err != nil {
		bad("similarity.denominator", "%v", err)
	} else {
		cfg.Similarity.Denominator = string(d)
	}

	if s, err := dedup.ParseStrictness(string(cfg.Dedup.Strictness)); err != nil {
		bad("dedup.strictness", "%v", err)
	} else {
		cfg.Dedup.Strictness = s
	}

	if t := cfg.Dedup.Threshold; t <= 0 || t > 1 {
		bad("dedup.threshold", "must be in (0, 1], got %v", t)
	}
	if t := cfg.Resolver.MatchThreshold; t <= 0 || t > 1 {
		bad("resolver.match_threshold", "must be in (0, 1], got %v", t)
	}
	if cfg.Resolver.Candidates < 1 {
		bad("resolver.candidates", "must be at least 1")
	}
	if cfg.Resolver.MaxAttempts < 1 {
		bad("resolver.max_attempts", "must be at least 1")
	}
	for _, name := range cfg.Resolver.Order {
		if !sources.Known(name) {
			bad("resolver.order", "unknown source %q", name)
		}
	}
	for name := range cfg.Sources {
		if !sources.Known(name) {
			bad("sources", "unknown source %q", name)
		}
	}

	if cfg.Fetch.RowsPerPage < 1 {
		bad("fetch.rows_per_page", "must be at least 1")
	}
	if cfg.Fetch.MaxResults < 1 {
		bad("fetch.max_results", "must be at least 1")
	}
	if cfg.Pipeline.MinAbstractLength < 0 {
		bad("pipeline.min_abstract_length", "must not be negative")
	}
	if cfg.Pipeline.RunBudget < 0 {
		bad("pipeline.run_budget", "must not be negative")
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "console":
	default:
		bad("logging.format", "want json or console, got %q", cfg.Logging.Format)
	}
	switch strings.ToLower(cfg.Logging.Output) {
	case "", "stdout", "stderr":
	default:
		bad("logging.output", "want stdout or stderr, got %q", cfg.Logging.Output)
	}

	return errors.Join(errs...)
}

// splitList accepts both YAML lists and a single comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
