// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the abstract lookup adapters. Each adapter
// searches one external provider by title and reports a uniform
// types.SourceResult; provider errors never escape an adapter.
package sources

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/internal/similarity"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Adapter looks up a paper's abstract at one provider.
type Adapter interface {
	// Name returns the registry key (e.g. "semantic_scholar").
	Name() string

	// Lookup searches for title and returns the first acceptable
	// candidate's abstract. It never returns an error: failures surface
	// as a not-found result attributed to the provider.
	Lookup(ctx context.Context, title string) types.SourceResult
}

// Options holds settings shared by every adapter.
type Options struct {
	Client *http.Client
	Scorer similarity.Scorer

	// MatchThreshold is the title similarity a candidate must exceed.
	MatchThreshold float64

	// Candidates bounds how many search hits are requested per call.
	Candidates int

	// CallDelay is the minimum spacing between calls to one provider.
	CallDelay time.Duration

	// MaxAttempts and RetryBaseDelay govern retries for flaky providers.
	MaxAttempts    int
	RetryBaseDelay time.Duration

	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// OptionsFromConfig maps resolver configuration onto adapter Options.
func OptionsFromConfig(cfg types.ResolverConfig, scorer similarity.Scorer, client *http.Client, logger zerolog.Logger, metrics *observability.Metrics) Options {
	return Options{
		Client:         client,
		Scorer:         scorer,
		MatchThreshold: cfg.MatchThreshold,
		Candidates:     cfg.Candidates,
		CallDelay:      cfg.CallDelay,
		MaxAttempts:    cfg.MaxAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		Logger:         logger,
		Metrics:        metrics,
	}
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = httputil.NewClient(types.HTTPConfig{})
	}
	if o.Scorer.Denominator == "" {
		o.Scorer = similarity.NewScorer(similarity.DenominatorMax)
	}
	if o.MatchThreshold <= 0 {
		o.MatchThreshold = 0.6
	}
	if o.Candidates <= 0 {
		o.Candidates = 5
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	return o
}

// candidate is one provider search hit.
type candidate struct {
	Title    string
	Abstract string
}

// searchFunc queries a provider for a sanitized title.
type searchFunc func(ctx context.Context, query string) ([]candidate, error)

// source is the Adapter shared by every provider. Providers supply only
// the search call; pacing, retry, matching and failure containment live
// here.
type source struct {
	name    string
	display string
	search  searchFunc
	flaky   bool

	opts  Options
	pacer *httputil.Pacer
	log   zerolog.Logger
}

var _ Adapter = (*source)(nil)

func newSource(name, display string, flaky bool, opts Options, search searchFunc) *source {
	opts = opts.withDefaults()
	return &source{
		name:    name,
		display: display,
		search:  search,
		flaky:   flaky,
		opts:    opts,
		pacer:   httputil.NewPacer(opts.CallDelay),
		log:     observability.WithComponent(opts.Logger, "source").With().Str("source", name).Logger(),
	}
}

// Name returns the registry key.
func (s *source) Name() string { return s.name }

// Display returns the provider name recorded as abstract provenance.
func (s *source) Display() string { return s.display }

// Lookup implements Adapter.
func (s *source) Lookup(ctx context.Context, title string) (result types.SourceResult) {
	result = types.NotFound(s.display)
	start := time.Now()
	outcome := observability.OutcomeMiss

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("adapter panicked")
			result = types.NotFound(s.display)
			outcome = observability.OutcomeError
		}
		s.opts.Metrics.RecordLookup(s.display, outcome, time.Since(start))
	}()

	query := similarity.Sanitize(title)
	if query == "" {
		return result
	}

	var hits []candidate
	call := func() error {
		var (
			got []candidate
			err error
		)
		if waitErr := s.pacer.Do(ctx, func() error {
			got, err = s.search(ctx, query)
			return nil
		}); waitErr != nil {
			return backoff.Permanent(waitErr)
		}
		if err != nil {
			if !s.flaky || !retryable(err) {
				return backoff.Permanent(err)
			}
			s.log.Debug().Err(err).Msg("retrying flaky provider")
			return err
		}
		hits = got
		return nil
	}

	var err error
	if s.flaky {
		err = httputil.RetryFlaky(ctx, s.opts.MaxAttempts, s.opts.RetryBaseDelay, call)
	} else {
		err = call()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
	}
	if err != nil {
		outcome = observability.OutcomeError
		s.log.Warn().Err(err).Str("query", query).Msg("lookup failed")
		return result
	}

	if c, ok := s.match(query, hits); ok {
		outcome = observability.OutcomeFound
		return types.SourceResult{Found: true, Abstract: c.Abstract, Source: s.display}
	}
	s.log.Debug().Int("candidates", len(hits)).Str("query", query).Msg("no matching candidate")
	return result
}

// match returns the first candidate that carries an abstract and whose
// title similarity to query exceeds the threshold.
func (s *source) match(query string, hits []candidate) (candidate, bool) {
	for _, c := range hits {
		if c.Abstract == "" {
			continue
		}
		if s.opts.Scorer.Score(query, similarity.Sanitize(c.Title)) > s.opts.MatchThreshold {
			return c, true
		}
	}
	return candidate{}, false
}

// retryable reports whether err is worth another attempt: transient HTTP
// statuses and transport failures, but not cancellation or malformed data.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ue *types.UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
