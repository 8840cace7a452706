// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes deduplication, abstract resolution and
// categorization into one run, in batch or streaming form.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-pipeline/internal/categorize"
	"github.com/pdiddy/paper-pipeline/internal/dedup"
	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/internal/textutil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Run modes, used as metric and log labels.
const (
	ModeBatch   = "batch"
	ModeStream  = "stream"
	ModeExtract = "extract"
)

// shortTitleLen is the title length shown in progress messages.
const shortTitleLen = 70

// streamBuffer lets the producer run slightly ahead of a slow consumer.
const streamBuffer = 16

// Resolver finds an abstract for a title.
type Resolver interface {
	Resolve(ctx context.Context, title string) types.SourceResult
}

// Config holds orchestrator settings.
type Config struct {
	// MinAbstractLength is the trimmed length below which an abstract is
	// treated as missing.
	MinAbstractLength int

	// RunBudget bounds abstract resolution for a whole run. Zero means
	// unbounded.
	RunBudget time.Duration
}

// Pipeline runs papers through dedup, resolution and categorization.
type Pipeline struct {
	dedup       *dedup.Deduplicator
	resolver    Resolver
	categorizer *categorize.Categorizer
	cfg         Config
	metrics     *observability.Metrics
	log         zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records runs and duplicates.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the pipeline's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = observability.WithComponent(l, "pipeline") }
}

// New returns a Pipeline.
func New(d *dedup.Deduplicator, r Resolver, c *categorize.Categorizer, cfg Config, opts ...Option) *Pipeline {
	if cfg.MinAbstractLength <= 0 {
		cfg.MinAbstractLength = 50
	}
	p := &Pipeline{
		dedup:       d,
		resolver:    r,
		categorizer: c,
		cfg:         cfg,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// BatchResult is the outcome of a batch run.
type BatchResult struct {
	Papers            []types.Paper `json:"papers"`
	OriginalCount     int           `json:"original_count"`
	DeduplicatedCount int           `json:"deduplicated_count"`
	ProcessedCount    int           `json:"processed_count"`
}

// Process runs the full pipeline and returns the annotated papers with
// counts. It fails only on empty input.
func (p *Pipeline) Process(ctx context.Context, papers []types.Paper) (BatchResult, error) {
	if len(papers) == 0 {
		return BatchResult{}, types.ErrNoPapers
	}

	var res BatchResult
	p.run(ctx, ModeBatch, papers, func(ev types.ProgressEvent) bool {
		if ev.Type == types.EventFinished {
			res.Papers = ev.Papers
		}
		return true
	}, func(unique int) { res.DeduplicatedCount = unique })

	res.OriginalCount = len(papers)
	res.ProcessedCount = len(res.Papers)
	return res, nil
}

// Stream starts a run and returns its ordered progress events. A single
// goroutine produces every event, so the channel order is program order:
// start, dedup, then per paper processing, zero or more abstract events and
// complete, then finished with the full result. The channel is closed after
// finished, or early when ctx is cancelled.
func (p *Pipeline) Stream(ctx context.Context, papers []types.Paper) (<-chan types.ProgressEvent, error) {
	if len(papers) == 0 {
		return nil, types.ErrNoPapers
	}

	events := make(chan types.ProgressEvent, streamBuffer)
	go func() {
		defer close(events)
		p.run(ctx, ModeStream, papers, func(ev types.ProgressEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}, nil)
	}()
	return events, nil
}

// emitFunc delivers one event. It returns false when the consumer is gone.
type emitFunc func(types.ProgressEvent) bool

// run is the single code path behind Process and Stream.
func (p *Pipeline) run(ctx context.Context, mode string, papers []types.Paper, emit emitFunc, onDedup func(int)) {
	start := time.Now()
	runID := uuid.NewString()
	log := observability.WithRunContext(p.log, runID, mode)

	send := func(ev types.ProgressEvent) bool {
		ev.RunID = runID
		return emit(ev)
	}

	// The budget bounds resolution only; the run still annotates and
	// finishes every paper after it expires.
	resolveCtx, cancel := p.budget(ctx)
	defer cancel()

	total := len(papers)
	log.Info().Int("papers", total).Msg("run started")
	if !send(types.ProgressEvent{Type: types.EventStart, Message: fmt.Sprintf("Processing %d papers...", total)}) {
		return
	}

	unique, removed := p.dedup.Dedupe(papers)
	p.metrics.RecordDuplicatesRemoved(removed)
	if onDedup != nil {
		onDedup(len(unique))
	}
	n := len(unique)
	if !send(types.ProgressEvent{Type: types.EventDedup, Message: fmt.Sprintf("Deduplicated: %d unique papers from %d total", n, total)}) {
		return
	}

	for i := range unique {
		idx := i + 1
		paper := &unique[i]
		plog := observability.WithPaperContext(log, paper.PaperID, paper.Title)

		if !send(types.ProgressEvent{
			Type:    types.EventProcessing,
			Index:   idx,
			Message: fmt.Sprintf("Processing paper %d/%d: %s", idx, n, textutil.Truncate(paper.Title, shortTitleLen)),
		}) {
			return
		}

		if p.needsAbstract(*paper) {
			if !p.backfill(resolveCtx, paper, idx, send, plog) {
				return
			}
		} else {
			paper.AbstractSource = types.SourceOriginal
			paper.AbstractConfidence = types.ConfidenceHigh
		}

		p.categorizer.Annotate(paper)

		if !send(types.ProgressEvent{Type: types.EventComplete, Index: idx, Message: fmt.Sprintf("Completed paper %d/%d", idx, n)}) {
			return
		}
	}

	elapsed := time.Since(start)
	p.metrics.RecordRun(mode, elapsed)
	log.Info().Int("processed", n).Int("removed", removed).Dur("elapsed", elapsed).Msg("run finished")
	send(types.ProgressEvent{Type: types.EventFinished, Papers: unique, Total: n})
}

// backfill resolves a missing abstract and records provenance. It returns
// false when the consumer is gone.
func (p *Pipeline) backfill(ctx context.Context, paper *types.Paper, idx int, send emitFunc, log zerolog.Logger) bool {
	if ctx.Err() != nil {
		paper.AbstractSource = types.SourceNotFound
		paper.AbstractConfidence = types.ConfidenceLow
		log.Debug().Msg("run budget spent, skipping resolution")
		return send(types.ProgressEvent{Type: types.EventAbstract, Index: idx, Message: fmt.Sprintf("Skipped abstract search for paper %d: run budget exhausted", idx)})
	}

	if !send(types.ProgressEvent{Type: types.EventAbstract, Index: idx, Message: fmt.Sprintf("Searching for abstract for paper %d...", idx)}) {
		return false
	}

	res := p.resolver.Resolve(ctx, paper.Title)
	if res.Found {
		paper.Abstract = res.Abstract
		paper.AbstractSource = res.Source
		paper.AbstractConfidence = types.ConfidenceHigh
		log.Debug().Str("source", res.Source).Msg("abstract found")
		return send(types.ProgressEvent{Type: types.EventAbstract, Index: idx, Message: fmt.Sprintf("Abstract found via %s for paper %d", res.Source, idx)})
	}

	paper.AbstractSource = types.SourceNotFound
	paper.AbstractConfidence = types.ConfidenceLow
	log.Debug().Msg("no abstract found")
	return send(types.ProgressEvent{Type: types.EventAbstract, Index: idx, Message: fmt.Sprintf("No abstract found for paper %d", idx)})
}

func (p *Pipeline) needsAbstract(paper types.Paper) bool {
	return len([]rune(strings.TrimSpace(paper.Abstract))) < p.cfg.MinAbstractLength
}

func (p *Pipeline) budget(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.RunBudget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.RunBudget)
}

// ExtractResult is the outcome of ExtractAbstracts.
type ExtractResult struct {
	Papers []types.Paper `json:"papers"`
	Found  int           `json:"found"`
	Total  int           `json:"total"`
}

// ExtractAbstracts runs the resolver for every titled paper, without
// deduplication or categorization. A hit overwrites the abstract; papers
// left without any abstract are marked with source and confidence "none".
func (p *Pipeline) ExtractAbstracts(ctx context.Context, papers []types.Paper) (ExtractResult, error) {
	if len(papers) == 0 {
		return ExtractResult{}, types.ErrNoPapers
	}

	start := time.Now()
	log := observability.WithRunContext(p.log, uuid.NewString(), ModeExtract)
	resolveCtx, cancel := p.budget(ctx)
	defer cancel()

	out := make([]types.Paper, len(papers))
	copy(out, papers)

	found := 0
	for i := range out {
		paper := &out[i]
		if title := strings.TrimSpace(paper.Title); title != "" && resolveCtx.Err() == nil {
			if res := p.resolver.Resolve(resolveCtx, title); res.Found {
				paper.Abstract = res.Abstract
				paper.AbstractSource = res.Source
				paper.AbstractConfidence = types.ConfidenceHigh
				found++
			}
		}
		if paper.Abstract == "" {
			paper.AbstractSource = types.SourceNone
			paper.AbstractConfidence = types.ConfidenceNone
		}
	}

	p.metrics.RecordRun(ModeExtract, time.Since(start))
	log.Info().Int("found", found).Int("total", len(out)).Msg("abstract extraction complete")
	return ExtractResult{Papers: out, Found: found, Total: len(out)}, nil
}
