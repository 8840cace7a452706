// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-pipeline/internal/categorize"
	"github.com/pdiddy/paper-pipeline/internal/dedup"
	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

var longAbstract = "We propose a new scheduler for serverless platforms that cuts cold start latency in half."

type fakeResolver struct {
	mu    sync.Mutex
	hits  map[string]types.SourceResult
	calls []string
	block bool
}

func (f *fakeResolver) Resolve(ctx context.Context, title string) types.SourceResult {
	f.mu.Lock()
	f.calls = append(f.calls, title)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return types.NotFound("none")
	}
	if r, ok := f.hits[title]; ok {
		return r
	}
	return types.NotFound("none")
}

func (f *fakeResolver) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newPipeline(r Resolver, cfg Config, opts ...Option) *Pipeline {
	return New(dedup.New(dedup.Options{}), r, categorize.New(cfg.MinAbstractLength), cfg, opts...)
}

func drain(t *testing.T, ch <-chan types.ProgressEvent) []types.ProgressEvent {
	t.Helper()
	var out []types.ProgressEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not close")
			return out
		}
	}
}

func TestStream_EventOrder(t *testing.T) {
	r := &fakeResolver{hits: map[string]types.SourceResult{
		"Edge Function Placement": {Found: true, Abstract: "Placement of functions at the edge reduces latency for IoT.", Source: "arXiv"},
	}}
	p := newPipeline(r, Config{})

	ch, err := p.Stream(context.Background(), []types.Paper{
		{Title: "Serverless Schedulers", Abstract: longAbstract},
		{Title: "Edge Function Placement", Abstract: "short"},
	})
	require.NoError(t, err)
	events := drain(t, ch)

	var got []string
	for _, ev := range events {
		got = append(got, string(ev.Type)+"|"+ev.Message)
	}
	assert.Equal(t, []string{
		"start|Processing 2 papers...",
		"dedup|Deduplicated: 2 unique papers from 2 total",
		"processing|Processing paper 1/2: Serverless Schedulers",
		"complete|Completed paper 1/2",
		"processing|Processing paper 2/2: Edge Function Placement",
		"abstract|Searching for abstract for paper 2...",
		"abstract|Abstract found via arXiv for paper 2",
		"complete|Completed paper 2/2",
		"finished|",
	}, got)

	runID := events[0].RunID
	require.NotEmpty(t, runID)
	for _, ev := range events {
		assert.Equal(t, runID, ev.RunID)
	}

	fin := events[len(events)-1]
	assert.Equal(t, 2, fin.Total)
	require.Len(t, fin.Papers, 2)
	assert.Equal(t, types.SourceOriginal, fin.Papers[0].AbstractSource)
	assert.Equal(t, "arXiv", fin.Papers[1].AbstractSource)
	assert.Equal(t, types.ConfidenceHigh, fin.Papers[1].AbstractConfidence)
	assert.Equal(t, []string{"Edge Function Placement"}, r.called())
}

func TestStream_LongTitleIsTruncated(t *testing.T) {
	title := strings.Repeat("x", 80)
	ch, err := newPipeline(&fakeResolver{}, Config{}).Stream(context.Background(), []types.Paper{{Title: title, Abstract: longAbstract}})
	require.NoError(t, err)

	for _, ev := range drain(t, ch) {
		if ev.Type == types.EventProcessing {
			assert.Equal(t, "Processing paper 1/1: "+strings.Repeat("x", 70)+"...", ev.Message)
		}
	}
}

func TestProcess_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	r := &fakeResolver{}
	p := newPipeline(r, Config{}, WithMetrics(m))

	res, err := p.Process(context.Background(), []types.Paper{
		{Title: "Serverless Security", Abstract: longAbstract, DOI: "10.1/a"},
		{Title: "serverless security", Abstract: longAbstract},
		{Title: "Billing Models", Abstract: ""},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.OriginalCount)
	assert.Equal(t, 2, res.DeduplicatedCount)
	assert.Equal(t, 2, res.ProcessedCount)
	require.Len(t, res.Papers, 2)

	assert.Equal(t, "paper_001", res.Papers[0].PaperID)
	assert.Equal(t, "latency, security, serverless", res.Papers[0].OriginalCategory)
	assert.Equal(t, categorize.ContributionNovel, res.Papers[0].Contributions)

	missing := res.Papers[1]
	assert.Equal(t, types.SourceNotFound, missing.AbstractSource)
	assert.Equal(t, types.ConfidenceLow, missing.AbstractConfidence)
	assert.Equal(t, categorize.NotAvailable, missing.Contributions)
	assert.Equal(t, "cost", missing.OriginalCategory)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PipelineRuns.WithLabelValues(ModeBatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRemoved))
}

func TestProcess_ThresholdUsesTrimmedLength(t *testing.T) {
	r := &fakeResolver{}
	padded := "   " + strings.Repeat("a", 49) + "   "
	_, err := newPipeline(r, Config{}).Process(context.Background(), []types.Paper{{Title: "T", Abstract: padded}})
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, r.called())

	r = &fakeResolver{}
	_, err = newPipeline(r, Config{}).Process(context.Background(), []types.Paper{{Title: "T", Abstract: strings.Repeat("a", 50)}})
	require.NoError(t, err)
	assert.Empty(t, r.called())
}

func TestProcess_EmptyInput(t *testing.T) {
	p := newPipeline(&fakeResolver{}, Config{})

	_, err := p.Process(context.Background(), nil)
	assert.True(t, errors.Is(err, types.ErrNoPapers))

	_, err = p.Stream(context.Background(), []types.Paper{})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))

	_, err = p.ExtractAbstracts(context.Background(), nil)
	assert.True(t, errors.Is(err, types.ErrNoPapers))
}

func TestProcess_RunBudget(t *testing.T) {
	r := &fakeResolver{block: true}
	p := newPipeline(r, Config{RunBudget: 20 * time.Millisecond})

	ch, err := p.Stream(context.Background(), []types.Paper{
		{Title: "First Paper"},
		{Title: "Second Paper"},
	})
	require.NoError(t, err)
	events := drain(t, ch)

	var abstracts []string
	for _, ev := range events {
		if ev.Type == types.EventAbstract {
			abstracts = append(abstracts, ev.Message)
		}
	}
	assert.Equal(t, []string{
		"Searching for abstract for paper 1...",
		"No abstract found for paper 1",
		"Skipped abstract search for paper 2: run budget exhausted",
	}, abstracts)
	assert.Equal(t, []string{"First Paper"}, r.called())

	fin := events[len(events)-1]
	require.Equal(t, types.EventFinished, fin.Type)
	for _, paper := range fin.Papers {
		assert.Equal(t, types.SourceNotFound, paper.AbstractSource)
		assert.Equal(t, types.ConfidenceLow, paper.AbstractConfidence)
		assert.Equal(t, "others", paper.OriginalCategory)
	}
}

func TestStream_CancelStopsRun(t *testing.T) {
	r := &fakeResolver{block: true}
	p := newPipeline(r, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := p.Stream(ctx, []types.Paper{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	require.NoError(t, err)

	for ev := range ch {
		if ev.Type == types.EventAbstract {
			cancel()
			break
		}
	}
	drain(t, ch)
	assert.LessOrEqual(t, len(r.called()), 1)
}

func TestExtractAbstracts(t *testing.T) {
	r := &fakeResolver{hits: map[string]types.SourceResult{
		"Found Paper": {Found: true, Abstract: "A resolved abstract.", Source: "OpenAlex"},
	}}
	p := newPipeline(r, Config{})

	in := []types.Paper{
		{PaperID: "x1", Title: "Found Paper", Abstract: "stale"},
		{PaperID: "x2", Title: "Missing Paper", Abstract: "kept as is"},
		{PaperID: "x3", Title: "Missing Paper Too"},
		{PaperID: "x4", Title: "   "},
	}
	res, err := p.ExtractAbstracts(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Found)
	assert.Equal(t, 4, res.Total)
	require.Len(t, res.Papers, 4)

	assert.Equal(t, "A resolved abstract.", res.Papers[0].Abstract)
	assert.Equal(t, "OpenAlex", res.Papers[0].AbstractSource)
	assert.Equal(t, types.ConfidenceHigh, res.Papers[0].AbstractConfidence)

	assert.Equal(t, "kept as is", res.Papers[1].Abstract)
	assert.Empty(t, res.Papers[1].AbstractSource)

	for _, i := range []int{2, 3} {
		assert.Equal(t, types.SourceNone, res.Papers[i].AbstractSource)
		assert.Equal(t, types.ConfidenceNone, res.Papers[i].AbstractConfidence)
	}

	assert.Equal(t, []string{"Found Paper", "Missing Paper", "Missing Paper Too"}, r.called())
	assert.Equal(t, "stale", in[0].Abstract, "input is not modified")
	assert.Equal(t, "x1", res.Papers[0].PaperID, "ids are kept")
}
