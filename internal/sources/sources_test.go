// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

const coldStartTitle = "Cold Start Latency in Serverless Platforms"

func testOpts() Options {
	return Options{
		Client:         http.DefaultClient,
		RetryBaseDelay: time.Millisecond,
		Logger:         zerolog.Nop(),
	}
}

func jsonServer(t *testing.T, check func(r *http.Request), payload any) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestSemanticScholar_PicksFirstMatchWithAbstract(t *testing.T) {
	ts, _ := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("x-api-key"))
		assert.Equal(t, coldStartTitle, r.URL.Query().Get("query"))
		assert.Equal(t, "title,abstract", r.URL.Query().Get("fields"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
	}, map[string]any{
		"data": []map[string]any{
			{"title": coldStartTitle, "abstract": nil},
			{"title": "Databases for Everyone", "abstract": "Wrong paper."},
			{"title": "Cold Start Latency in Serverless Platforms.", "abstract": "We measure cold starts."},
			{"title": coldStartTitle, "abstract": "Later duplicate."},
		},
	})

	a := NewSemanticScholar(types.SourceConfig{APIKey: "key-123", BaseURL: ts.URL}, testOpts())
	assert.Equal(t, "semantic_scholar", a.Name())

	got := a.Lookup(context.Background(), "Cold Start Latency in Serverless Platforms?")
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "We measure cold starts.", Source: "Semantic Scholar"}, got)
}

func TestSemanticScholar_RejectsDissimilarTitles(t *testing.T) {
	ts, _ := jsonServer(t, nil, map[string]any{
		"data": []map[string]any{
			{"title": "Serverless Security Survey", "abstract": "Not it."},
		},
	})

	a := NewSemanticScholar(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.NotFound("Semantic Scholar"), got)
}

func TestAdapter_FailuresBecomeNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(`{"data": [`)) }},
		{"not found", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			reg := prometheus.NewRegistry()
			opts := testOpts()
			opts.Metrics = observability.NewMetrics(reg)

			a := NewSemanticScholar(types.SourceConfig{BaseURL: ts.URL}, opts)
			got := a.Lookup(context.Background(), coldStartTitle)

			assert.False(t, got.Found)
			assert.Empty(t, got.Abstract)
			assert.Equal(t, "Semantic Scholar", got.Source)
			assert.Equal(t, 1.0, testutil.ToFloat64(opts.Metrics.AdapterLookups.WithLabelValues("Semantic Scholar", observability.OutcomeError)))
		})
	}
}

func TestAdapter_UnreachableProvider(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	a := NewHAL(types.SourceConfig{BaseURL: url}, testOpts())
	assert.Equal(t, types.NotFound("HAL"), a.Lookup(context.Background(), coldStartTitle))
}

func TestAdapter_PanicIsContained(t *testing.T) {
	s := newSource("boom", "Boom", false, testOpts(), func(context.Context, string) ([]candidate, error) {
		panic("unexpected payload")
	})

	var got types.SourceResult
	assert.NotPanics(t, func() { got = s.Lookup(context.Background(), coldStartTitle) })
	assert.Equal(t, types.NotFound("Boom"), got)
}

func TestAdapter_EmptyQuerySkipsCall(t *testing.T) {
	var called bool
	s := newSource("x", "X", false, testOpts(), func(context.Context, string) ([]candidate, error) {
		called = true
		return nil, nil
	})
	assert.Equal(t, types.NotFound("X"), s.Lookup(context.Background(), "?!"))
	assert.False(t, called)
}

func TestAdapter_PacesCalls(t *testing.T) {
	opts := testOpts()
	opts.CallDelay = 30 * time.Millisecond
	s := newSource("x", "X", false, opts, func(context.Context, string) ([]candidate, error) {
		return nil, nil
	})

	start := time.Now()
	s.Lookup(context.Background(), "first")
	s.Lookup(context.Background(), "second")
	s.Lookup(context.Background(), "third")
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestIEEEXplore_RetriesTransientFailures(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ieee-key", r.URL.Query().Get("apikey"))
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(596)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"articles": []map[string]any{{"title": coldStartTitle, "abstract": "<p>IEEE abstract.</p>"}},
		})
	}))
	defer ts.Close()

	a := NewIEEEXplore(types.SourceConfig{APIKey: "ieee-key", BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)

	assert.Equal(t, types.SourceResult{Found: true, Abstract: "IEEE abstract.", Source: "IEEE Xplore"}, got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIEEEXplore_BoundedAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	a := NewIEEEXplore(types.SourceConfig{APIKey: "k", BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)

	assert.Equal(t, types.NotFound("IEEE Xplore"), got)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFlakySources_TooManyRequestsStaysWithinAttemptBound(t *testing.T) {
	tests := []struct {
		name  string
		build func(types.SourceConfig, Options) Adapter
	}{
		{"ieee_xplore", NewIEEEXplore},
		{"core", NewCORE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer ts.Close()

			a := tt.build(types.SourceConfig{APIKey: "k", BaseURL: ts.URL}, testOpts())
			assert.False(t, a.Lookup(context.Background(), coldStartTitle).Found)
			assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
		})
	}
}

func TestCORE_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	a := NewCORE(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	assert.False(t, a.Lookup(context.Background(), coldStartTitle).Found)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCORE_DescriptionFallback(t *testing.T) {
	ts, _ := jsonServer(t, func(r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/Cold Start Latency in Serverless Platforms"), r.URL.Path)
		assert.Equal(t, "demo", r.URL.Query().Get("apiKey"))
	}, map[string]any{
		"data": []map[string]any{{"title": coldStartTitle, "description": "From description."}},
	})

	a := NewCORE(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "From description.", Source: "CORE"}, got)
}

func TestArxiv_ParsesAtomFeed(t *testing.T) {
	const feed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <updated>2024-01-01T00:00:00Z</updated>
    <title>Cold Start Latency in
      Serverless Platforms</title>
    <summary>  We measure cold start latency
      across providers.  </summary>
  </entry>
</feed>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ti:"+coldStartTitle, r.URL.Query().Get("search_query"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(feed))
	}))
	defer ts.Close()

	a := NewArxiv(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "We measure cold start latency across providers.", Source: "arXiv"}, got)
}

func TestOpenAlex_RebuildsInvertedIndex(t *testing.T) {
	ts, _ := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "title.search:"+coldStartTitle, r.URL.Query().Get("filter"))
		assert.Equal(t, "me@example.org", r.URL.Query().Get("mailto"))
	}, map[string]any{
		"results": []map[string]any{{
			"display_name": coldStartTitle,
			"abstract_inverted_index": map[string][]int{
				"We": {0}, "measure": {1}, "cold": {2}, "starts": {3},
			},
		}},
	})

	a := NewOpenAlex(types.SourceConfig{BaseURL: ts.URL, Mailto: "me@example.org"}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "We measure cold starts", Source: "OpenAlex"}, got)
}

func TestReconstructAbstract(t *testing.T) {
	assert.Empty(t, reconstructAbstract(nil))
	assert.Equal(t, "the cat saw the dog", reconstructAbstract(map[string][]int{
		"the": {0, 3}, "cat": {1}, "saw": {2}, "dog": {4},
	}))
}

func TestCrossref_StripsJATS(t *testing.T) {
	ts, _ := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, coldStartTitle, r.URL.Query().Get("query.title"))
	}, map[string]any{
		"message": map[string]any{
			"items": []map[string]any{{
				"title":    []string{coldStartTitle},
				"abstract": "<jats:p>Crossref\nabstract.</jats:p>",
			}},
		},
	})

	a := NewCrossref(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "Crossref abstract.", Source: "Crossref"}, got)
}

func TestPublishers(t *testing.T) {
	record := []map[string]any{{"title": coldStartTitle, "abstract": "Publisher abstract."}}
	tests := []struct {
		name    string
		build   func(types.SourceConfig, Options) Adapter
		payload map[string]any
		keyArg  string
		source  string
	}{
		{"acm", NewACM, map[string]any{"data": record}, "apiKey", "ACM Digital Library"},
		{"springer", NewSpringer, map[string]any{"records": record}, "api_key", "SpringerLink"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := jsonServer(t, func(r *http.Request) {
				assert.Equal(t, "secret", r.URL.Query().Get(tt.keyArg))
			}, tt.payload)

			a := tt.build(types.SourceConfig{APIKey: "secret", BaseURL: ts.URL}, testOpts())
			assert.Equal(t, tt.name, a.Name())
			got := a.Lookup(context.Background(), coldStartTitle)
			assert.Equal(t, types.SourceResult{Found: true, Abstract: "Publisher abstract.", Source: tt.source}, got)
		})
	}
}

func TestHAL_MultiValuedFields(t *testing.T) {
	ts, _ := jsonServer(t, func(r *http.Request) {
		assert.Equal(t, "title_t:("+coldStartTitle+")", r.URL.Query().Get("q"))
	}, map[string]any{
		"response": map[string]any{
			"docs": []map[string]any{{
				"title_s":    []string{coldStartTitle},
				"abstract_s": []string{"HAL abstract."},
			}},
		},
	})

	a := NewHAL(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "HAL abstract.", Source: "HAL"}, got)
}

func TestOpenAIRE_NestedText(t *testing.T) {
	const payload = `{"response":{"results":{"result":[{"metadata":{"oaf:entity":{"oaf:result":{
		"title":[{"@classid":"main title","$":"Cold Start Latency in Serverless Platforms"}],
		"description":{"$":"OpenAIRE abstract."}
	}}}}]}}}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(payload))
	}))
	defer ts.Close()

	a := NewOpenAIRE(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "OpenAIRE abstract.", Source: "OpenAIRE"}, got)
}

func TestOpenAIRE_NoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"response":{"results":null}}`))
	}))
	defer ts.Close()

	a := NewOpenAIRE(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	assert.Equal(t, types.NotFound("OpenAIRE"), a.Lookup(context.Background(), coldStartTitle))
}

func TestCiteSeerX_ScrapesResults(t *testing.T) {
	const page = `<html><body>
<div class="result"><h3><a href="/a">Relational Databases Revisited</a></h3><div class="abstract">Databases.</div></div>
<div class="result"><h3><a href="/b">Cold Start Latency in Serverless Platforms</a></h3>
  <div class="abstract">
    We study cold starts.
  </div>
</div>
</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rlv", r.URL.Query().Get("sort"))
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	defer ts.Close()

	a := NewCiteSeerX(types.SourceConfig{BaseURL: ts.URL}, testOpts())
	got := a.Lookup(context.Background(), coldStartTitle)
	assert.Equal(t, types.SourceResult{Found: true, Abstract: "We study cold starts.", Source: "CiteSeerX"}, got)
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"plain"`, "plain"},
		{`null`, ""},
		{`["", "second"]`, "second"},
		{`{"$": "text"}`, "text"},
		{`[{"$": "first"}, {"$": "second"}]`, "first"},
		{`42`, ""},
	}
	for _, tt := range tests {
		var f flexString
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.want, string(f), tt.in)
	}
}

func TestBuild_DefaultOrderSkipsKeylessPublishers(t *testing.T) {
	adapters, skipped, err := Build(nil, nil, testOpts())
	require.NoError(t, err)

	var names []string
	for _, a := range adapters {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"semantic_scholar", "arxiv", "openalex", "crossref", "core", "hal", "openaire", "citeseerx"}, names)
	assert.Equal(t, []string{"ieee_xplore", "acm", "springer"}, skipped)
}

func TestBuild_CustomOrder(t *testing.T) {
	cfgs := map[string]types.SourceConfig{"springer": {APIKey: "k"}}
	adapters, skipped, err := Build([]string{"Springer", "arxiv"}, cfgs, testOpts())
	require.NoError(t, err)
	require.Len(t, adapters, 2)
	assert.Equal(t, "springer", adapters[0].Name())
	assert.Equal(t, "arxiv", adapters[1].Name())
	assert.Empty(t, skipped)
}

func TestBuild_Errors(t *testing.T) {
	_, _, err := Build([]string{"google_scholar"}, nil, testOpts())
	assert.ErrorContains(t, err, "unknown abstract source")

	_, _, err = Build([]string{"arxiv", "arxiv"}, nil, testOpts())
	assert.ErrorContains(t, err, "listed twice")
}

func TestKnown(t *testing.T) {
	for _, name := range DefaultOrder {
		assert.True(t, Known(name), name)
	}
	assert.False(t, Known("dblp"))
}
