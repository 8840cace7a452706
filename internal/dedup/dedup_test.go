// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-pipeline/internal/similarity"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

func paper(id, title, doi string) types.Paper {
	return types.Paper{PaperID: id, Title: title, DOI: doi}
}

func corpus() []types.Paper {
	return []types.Paper{
		paper("x1", "A Serverless Framework", "10.1/abc"),
		paper("x2", "a serverless framework", ""),
		paper("x3", "Cold Start Latency in Serverless Platforms", "10.1/def"),
		paper("x4", "Cold Start Latency in Serverless Platforms Revisited", ""),
		paper("x5", "Totally Different Work", "https://doi.org/10.1/DEF"),
		paper("x6", "", ""),
		paper("x7", "", ""),
		paper("x8", "Security of Function-as-a-Service", ""),
		paper("x9", "Cost Models for Cloud Functions", "10.1/ghi"),
	}
}

func TestDedupe_SameDOIDifferentCase(t *testing.T) {
	d := New(Options{Strictness: types.DedupExact})
	unique, removed := d.Dedupe([]types.Paper{
		paper("a", "Serverless Computing", "10.1/abc"),
		paper("b", "SERVERLESS computing: extended version", "10.1/abc"),
	})
	require.Len(t, unique, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "Serverless Computing", unique[0].Title)
}

func TestDedupe_SizeInvariant(t *testing.T) {
	for _, s := range []types.DedupStrictness{types.DedupExact, types.DedupFuzzy} {
		for _, den := range []similarity.Denominator{similarity.DenominatorMax, similarity.DenominatorUnion} {
			d := New(Options{Strictness: s, Scorer: similarity.NewScorer(den)})
			in := corpus()
			unique, removed := d.Dedupe(in)
			assert.Equal(t, len(in), len(unique)+removed, "%s/%s", s, den)
		}
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	for _, s := range []types.DedupStrictness{types.DedupExact, types.DedupFuzzy} {
		d := New(Options{Strictness: s})
		once, _ := d.Dedupe(corpus())
		twice, removed := d.Dedupe(once)
		assert.Zero(t, removed, s)
		assert.Equal(t, once, twice, s)
	}
}

func TestDedupe_ContiguousIDs(t *testing.T) {
	unique, _ := New(Options{}).Dedupe(corpus())
	require.NotEmpty(t, unique)
	for i, p := range unique {
		assert.Equal(t, fmt.Sprintf("paper_%03d", i+1), p.PaperID)
	}
}

func TestDedupe_ExactVersusFuzzy(t *testing.T) {
	exact, exactRemoved := New(Options{Strictness: types.DedupExact}).Dedupe(corpus())
	fuzzy, fuzzyRemoved := New(Options{Strictness: types.DedupFuzzy}).Dedupe(corpus())

	titles := func(ps []types.Paper) []string {
		var out []string
		for _, p := range ps {
			out = append(out, p.Title)
		}
		return out
	}

	// Exact: x2 (same title) and x5 (same DOI after normalization) go.
	assert.Equal(t, 2, exactRemoved)
	assert.Contains(t, titles(exact), "Cold Start Latency in Serverless Platforms Revisited")

	// Fuzzy also drops x4: 6 of 7 words shared, 6/7 > 0.8.
	assert.Equal(t, 3, fuzzyRemoved)
	assert.NotContains(t, titles(fuzzy), "Cold Start Latency in Serverless Platforms Revisited")
}

func TestDedupe_EmptyTitlesAreKept(t *testing.T) {
	unique, removed := New(Options{}).Dedupe([]types.Paper{paper("", "", ""), paper("", "  ", "")})
	assert.Len(t, unique, 2)
	assert.Zero(t, removed)
}

func TestDedupe_DoesNotMutateInput(t *testing.T) {
	in := corpus()
	New(Options{}).Dedupe(in)
	assert.Equal(t, "x1", in[0].PaperID)
}

func TestDedupe_Empty(t *testing.T) {
	unique, removed := New(Options{}).Dedupe(nil)
	assert.Empty(t, unique)
	assert.Zero(t, removed)
}

func TestDedupe_ThresholdIsStrict(t *testing.T) {
	// 4 of 5 words shared under max: exactly 0.8, which is not > 0.8.
	d := New(Options{Strictness: types.DedupFuzzy, Threshold: 0.8})
	_, removed := d.Dedupe([]types.Paper{
		paper("", "one two three four five", ""),
		paper("", "one two three four six", ""),
	})
	assert.Zero(t, removed)
}

func TestNormalizeDOI(t *testing.T) {
	tests := map[string]string{
		"10.1/ABC":                 "10.1/abc",
		" https://doi.org/10.1/x ": "10.1/x",
		"http://dx.doi.org/10.1/Y": "10.1/y",
		"doi:10.1/z":               "10.1/z",
		"":                         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDOI(in), in)
	}
}

func TestParseStrictness(t *testing.T) {
	s, err := ParseStrictness("")
	require.NoError(t, err)
	assert.Equal(t, types.DedupFuzzy, s)

	s, err = ParseStrictness("EXACT")
	require.NoError(t, err)
	assert.Equal(t, types.DedupExact, s)

	_, err = ParseStrictness("loose")
	assert.Error(t, err)
}
