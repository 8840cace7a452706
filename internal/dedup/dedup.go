// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup collapses duplicate papers. First-seen wins; duplicates
// are dropped, never merged.
package dedup

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-pipeline/internal/similarity"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Options configures a Deduplicator.
type Options struct {
	// Strictness selects exact-only or exact-plus-fuzzy matching.
	Strictness types.DedupStrictness

	// Threshold is the similarity a title must exceed against a kept
	// title to be dropped in fuzzy mode.
	Threshold float64

	Scorer similarity.Scorer
}

// Deduplicator removes duplicate papers.
type Deduplicator struct {
	opts Options
}

// ParseStrictness validates a configured strictness. The empty string
// selects fuzzy.
func ParseStrictness(s string) (types.DedupStrictness, error) {
	switch types.DedupStrictness(strings.ToLower(strings.TrimSpace(s))) {
	case "", types.DedupFuzzy:
		return types.DedupFuzzy, nil
	case types.DedupExact:
		return types.DedupExact, nil
	default:
		return "", fmt.Errorf("unknown dedup strictness %q (want exact or fuzzy)", s)
	}
}

// New returns a Deduplicator. Zero options select fuzzy matching at 0.8
// with the max-denominator scorer.
func New(opts Options) *Deduplicator {
	if opts.Strictness == "" {
		opts.Strictness = types.DedupFuzzy
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 0.8
	}
	if opts.Scorer.Denominator == "" {
		opts.Scorer = similarity.NewScorer(similarity.DenominatorMax)
	}
	return &Deduplicator{opts: opts}
}

// Dedupe returns the unique papers in input order with paper_id reassigned
// 1..N, and the number removed. len(unique)+removed == len(papers) always
// holds. The input slice is not modified.
//
// A paper is a duplicate when its non-empty DOI matches an earlier DOI,
// its normalized title matches an earlier title, or, in fuzzy mode, its
// title similarity to any kept title exceeds the threshold. Fuzzy mode
// compares against every kept title and is O(n²).
func (d *Deduplicator) Dedupe(papers []types.Paper) (unique []types.Paper, removed int) {
	seenDOIs := make(map[string]struct{}, len(papers))
	seenTitles := make(map[string]struct{}, len(papers))
	var keptTitles []string

	unique = make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		doi := NormalizeDOI(p.DOI)
		title := similarity.NormalizeTitle(p.Title)

		if d.isDuplicate(doi, title, seenDOIs, seenTitles, keptTitles) {
			removed++
			continue
		}

		if doi != "" {
			seenDOIs[doi] = struct{}{}
		}
		if title != "" {
			seenTitles[title] = struct{}{}
			keptTitles = append(keptTitles, title)
		}
		unique = append(unique, p)
	}

	types.RenumberPapers(unique)
	return unique, removed
}

func (d *Deduplicator) isDuplicate(doi, title string, seenDOIs, seenTitles map[string]struct{}, kept []string) bool {
	if doi != "" {
		if _, ok := seenDOIs[doi]; ok {
			return true
		}
	}
	if title == "" {
		return false
	}
	if _, ok := seenTitles[title]; ok {
		return true
	}
	if d.opts.Strictness != types.DedupFuzzy {
		return false
	}
	for _, k := range kept {
		if d.opts.Scorer.Score(title, k) > d.opts.Threshold {
			return true
		}
	}
	return false
}

// NormalizeDOI lower-cases a DOI and strips resolver prefixes so that
// "https://doi.org/10.1/ABC" and "10.1/abc" compare equal.
func NormalizeDOI(doi string) string {
	d := strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if strings.HasPrefix(d, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(d, prefix))
		}
	}
	return d
}
