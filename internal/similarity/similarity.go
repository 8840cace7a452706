// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores title overlap for deduplication and for
// confirming that an abstract provider returned the right paper.
package similarity

import (
	"fmt"
	"regexp"
	"strings"
)

// Denominator selects how the shared-word count is normalized. Thresholds
// elsewhere are tuned against one choice, so a deployment picks one and
// uses it everywhere.
type Denominator string

const (
	// DenominatorMax divides by the larger of the two word sets.
	DenominatorMax Denominator = "max"

	// DenominatorUnion divides by the union of the word sets (Jaccard).
	DenominatorUnion Denominator = "union"
)

// ParseDenominator validates a configured denominator name. The empty
// string selects DenominatorMax.
func ParseDenominator(s string) (Denominator, error) {
	switch Denominator(strings.ToLower(strings.TrimSpace(s))) {
	case "", DenominatorMax:
		return DenominatorMax, nil
	case DenominatorUnion:
		return DenominatorUnion, nil
	default:
		return "", fmt.Errorf("unknown similarity denominator %q (want max or union)", s)
	}
}

// Scorer computes word-set similarity between titles.
type Scorer struct {
	Denominator Denominator
}

// NewScorer returns a Scorer using d.
func NewScorer(d Denominator) Scorer {
	return Scorer{Denominator: d}
}

// Score returns a value in [0,1]. Inputs are case-folded and split on
// whitespace; repeated words count once. Either side being empty yields 0.
func (s Scorer) Score(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}

	var denom int
	switch s.Denominator {
	case DenominatorUnion:
		denom = len(wa) + len(wb) - shared
	default:
		denom = max(len(wa), len(wb))
	}
	return float64(shared) / float64(denom)
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Sanitize replaces punctuation with spaces and trims the result, producing
// a title safe to embed in provider search queries.
func Sanitize(title string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(title, " "))
}

// NormalizeTitle lower-cases and trims a title for exact-match comparison.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
