// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package categorize tags papers with topic categories by keyword and
// writes templated contribution and limitation notes.
package categorize

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Category is one row of the keyword table.
type Category struct {
	Name     string
	Keywords []string
}

// DefaultTable is scanned in order; output order follows it.
var DefaultTable = []Category{
	{Name: "survey", Keywords: []string{"survey", "review", "taxonomy"}},
	{Name: "latency", Keywords: []string{"latency", "response time", "cold start"}},
	{Name: "security", Keywords: []string{"security", "privacy", "authentication"}},
	{Name: "cost", Keywords: []string{"cost", "pricing", "billing"}},
	{Name: "performance", Keywords: []string{"performance", "optimization", "efficiency"}},
	{Name: "serverless", Keywords: []string{"serverless", "lambda", "function"}},
}

// Fallback is the category assigned when nothing matches.
const Fallback = "others"

// MaxKeywords bounds the matched keywords reported per paper.
const MaxKeywords = 5

// Annotation texts.
const (
	ContributionNovel   = "Novel approach and methodology presented"
	ContributionGeneric = "Various contributions mentioned in the paper"
	LimitationFound     = "Limitations and future work discussed"
	LimitationMissing   = "Not explicitly mentioned"
	NotAvailable        = "Not available"
)

var (
	contributionWords = []string{"propose", "present", "introduce", "develop", "design"}
	limitationWords   = []string{"limitation", "challenge", "future work", "improve"}
)

// Categorizer annotates papers.
type Categorizer struct {
	table []Category

	// minAbstract is the length an abstract must exceed before
	// contribution and limitation heuristics apply.
	minAbstract int
}

// New returns a Categorizer over DefaultTable. minAbstract <= 0 selects 50.
func New(minAbstract int) *Categorizer {
	if minAbstract <= 0 {
		minAbstract = 50
	}
	return &Categorizer{table: DefaultTable, minAbstract: minAbstract}
}

// Categorize scans title and abstract, case-folded, against the table. A
// paper may match several categories. It returns the matched categories
// (or Fallback) and up to MaxKeywords distinct matched keywords, each
// comma-joined.
func (c *Categorizer) Categorize(title, abstract string) (categories, keywords string) {
	text := strings.ToLower(title + " " + abstract)

	var cats, kws []string
	for _, row := range c.table {
		matched := false
		for _, kw := range row.Keywords {
			if !strings.Contains(text, kw) {
				continue
			}
			matched = true
			if !contains(kws, kw) {
				kws = append(kws, kw)
			}
		}
		if matched {
			cats = append(cats, row.Name)
		}
	}

	if len(cats) == 0 {
		cats = []string{Fallback}
	}
	if len(kws) > MaxKeywords {
		kws = kws[:MaxKeywords]
	}
	return strings.Join(cats, ", "), strings.Join(kws, ", ")
}

// Insights returns the contribution and limitation notes for an abstract.
// Abstracts at or under the minimum length get NotAvailable for both.
func (c *Categorizer) Insights(abstract string) (contributions, limitations string) {
	if utf8.RuneCountInString(abstract) <= c.minAbstract {
		return NotAvailable, NotAvailable
	}

	lower := strings.ToLower(abstract)
	contributions = ContributionGeneric
	if containsAny(lower, contributionWords) {
		contributions = ContributionNovel
	}
	limitations = LimitationMissing
	if containsAny(lower, limitationWords) {
		limitations = LimitationFound
	}
	return contributions, limitations
}

// Annotate sets the category, keyword, contribution and limitation fields.
func (c *Categorizer) Annotate(p *types.Paper) {
	p.OriginalCategory, p.OriginalKeywords = c.Categorize(p.Title, p.Abstract)
	p.Contributions, p.Limitations = c.Insights(p.Abstract)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
