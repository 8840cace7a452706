package categorize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

func TestCategorize(t *testing.T) {
	c := New(0)
	tests := []struct {
		name     string
		title    string
		abstract string
		wantCats string
		wantKws  string
	}{
		{
			name:     "no match falls back",
			title:    "Quantum Chemistry Methods",
			wantCats: "others",
			wantKws:  "",
		},
		{
			name:     "multiple categories in table order",
			title:    "A Survey of Serverless Cold Start Latency",
			wantCats: "survey, latency, serverless",
			wantKws:  "survey, latency, cold start, serverless",
		},
		{
			name:     "abstract contributes",
			title:    "FaaS Economics",
			abstract: "We analyse BILLING and pricing of Lambda.",
			wantCats: "cost, serverless",
			wantKws:  "pricing, billing, lambda",
		},
		{
			name:     "keywords capped at five",
			title:    "Survey review taxonomy latency response time security",
			wantCats: "survey, latency, security",
			wantKws:  "survey, review, taxonomy, latency, response time",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cats, kws := c.Categorize(tt.title, tt.abstract)
			assert.Equal(t, tt.wantCats, cats)
			assert.Equal(t, tt.wantKws, kws)
		})
	}
}

func TestInsights(t *testing.T) {
	c := New(50)
	long := func(s string) string { return s + strings.Repeat(" filler", 10) }

	tests := []struct {
		name     string
		abstract string
		contrib  string
		limit    string
	}{
		{"short abstract", "We propose X.", NotAvailable, NotAvailable},
		{"exactly fifty", strings.Repeat("a", 50), NotAvailable, NotAvailable},
		{"novel approach", long("We Propose a scheduler."), ContributionNovel, LimitationMissing},
		{"limitations", long("Results are mixed; future work will address this."), ContributionGeneric, LimitationFound},
		{"both", long("We design a system and discuss its limitations."), ContributionNovel, LimitationFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contrib, limit := c.Insights(tt.abstract)
			assert.Equal(t, tt.contrib, contrib)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

func TestAnnotate(t *testing.T) {
	p := types.Paper{
		Title:    "Reducing Cold Start Latency",
		Abstract: "We introduce a snapshotting technique that reduces cold start latency by half.",
	}
	New(50).Annotate(&p)

	assert.Equal(t, "latency", p.OriginalCategory)
	assert.Equal(t, "latency, cold start", p.OriginalKeywords)
	assert.Equal(t, ContributionNovel, p.Contributions)
	assert.Equal(t, LimitationMissing, p.Limitations)
}
