// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// NewOpenAlex returns the OpenAlex adapter. Mailto, when set, places calls
// in the provider's polite pool.
func NewOpenAlex(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, openAlexSearchBase)

	opts = opts.withDefaults()
	return newSource("openalex", "OpenAlex", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"filter":   {"title.search:" + query},
			"per_page": {strconv.Itoa(opts.Candidates)},
			"select":   {"id,display_name,abstract_inverted_index"},
		}
		if cfg.Mailto != "" {
			params.Set("mailto", cfg.Mailto)
		}

		var resp openAlexResponse
		if err := httputil.GetJSON(ctx, opts.Client, "OpenAlex", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}

		hits := make([]candidate, 0, len(resp.Results))
		for _, w := range resp.Results {
			hits = append(hits, candidate{
				Title:    w.DisplayName,
				Abstract: reconstructAbstract(w.AbstractInvertedIndex),
			})
		}
		return hits, nil
	})
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The index maps each word to the positions it occupies.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range index {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.word)
	}
	return b.String()
}

type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	DisplayName           string           `json:"display_name"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}
