// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// NewSemanticScholar returns the Semantic Scholar Graph API adapter. The
// API key is optional and raises the provider's rate limit.
func NewSemanticScholar(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, semanticAPIBase)
	var header http.Header
	if cfg.APIKey != "" {
		header = http.Header{"x-api-key": {cfg.APIKey}}
	}

	opts = opts.withDefaults()
	return newSource("semantic_scholar", "Semantic Scholar", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"query":  {query},
			"fields": {"title,abstract"},
			"limit":  {strconv.Itoa(opts.Candidates)},
		}

		var resp semanticResponse
		if err := httputil.GetJSON(ctx, opts.Client, "Semantic Scholar", base+"?"+params.Encode(), header, &resp); err != nil {
			return nil, err
		}

		hits := make([]candidate, 0, len(resp.Data))
		for _, p := range resp.Data {
			hits = append(hits, candidate{Title: p.Title, Abstract: p.Abstract})
		}
		return hits, nil
	})
}

type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
