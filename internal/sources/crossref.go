// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/internal/textutil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// crossrefWorksBase is the Crossref works endpoint used for abstract lookup.
var crossrefWorksBase = "https://api.crossref.org/works"

// NewCrossref returns the Crossref adapter. Crossref abstracts arrive as
// JATS XML and are reduced to plain text.
func NewCrossref(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, crossrefWorksBase)

	opts = opts.withDefaults()
	return newSource("crossref", "Crossref", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"query.title": {query},
			"rows":        {strconv.Itoa(opts.Candidates)},
			"select":      {"title,abstract"},
		}
		if cfg.Mailto != "" {
			params.Set("mailto", cfg.Mailto)
		}

		var resp crossrefLookupResponse
		if err := httputil.GetJSON(ctx, opts.Client, "Crossref", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}

		hits := make([]candidate, 0, len(resp.Message.Items))
		for _, it := range resp.Message.Items {
			var title string
			if len(it.Title) > 0 {
				title = it.Title[0]
			}
			hits = append(hits, candidate{Title: title, Abstract: textutil.StripTags(it.Abstract)})
		}
		return hits, nil
	})
}

type crossrefLookupResponse struct {
	Message struct {
		Items []struct {
			Title    []string `json:"title"`
			Abstract string   `json:"abstract"`
		} `json:"items"`
	} `json:"message"`
}
