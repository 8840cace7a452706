// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/internal/textutil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// arxivAPIBase is the arXiv export API endpoint. Declared as a var so
// tests can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// NewArxiv returns the arXiv adapter. It searches titles (ti:) through the
// Atom API and reads each entry's summary as the abstract.
func NewArxiv(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, arxivAPIBase)

	opts = opts.withDefaults()
	return newSource("arxiv", "arXiv", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"search_query": {"ti:" + query},
			"start":        {"0"},
			"max_results":  {strconv.Itoa(opts.Candidates)},
		}

		body, err := httputil.GetBody(ctx, opts.Client, "arXiv", base+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		feed, err := gofeed.NewParser().ParseString(string(body))
		if err != nil {
			return nil, fmt.Errorf("parsing arXiv feed: %w", err)
		}

		hits := make([]candidate, 0, len(feed.Items))
		for _, item := range feed.Items {
			hits = append(hits, candidate{
				Title:    textutil.CollapseSpace(item.Title),
				Abstract: textutil.CollapseSpace(item.Description),
			})
		}
		return hits, nil
	})
}
