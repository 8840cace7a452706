// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/internal/textutil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

var citeSeerXSearchBase = "https://citeseerx.ist.psu.edu/search"

// NewCiteSeerX returns the CiteSeerX adapter. CiteSeerX has no JSON API;
// the adapter scrapes the relevance-sorted search results page and is the
// last resort in the default order.
func NewCiteSeerX(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, citeSeerXSearchBase)

	opts = opts.withDefaults()
	return newSource("citeseerx", "CiteSeerX", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"q":      {query},
			"submit": {"Search"},
			"sort":   {"rlv"},
			"t":      {"doc"},
		}

		body, err := httputil.GetBody(ctx, opts.Client, "CiteSeerX", base+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parsing CiteSeerX page: %w", err)
		}
		return parseCiteSeerX(doc, opts.Candidates), nil
	})
}

// parseCiteSeerX reads up to limit result blocks. Each block carries the
// title in its heading and the abstract in div.abstract (or a snippet).
func parseCiteSeerX(doc *goquery.Document, limit int) []candidate {
	var hits []candidate
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := s.Find("h3").First().Text()
		if title == "" {
			title = s.Find(".title").First().Text()
		}
		abstract := s.Find("div.abstract").First().Text()
		if abstract == "" {
			abstract = s.Find("div.snippet").First().Text()
		}
		hits = append(hits, candidate{
			Title:    textutil.CollapseSpace(title),
			Abstract: textutil.CollapseSpace(abstract),
		})
		return len(hits) < limit
	})
	return hits
}
