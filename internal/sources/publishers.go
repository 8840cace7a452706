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

// Publisher endpoints. Each requires an API key; adapters without one are
// not registered.
var (
	ieeeAPIBase     = "https://ieeexploreapi.ieee.org/api/v1/search/articles"
	acmAPIBase      = "https://dl.acm.org/api/volumes/press/chapters"
	springerAPIBase = "https://api.springernature.com/meta/v2/json"
)

// NewIEEEXplore returns the IEEE Xplore adapter. The provider is prone to
// transient 5xx (including its non-standard 596), so calls retry with
// bounded exponential backoff.
func NewIEEEXplore(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, ieeeAPIBase)

	opts = opts.withDefaults()
	return newSource("ieee_xplore", "IEEE Xplore", true, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"querytext":   {query},
			"apikey":      {cfg.APIKey},
			"max_records": {strconv.Itoa(opts.Candidates)},
			"format":      {"json"},
		}

		var resp struct {
			Articles []titleAbstract `json:"articles"`
		}
		if err := httputil.GetJSONOnce(ctx, opts.Client, "IEEE Xplore", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		return toCandidates(resp.Articles), nil
	})
}

// NewACM returns the ACM Digital Library adapter.
func NewACM(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, acmAPIBase)

	opts = opts.withDefaults()
	return newSource("acm", "ACM Digital Library", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"query":  {query},
			"apiKey": {cfg.APIKey},
			"fields": {"title,abstract"},
			"limit":  {strconv.Itoa(opts.Candidates)},
		}

		var resp struct {
			Data []titleAbstract `json:"data"`
		}
		if err := httputil.GetJSON(ctx, opts.Client, "ACM Digital Library", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		return toCandidates(resp.Data), nil
	})
}

// NewSpringer returns the Springer Nature metadata adapter.
func NewSpringer(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, springerAPIBase)

	opts = opts.withDefaults()
	return newSource("springer", "SpringerLink", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"q":       {"title:\"" + query + "\""},
			"api_key": {cfg.APIKey},
			"p":       {strconv.Itoa(opts.Candidates)},
		}

		var resp struct {
			Records []titleAbstract `json:"records"`
		}
		if err := httputil.GetJSON(ctx, opts.Client, "SpringerLink", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}
		return toCandidates(resp.Records), nil
	})
}

// titleAbstract is the record shape shared by the publisher APIs. Either
// field may arrive as a string or a list of strings.
type titleAbstract struct {
	Title    flexString `json:"title"`
	Abstract flexString `json:"abstract"`
}

func toCandidates(records []titleAbstract) []candidate {
	hits := make([]candidate, 0, len(records))
	for _, r := range records {
		hits = append(hits, candidate{
			Title:    string(r.Title),
			Abstract: textutil.StripTags(string(r.Abstract)),
		})
	}
	return hits
}
