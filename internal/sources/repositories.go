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

// Open repository endpoints.
var (
	coreAPIBase     = "https://core.ac.uk/api-v2/search"
	halAPIBase      = "https://api.archives-ouvertes.fr/search/"
	openAIREAPIBase = "https://api.openaire.eu/search/publications"
)

// coreDemoKey is CORE's shared low-quota key, used when none is configured.
const coreDemoKey = "demo"

// NewCORE returns the CORE aggregator adapter. CORE times out and 5xxs
// under load, so calls retry with bounded exponential backoff. Each attempt
// is a single request, 429 included.
func NewCORE(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, coreAPIBase)
	key := orDefault(cfg.APIKey, coreDemoKey)

	opts = opts.withDefaults()
	return newSource("core", "CORE", true, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"apiKey":   {key},
			"pageSize": {strconv.Itoa(opts.Candidates)},
		}
		reqURL := base + "/" + url.PathEscape(query) + "?" + params.Encode()

		var resp struct {
			Data []struct {
				Title       flexString `json:"title"`
				Abstract    flexString `json:"abstract"`
				Description flexString `json:"description"`
			} `json:"data"`
		}
		if err := httputil.GetJSONOnce(ctx, opts.Client, "CORE", reqURL, nil, &resp); err != nil {
			return nil, err
		}

		hits := make([]candidate, 0, len(resp.Data))
		for _, d := range resp.Data {
			abstract := string(d.Abstract)
			if abstract == "" {
				abstract = string(d.Description)
			}
			hits = append(hits, candidate{Title: string(d.Title), Abstract: textutil.StripTags(abstract)})
		}
		return hits, nil
	})
}

// NewHAL returns the HAL open archive adapter (Solr JSON API).
func NewHAL(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, halAPIBase)

	opts = opts.withDefaults()
	return newSource("hal", "HAL", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"q":    {"title_t:(" + query + ")"},
			"wt":   {"json"},
			"fl":   {"title_s,abstract_s"},
			"rows": {strconv.Itoa(opts.Candidates)},
		}

		var resp struct {
			Response struct {
				Docs []struct {
					Title    flexString `json:"title_s"`
					Abstract flexString `json:"abstract_s"`
				} `json:"docs"`
			} `json:"response"`
		}
		if err := httputil.GetJSON(ctx, opts.Client, "HAL", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}

		hits := make([]candidate, 0, len(resp.Response.Docs))
		for _, d := range resp.Response.Docs {
			hits = append(hits, candidate{Title: string(d.Title), Abstract: textutil.CollapseSpace(string(d.Abstract))})
		}
		return hits, nil
	})
}

// NewOpenAIRE returns the OpenAIRE research graph adapter.
func NewOpenAIRE(cfg types.SourceConfig, opts Options) Adapter {
	base := orDefault(cfg.BaseURL, openAIREAPIBase)

	opts = opts.withDefaults()
	return newSource("openaire", "OpenAIRE", false, opts, func(ctx context.Context, query string) ([]candidate, error) {
		params := url.Values{
			"title":  {query},
			"format": {"json"},
			"size":   {strconv.Itoa(opts.Candidates)},
		}

		var resp openAIREResponse
		if err := httputil.GetJSON(ctx, opts.Client, "OpenAIRE", base+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, err
		}

		var hits []candidate
		for _, r := range resp.Response.Results.Result {
			res := r.Metadata.Entity.Result
			hits = append(hits, candidate{
				Title:    string(res.Title),
				Abstract: textutil.StripTags(string(res.Description)),
			})
		}
		return hits, nil
	})
}

type openAIREResponse struct {
	Response struct {
		Results struct {
			Result []struct {
				Metadata struct {
					Entity struct {
						Result struct {
							Title       flexString `json:"title"`
							Description flexString `json:"description"`
						} `json:"oaf:result"`
					} `json:"oaf:entity"`
				} `json:"metadata"`
			} `json:"result"`
		} `json:"results"`
	} `json:"response"`
}
