// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch pages through the Crossref works API and normalizes
// records into canonical papers.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-pipeline/internal/httputil"
	"github.com/pdiddy/paper-pipeline/internal/observability"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// crossrefWorksBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works"

// attemptFactor bounds inspected records to attemptFactor × Limit.
const attemptFactor = 3

// Request describes one fetch.
type Request struct {
	// Keyword must appear in accepted titles when TitleFilter is set.
	Keyword string

	// ExtraKeywords are appended to the query; with TitleFilter each must
	// also appear in the title. Blank entries are ignored.
	ExtraKeywords []string

	FromYear int
	ToYear   int

	// Limit is the number of papers wanted. It is clamped to the
	// configured maximum.
	Limit int

	// TitleFilter keeps only items whose title contains every keyword
	// (case-insensitive substring match).
	TitleFilter bool

	// TypeFilter restricts the upstream query to journal and proceedings
	// articles.
	TypeFilter bool
}

// Result is the outcome of a fetch. Fetching is partial-success: a failed
// page ends the run and StopErr records why, but Papers still holds
// everything accepted before it.
type Result struct {
	Papers    []types.Paper
	Pages     int
	Inspected int
	StopErr   error
}

// Fetcher queries Crossref. It is safe for concurrent use; all callers
// share one page pacer so the upstream sees a single polite client.
type Fetcher struct {
	client  *http.Client
	cfg     types.FetchConfig
	base    string
	pacer   *httputil.Pacer
	metrics *observability.Metrics
	log     zerolog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMetrics records pages and accepted papers.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithLogger sets the fetcher's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(f *Fetcher) { f.log = observability.WithComponent(l, "fetch") }
}

// New returns a Fetcher using client and cfg. Zero config values take the
// defaults from types.DefaultConfig.
func New(client *http.Client, cfg types.FetchConfig, opts ...Option) *Fetcher {
	def := types.DefaultConfig().Fetch
	if cfg.RowsPerPage <= 0 {
		cfg.RowsPerPage = def.RowsPerPage
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}

	f := &Fetcher{
		client: client,
		cfg:    cfg,
		base:   orDefault(cfg.BaseURL, crossrefWorksBase),
		pacer:  httputil.NewPacer(cfg.PageDelay),
		log:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Validate checks a request and clamps its limit. It returns a
// *types.ValidationError for client mistakes.
func (f *Fetcher) Validate(req *Request) error {
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return types.NewValidationError("keyword", "is required")
	}
	if req.FromYear <= 0 || req.ToYear <= 0 {
		return types.NewValidationError("from_year", "from_year and to_year are required")
	}
	if req.FromYear > req.ToYear {
		return types.NewValidationError("from_year", fmt.Sprintf("%d is after to_year %d", req.FromYear, req.ToYear))
	}
	if req.Limit <= 0 {
		return types.NewValidationError("total_results", "must be at least 1")
	}
	req.Limit = min(req.Limit, f.cfg.MaxResults)
	return nil
}

// Fetch pages through Crossref until Limit papers are accepted, the
// attempt budget (3 × Limit inspected records) is spent, a page comes back
// empty, or a page fails. Only invalid input returns an error.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	if err := f.Validate(&req); err != nil {
		return Result{}, err
	}

	filter := newTitleFilter(req)
	query := strings.Join(append([]string{req.Keyword}, nonBlank(req.ExtraKeywords)...), " ")
	maxAttempts := req.Limit * attemptFactor

	log := f.log.With().
		Str("keyword", query).
		Int("from_year", req.FromYear).
		Int("to_year", req.ToYear).
		Int("limit", req.Limit).
		Logger()

	var res Result
	offset := 0
	for len(res.Papers) < req.Limit && res.Inspected < maxAttempts {
		remaining := req.Limit - len(res.Papers)
		rows := min(f.cfg.RowsPerPage, remaining*2)

		var (
			items []crossrefItem
			err   error
		)
		if waitErr := f.pacer.Do(ctx, func() error {
			items, err = f.page(ctx, query, req, rows, offset)
			return nil
		}); waitErr != nil {
			res.StopErr = waitErr
			break
		}
		res.Pages++
		f.metrics.RecordFetchPage(err == nil)
		if err != nil {
			log.Warn().Err(err).Int("offset", offset).Msg("page failed, returning partial results")
			res.StopErr = err
			break
		}
		log.Debug().Int("offset", offset).Int("rows", rows).Int("items", len(items)).Msg("page fetched")
		if len(items) == 0 {
			break
		}

		for _, it := range items {
			res.Inspected++
			if len(res.Papers) >= req.Limit {
				break
			}
			title := it.title()
			if req.TitleFilter && !filter.accepts(title) {
				continue
			}
			res.Papers = append(res.Papers, normalize(it, len(res.Papers)+1))
		}
		offset += rows
	}

	f.metrics.RecordPapersFetched(len(res.Papers))
	log.Info().Int("papers", len(res.Papers)).Int("pages", res.Pages).Int("inspected", res.Inspected).Msg("fetch complete")
	return res, nil
}

func (f *Fetcher) page(ctx context.Context, query string, req Request, rows, offset int) ([]crossrefItem, error) {
	filters := []string{
		"from-pub-date:" + strconv.Itoa(req.FromYear),
		"until-pub-date:" + strconv.Itoa(req.ToYear),
	}
	if req.TypeFilter {
		filters = append(filters, "type:journal-article", "type:proceedings-article")
	}

	params := url.Values{
		"query.title": {query},
		"filter":      {strings.Join(filters, ",")},
		"rows":        {strconv.Itoa(rows)},
		"offset":      {strconv.Itoa(offset)},
		"sort":        {"relevance"},
	}
	if f.cfg.Mailto != "" {
		params.Set("mailto", f.cfg.Mailto)
	}

	var resp crossrefResponse
	if err := httputil.GetJSON(ctx, f.client, "Crossref", f.base+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Message.Items, nil
}

// titleFilter holds lower-cased keywords that must all appear in a title.
type titleFilter struct {
	keywords []string
}

func newTitleFilter(req Request) titleFilter {
	kws := []string{strings.ToLower(req.Keyword)}
	for _, k := range nonBlank(req.ExtraKeywords) {
		kws = append(kws, strings.ToLower(k))
	}
	return titleFilter{keywords: kws}
}

// accepts reports whether title contains every keyword. An empty title
// never matches.
func (t titleFilter) accepts(title string) bool {
	lower := strings.ToLower(title)
	if strings.TrimSpace(lower) == "" {
		return false
	}
	for _, k := range t.keywords {
		if !strings.Contains(lower, k) {
			return false
		}
	}
	return true
}

func nonBlank(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
