// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"fmt"
	"strings"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// DefaultOrder is the resolution priority: structured metadata APIs first,
// then publisher APIs, then open repositories, with HTML scraping last.
// The first adapter to find an abstract wins, so reordering changes which
// provider's text a paper receives.
var DefaultOrder = []string{
	"semantic_scholar",
	"arxiv",
	"openalex",
	"ieee_xplore",
	"acm",
	"springer",
	"crossref",
	"core",
	"hal",
	"openaire",
	"citeseerx",
}

type factory struct {
	build    func(types.SourceConfig, Options) Adapter
	needsKey bool
}

var factories = map[string]factory{
	"semantic_scholar": {build: NewSemanticScholar},
	"arxiv":            {build: NewArxiv},
	"openalex":         {build: NewOpenAlex},
	"crossref":         {build: NewCrossref},
	"ieee_xplore":      {build: NewIEEEXplore, needsKey: true},
	"acm":              {build: NewACM, needsKey: true},
	"springer":         {build: NewSpringer, needsKey: true},
	"core":             {build: NewCORE},
	"hal":              {build: NewHAL},
	"openaire":         {build: NewOpenAIRE},
	"citeseerx":        {build: NewCiteSeerX},
}

// Known reports whether name is a registered adapter.
func Known(name string) bool {
	_, ok := factories[name]
	return ok
}

// Build constructs adapters in the given priority order (DefaultOrder when
// empty). Adapters that require an API key and have none configured are
// skipped and reported in skipped. An unknown or repeated name is an error.
func Build(order []string, cfgs map[string]types.SourceConfig, opts Options) (adapters []Adapter, skipped []string, err error) {
	if len(order) == 0 {
		order = DefaultOrder
	}

	seen := make(map[string]bool, len(order))
	for _, raw := range order {
		name := strings.ToLower(strings.TrimSpace(raw))
		f, ok := factories[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown abstract source %q (known: %s)", raw, strings.Join(DefaultOrder, ", "))
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("abstract source %q listed twice", name)
		}
		seen[name] = true

		cfg := cfgs[name]
		if f.needsKey && cfg.APIKey == "" {
			skipped = append(skipped, name)
			continue
		}
		adapters = append(adapters, f.build(cfg, opts))
	}
	return adapters, skipped, nil
}
