// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package paperfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// column binds a CSV header to a Paper field.
type column struct {
	name string
	get  func(*types.Paper) string
	set  func(*types.Paper, string)
}

// columns is the CSV header order used for writing.
var columns = []column{
	{"paper_id", func(p *types.Paper) string { return p.PaperID }, func(p *types.Paper, v string) { p.PaperID = v }},
	{"title", func(p *types.Paper) string { return p.Title }, func(p *types.Paper, v string) { p.Title = v }},
	{"abstract", func(p *types.Paper) string { return p.Abstract }, func(p *types.Paper, v string) { p.Abstract = v }},
	{"abstract_source", func(p *types.Paper) string { return p.AbstractSource }, func(p *types.Paper, v string) { p.AbstractSource = v }},
	{"abstract_confidence", func(p *types.Paper) string { return p.AbstractConfidence }, func(p *types.Paper, v string) { p.AbstractConfidence = v }},
	{"authors", func(p *types.Paper) string { return p.Authors }, func(p *types.Paper, v string) { p.Authors = v }},
	{"journal", func(p *types.Paper) string { return p.Journal }, func(p *types.Paper, v string) { p.Journal = v }},
	{"year", func(p *types.Paper) string { return p.Year }, func(p *types.Paper, v string) { p.Year = v }},
	{"volume", func(p *types.Paper) string { return p.Volume }, func(p *types.Paper, v string) { p.Volume = v }},
	{"issue", func(p *types.Paper) string { return p.Issue }, func(p *types.Paper, v string) { p.Issue = v }},
	{"pages", func(p *types.Paper) string { return p.Pages }, func(p *types.Paper, v string) { p.Pages = v }},
	{"publisher", func(p *types.Paper) string { return p.Publisher }, func(p *types.Paper, v string) { p.Publisher = v }},
	{"doi", func(p *types.Paper) string { return p.DOI }, func(p *types.Paper, v string) { p.DOI = v }},
	{"url", func(p *types.Paper) string { return p.URL }, func(p *types.Paper, v string) { p.URL = v }},
	{"type", func(p *types.Paper) string { return p.Type }, func(p *types.Paper, v string) { p.Type = v }},
	{"original_category", func(p *types.Paper) string { return p.OriginalCategory }, func(p *types.Paper, v string) { p.OriginalCategory = v }},
	{"original_keywords", func(p *types.Paper) string { return p.OriginalKeywords }, func(p *types.Paper, v string) { p.OriginalKeywords = v }},
	{"contributions", func(p *types.Paper) string { return p.Contributions }, func(p *types.Paper, v string) { p.Contributions = v }},
	{"limitations", func(p *types.Paper) string { return p.Limitations }, func(p *types.Paper, v string) { p.Limitations = v }},
}

// ErrNoTitleColumn is returned for CSV input without a title header.
var ErrNoTitleColumn = errors.New("CSV has no title column")

// decodeCSV maps header names (case-insensitive) to Paper fields. Unknown
// columns are ignored; title is required.
func decodeCSV(r io.Reader) ([]types.Paper, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoTitleColumn
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	byName := make(map[string]column, len(columns))
	for _, c := range columns {
		byName[c.name] = c
	}

	bound := make([]*column, len(header))
	hasTitle := false
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if c, ok := byName[name]; ok {
			bound[i] = &c
			hasTitle = hasTitle || name == "title"
		}
	}
	if !hasTitle {
		return nil, ErrNoTitleColumn
	}

	var papers []types.Paper
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(papers)+2, err)
		}
		var p types.Paper
		for i, v := range rec {
			if i < len(bound) && bound[i] != nil {
				bound[i].set(&p, v)
			}
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func encodeCSV(w io.Writer, papers []types.Paper) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for i := range papers {
		for j, c := range columns {
			row[j] = c.get(&papers[i])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
