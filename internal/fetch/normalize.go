// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"strconv"
	"strings"

	"github.com/pdiddy/paper-pipeline/internal/textutil"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Crossref works API JSON structures.
type crossrefResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	Title           []string         `json:"title"`
	Abstract        string           `json:"abstract"`
	Author          []crossrefAuthor `json:"author"`
	ContainerTitle  []string         `json:"container-title"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	PublishedOnline crossrefDate     `json:"published-online"`
	Volume          string           `json:"volume"`
	Issue           string           `json:"issue"`
	Page            string           `json:"page"`
	Publisher       string           `json:"publisher"`
	DOI             string           `json:"DOI"`
	URL             string           `json:"URL"`
	Type            string           `json:"type"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// year returns the first date part, or "" when absent.
func (d crossrefDate) year() string {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == 0 {
		return ""
	}
	return strconv.Itoa(d.DateParts[0][0])
}

func (it crossrefItem) title() string {
	if len(it.Title) == 0 {
		return ""
	}
	return strings.TrimSpace(it.Title[0])
}

// normalize maps a Crossref item to a Paper with the 1-indexed position n.
func normalize(it crossrefItem, n int) types.Paper {
	p := types.Paper{
		PaperID:   types.FormatPaperID(n),
		Title:     it.title(),
		Abstract:  textutil.StripTags(it.Abstract),
		Authors:   formatAuthors(it.Author),
		Volume:    it.Volume,
		Issue:     it.Issue,
		Pages:     it.Page,
		Publisher: it.Publisher,
		DOI:       it.DOI,
		URL:       it.URL,
		Type:      it.Type,
	}
	if len(it.ContainerTitle) > 0 {
		p.Journal = it.ContainerTitle[0]
	}

	// Print date wins over online date.
	p.Year = it.PublishedPrint.year()
	if p.Year == "" {
		p.Year = it.PublishedOnline.year()
	}
	return p
}

// formatAuthors renders "Given Family" names joined by "; ", falling back
// to the family name alone. Authors with neither are skipped.
func formatAuthors(authors []crossrefAuthor) string {
	var names []string
	for _, a := range authors {
		given, family := strings.TrimSpace(a.Given), strings.TrimSpace(a.Family)
		switch {
		case given != "" && family != "":
			names = append(names, given+" "+family)
		case family != "":
			names = append(names, family)
		}
	}
	if len(names) == 0 {
		return types.AuthorsNotAvailable
	}
	return strings.Join(names, "; ")
}
