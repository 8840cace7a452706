// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the paper pipeline:
// the canonical Paper record, the SourceResult returned by abstract
// lookups, progress events emitted by streaming runs, and configuration.
package types

import "fmt"

// Provenance sentinels written to Paper.AbstractSource when no provider
// supplied the abstract.
const (
	SourceOriginal = "Original"
	SourceNotFound = "Not found"
	SourceNone     = "none"
)

// Confidence levels written to Paper.AbstractConfidence.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
	ConfidenceNone = "none"
)

// AuthorsNotAvailable is the display string used when a record has no authors.
const AuthorsNotAvailable = "Not Available"

// Paper is the canonical, provider-agnostic record of one publication.
// PaperID is only unique within a single response batch: it is reassigned
// after every deduplication pass.
type Paper struct {
	PaperID            string `json:"paper_id" yaml:"paper_id"`
	Title              string `json:"title" yaml:"title"`
	Abstract           string `json:"abstract" yaml:"abstract"`
	AbstractSource     string `json:"abstract_source,omitempty" yaml:"abstract_source,omitempty"`
	AbstractConfidence string `json:"abstract_confidence,omitempty" yaml:"abstract_confidence,omitempty"`

	// Authors is a "; "-joined display string, or AuthorsNotAvailable.
	Authors   string `json:"authors" yaml:"authors"`
	Journal   string `json:"journal" yaml:"journal"`
	Year      string `json:"year" yaml:"year"`
	Volume    string `json:"volume" yaml:"volume"`
	Issue     string `json:"issue" yaml:"issue"`
	Pages     string `json:"pages" yaml:"pages"`
	Publisher string `json:"publisher" yaml:"publisher"`
	DOI       string `json:"doi" yaml:"doi"`
	URL       string `json:"url" yaml:"url"`
	Type      string `json:"type" yaml:"type"`

	// Post-processing annotations.
	OriginalCategory string `json:"original_category,omitempty" yaml:"original_category,omitempty"`
	OriginalKeywords string `json:"original_keywords,omitempty" yaml:"original_keywords,omitempty"`
	Contributions    string `json:"contributions,omitempty" yaml:"contributions,omitempty"`
	Limitations      string `json:"limitations,omitempty" yaml:"limitations,omitempty"`
}

// FormatPaperID returns the batch identifier for the 1-indexed position n
// (e.g. 7 → "paper_007").
func FormatPaperID(n int) string {
	return fmt.Sprintf("paper_%03d", n)
}

// RenumberPapers assigns dense sequential identifiers in slice order.
func RenumberPapers(papers []Paper) {
	for i := range papers {
		papers[i].PaperID = FormatPaperID(i + 1)
	}
}
