// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paperfile reads and writes paper lists as YAML, JSON or CSV so
// the CLI can chain fetch, dedup, extract and process through files.
package paperfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-pipeline/pkg/types"
)

// Format is an on-disk paper list encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatCSL  Format = "csl"
)

// FormatFromPath infers the format from a file extension. Unknown
// extensions default to YAML.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatYAML
	}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatYAML, FormatJSON, FormatCSV, FormatCSL:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want yaml, json, csv or csl)", s)
	}
}

// File is the document form of a paper list. Query and Summary are
// optional and only written by commands that have them.
type File struct {
	Query   *Query        `json:"query,omitempty" yaml:"query,omitempty"`
	Papers  []types.Paper `json:"papers" yaml:"papers"`
	Summary *Summary      `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Query records the fetch parameters that produced a list.
type Query struct {
	Keyword       string   `json:"keyword" yaml:"keyword"`
	ExtraKeywords []string `json:"additional_keywords,omitempty" yaml:"additional_keywords,omitempty"`
	FromYear      int      `json:"from_year" yaml:"from_year"`
	ToYear        int      `json:"to_year" yaml:"to_year"`
	Limit         int      `json:"limit" yaml:"limit"`
	TitleFilter   bool     `json:"title_filter" yaml:"title_filter"`
	TypeFilter    bool     `json:"paper_type_filter" yaml:"paper_type_filter"`
}

// Summary holds counts and a timestamp for a written list.
type Summary struct {
	Total             int       `json:"total" yaml:"total"`
	DuplicatesRemoved int       `json:"duplicates_removed,omitempty" yaml:"duplicates_removed,omitempty"`
	AbstractsFound    int       `json:"abstracts_found,omitempty" yaml:"abstracts_found,omitempty"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
}

// Read loads papers from path, choosing the decoder by extension.
func Read(path string) ([]types.Paper, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening paper file: %w", err)
	}
	defer f.Close()

	papers, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return papers, nil
}

// Decode reads papers in the given format. YAML and JSON accept either a
// File document or a bare list of papers.
func Decode(r io.Reader, format Format) ([]types.Paper, error) {
	switch format {
	case FormatCSV:
		return decodeCSV(r)
	case FormatJSON:
		return decodeJSON(r)
	case FormatYAML:
		return decodeYAML(r)
	default:
		return nil, fmt.Errorf("format %q cannot be read", format)
	}
}

func decodeJSON(r io.Reader) ([]types.Paper, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var papers []types.Paper
		if err := json.Unmarshal(data, &papers); err != nil {
			return nil, fmt.Errorf("parsing JSON paper list: %w", err)
		}
		return papers, nil
	}
	var doc File
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON paper file: %w", err)
	}
	return doc.Papers, nil
}

func decodeYAML(r io.Reader) ([]types.Paper, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing YAML paper file: %w", err)
	}

	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.SequenceNode {
		var papers []types.Paper
		if err := root.Decode(&papers); err != nil {
			return nil, fmt.Errorf("decoding YAML paper list: %w", err)
		}
		return papers, nil
	}
	var doc File
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding YAML paper file: %w", err)
	}
	return doc.Papers, nil
}

// Write saves doc to path in the format implied by its extension, or in
// format when it is non-empty.
func Write(path string, format Format, doc File) error {
	if format == "" {
		format = FormatFromPath(path)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, format, doc); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing paper file: %w", err)
	}
	return nil
}

// Encode writes doc to w. CSV and CSL carry only the papers.
func Encode(w io.Writer, format Format, doc File) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("marshaling paper file: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("marshaling paper file: %w", err)
		}
		return nil
	case FormatCSV:
		return encodeCSV(w, doc.Papers)
	case FormatCSL:
		return EncodeCSL(w, doc.Papers)
	default:
		return fmt.Errorf("format %q cannot be written", format)
	}
}
