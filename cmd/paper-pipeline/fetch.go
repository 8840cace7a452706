// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-pipeline/internal/fetch"
	"github.com/pdiddy/paper-pipeline/internal/paperfile"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch candidate papers from Crossref",
	Long: `Fetch queries Crossref for journal articles and proceedings papers matching
a keyword and up to two additional keywords within a publication year range.
With --title-filter every keyword must appear in the title; with
--type-filter only journal articles and proceedings papers are kept.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("keyword", "", "primary keyword (required)")
	fetchCmd.Flags().StringSlice("also", nil, "additional keywords (at most two)")
	fetchCmd.Flags().Int("from", 2020, "first publication year")
	fetchCmd.Flags().Int("to", 2025, "last publication year")
	fetchCmd.Flags().Int("total", 5, "number of papers to return")
	fetchCmd.Flags().Bool("title-filter", true, "require every keyword in the title")
	fetchCmd.Flags().Bool("type-filter", true, "keep only journal articles and proceedings papers")
	addOutputFlags(fetchCmd)
	_ = fetchCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	also, _ := cmd.Flags().GetStringSlice("also")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")
	total, _ := cmd.Flags().GetInt("total")
	titleFilter, _ := cmd.Flags().GetBool("title-filter")
	typeFilter, _ := cmd.Flags().GetBool("type-filter")

	if len(also) > 2 {
		return fmt.Errorf("at most two additional keywords, got %d", len(also))
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	req := fetch.Request{
		Keyword:       keyword,
		ExtraKeywords: also,
		FromYear:      from,
		ToYear:        to,
		Limit:         total,
		TitleFilter:   titleFilter,
		TypeFilter:    typeFilter,
	}
	res, err := a.fetcher.Fetch(cmd.Context(), req)
	if err != nil {
		return err
	}
	if res.StopErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: fetch stopped early: %v\n", res.StopErr)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Successfully fetched %d papers (%d pages, %d records inspected)\n",
		len(res.Papers), res.Pages, res.Inspected)

	return writeOutput(cmd, paperfile.File{
		Query: &paperfile.Query{
			Keyword:       keyword,
			ExtraKeywords: also,
			FromYear:      from,
			ToYear:        to,
			Limit:         total,
			TitleFilter:   titleFilter,
			TypeFilter:    typeFilter,
		},
		Papers:  res.Papers,
		Summary: &paperfile.Summary{Total: len(res.Papers), Timestamp: time.Now().UTC()},
	})
}
