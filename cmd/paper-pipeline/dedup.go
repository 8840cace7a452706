// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-pipeline/internal/paperfile"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <papers-file>",
	Short: "Remove duplicate papers from a paper file",
	Long: `Dedup drops papers whose DOI or normalized title matches an earlier paper
and, in fuzzy mode (dedup.strictness), papers whose title is too similar to
one already kept. Surviving papers are renumbered from 1.`,
	Args: cobra.ExactArgs(1),
	RunE: runDedup,
}

func init() {
	addOutputFlags(dedupCmd)
	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	papers, err := paperfile.Read(args[0])
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return types.ErrNoPapers
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	unique, removed := a.dedup.Dedupe(papers)
	a.metrics.RecordDuplicatesRemoved(removed)
	fmt.Fprintf(cmd.ErrOrStderr(), "%d duplicates removed, %d unique papers remaining\n", removed, len(unique))

	return writeOutput(cmd, paperfile.File{
		Papers: unique,
		Summary: &paperfile.Summary{
			Total:             len(unique),
			DuplicatesRemoved: removed,
			Timestamp:         time.Now().UTC(),
		},
	})
}
