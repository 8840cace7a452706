// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-pipeline/internal/paperfile"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process <papers-file>",
	Short: "Deduplicate, backfill abstracts and categorize a paper file",
	Long: `Process runs the full pipeline over a paper file: duplicates are removed,
short or missing abstracts are looked up, and every paper is tagged with
research categories, keywords, contributions and limitations.

With --stream each progress message is printed to stderr as it happens.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Bool("stream", false, "print progress events while processing")
	addOutputFlags(processCmd)
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	papers, err := paperfile.Read(args[0])
	if err != nil {
		return err
	}
	stream, _ := cmd.Flags().GetBool("stream")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		processed []types.Paper
		removed   int
	)
	if stream {
		events, err := a.pipeline.Stream(cmd.Context(), papers)
		if err != nil {
			return err
		}
		for ev := range events {
			if ev.Type == types.EventFinished {
				processed = ev.Papers
			}
			if ev.Message != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), ev.Message)
			}
		}
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		removed = len(papers) - len(processed)
	} else {
		res, err := a.pipeline.Process(cmd.Context(), papers)
		if err != nil {
			return err
		}
		processed = res.Papers
		removed = res.OriginalCount - res.DeduplicatedCount
		fmt.Fprintf(cmd.ErrOrStderr(), "Successfully processed %d papers\n", res.ProcessedCount)
	}

	return writeOutput(cmd, paperfile.File{
		Papers: processed,
		Summary: &paperfile.Summary{
			Total:             len(processed),
			DuplicatesRemoved: removed,
			AbstractsFound:    countResolved(processed),
			Timestamp:         time.Now().UTC(),
		},
	})
}

// countResolved counts papers whose abstract came from a lookup.
func countResolved(papers []types.Paper) int {
	n := 0
	for _, p := range papers {
		if p.AbstractSource != "" && p.AbstractSource != types.SourceOriginal && p.AbstractSource != types.SourceNotFound && p.AbstractSource != types.SourceNone {
			n++
		}
	}
	return n
}
