// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-pipeline/internal/paperfile"
	"github.com/pdiddy/paper-pipeline/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <papers-file>",
	Short: "Backfill missing abstracts in a paper file",
	Long: `Extract looks up an abstract for every paper in the file that has a title
and no abstract, trying each configured source in priority order. Papers
that already carry an abstract are left untouched. CSV input needs a
"title" header column.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	addOutputFlags(extractCmd)
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	papers, err := paperfile.Read(args[0])
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return types.ErrNoPapers
	}

	var (
		missing []types.Paper
		at      []int
	)
	for i, p := range papers {
		if strings.TrimSpace(p.Abstract) == "" {
			missing = append(missing, p)
			at = append(at, i)
		}
	}

	found := 0
	if len(missing) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "Every paper already has an abstract")
	} else {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintf(cmd.ErrOrStderr(), "Searching abstracts for %d of %d papers...\n", len(missing), len(papers))
		res, err := a.pipeline.ExtractAbstracts(cmd.Context(), missing)
		if err != nil {
			return err
		}
		for j, p := range res.Papers {
			papers[at[j]] = p
		}
		found = res.Found
		fmt.Fprintf(cmd.ErrOrStderr(), "Found %d of %d missing abstracts\n", found, len(missing))
	}

	return writeOutput(cmd, paperfile.File{
		Papers: papers,
		Summary: &paperfile.Summary{
			Total:          len(papers),
			AbstractsFound: found,
			Timestamp:      time.Now().UTC(),
		},
	})
}
