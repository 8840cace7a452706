package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-pipeline/internal/paperfile"
)

// addOutputFlags registers --out and --format on cmd.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
	cmd.Flags().String("format", "", "output format: yaml, json, csv or csl (default: from --out extension, yaml on stdout)")
}

// writeOutput writes doc to --out, or to stdout when --out is empty.
func writeOutput(cmd *cobra.Command, doc paperfile.File) error {
	out, _ := cmd.Flags().GetString("out")
	name, _ := cmd.Flags().GetString("format")

	var format paperfile.Format
	if name != "" {
		f, err := paperfile.ParseFormat(name)
		if err != nil {
			return err
		}
		format = f
	}

	if out == "" {
		if format == "" {
			format = paperfile.FormatYAML
		}
		return paperfile.Encode(cmd.OutOrStdout(), format, doc)
	}
	if err := paperfile.Write(out, format, doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d papers to %s\n", len(doc.Papers), out)
	return nil
}
