// Package commands wires the wren CLI: analyze, sample, and schema.
package commands

import (
	"github.com/simonhull/firebird-suite/fledge/output"
	"github.com/simonhull/firebird-suite/wren"
	"github.com/spf13/cobra"
)

// RootCmd creates and returns the root command for the wren CLI
func RootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "wren",
		Short: "Structural sampler and schema inference for huge XML documents",
		Long: `Wren turns very large XML documents into small, representative fixtures.

It analyzes the element and attribute vocabulary of a document, selects a
size-bounded sample that keeps every element shape and cross-reference
intact, and infers a permissive XSD from what it saw. Use it to:
• Build test fixtures from multi-hundred-megabyte datasets
• Inspect the structure of an unfamiliar document
• Generate a schema describing a document's vocabulary

Learn more: https://github.com/simonhull/firebird-suite`,
		Version: wren.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")

	return cmd
}
