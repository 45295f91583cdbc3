package main

import (
	"os"

	"github.com/simonhull/firebird-suite/wren/internal/commands"
)

func main() {
	rootCmd := commands.RootCmd()

	rootCmd.AddCommand(commands.AnalyzeCmd())
	rootCmd.AddCommand(commands.SampleCmd())
	rootCmd.AddCommand(commands.SchemaCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
