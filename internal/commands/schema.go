package commands

import (
	"context"
	"os"

	"github.com/simonhull/firebird-suite/fledge/generator"
	"github.com/simonhull/firebird-suite/fledge/output"
	"github.com/simonhull/firebird-suite/wren/internal/xsdgen"
	"github.com/spf13/cobra"
)

// SchemaCmd creates the 'schema' command: infer an XSD from a document
// without producing a sample.
func SchemaCmd() *cobra.Command {
	var maxDepth int
	var outputPath, targetNamespace, elementForm, attributeForm string
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "Infer a permissive XSD describing a document's vocabulary",
		Long: `Schema analyzes a document and emits one element declaration and one
complex type per discovered tag. Children are declared optional and
unbounded, attributes as strings: the schema accepts the original
document and anything else sharing its vocabulary, without guessing
occurrence or value constraints.

Examples:
  wren schema dataset.xml
  wren schema dataset.xml -o dataset.xsd --target-namespace http://example.com/ns`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()

			if targetNamespace != "" {
				cfg.Schema.TargetNamespace = targetNamespace
			}
			if elementForm != "" {
				cfg.Schema.ElementForm = elementForm
			}
			if attributeForm != "" {
				cfg.Schema.AttributeForm = attributeForm
			}
			if cfg.Schema.ElementForm != "qualified" && cfg.Schema.ElementForm != "unqualified" {
				output.Error("--element-form must be 'qualified' or 'unqualified'")
				os.Exit(1)
			}
			if cfg.Schema.AttributeForm != "qualified" && cfg.Schema.AttributeForm != "unqualified" {
				output.Error("--attribute-form must be 'qualified' or 'unqualified'")
				os.Exit(1)
			}

			profile, err := loadProfile(args[0], cfg, maxDepth)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			schemaText := xsdgen.Generate(profile, xsdgen.Options{
				TargetNamespace:        cfg.Schema.TargetNamespace,
				ElementFormQualified:   cfg.Schema.ElementForm == "qualified",
				AttributeFormQualified: cfg.Schema.AttributeForm == "qualified",
			})

			ops := []generator.Operation{
				&generator.WriteFileOp{Path: outputPath, Content: []byte(schemaText), Mode: 0644},
			}
			if err := generator.Execute(context.Background(), ops, generator.ExecuteOptions{
				DryRun: dryRun,
				Force:  force,
				Writer: cmd.OutOrStdout(),
			}); err != nil {
				output.Error(err.Error())
				output.Info("Tip: use --force to overwrite existing files")
				os.Exit(1)
			}

			if !dryRun {
				output.Success("Inferred schema: " + outputPath)
			}
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Traversal depth ceiling (default from wren.yml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "schema.xsd", "Schema output path")
	cmd.Flags().StringVar(&targetNamespace, "target-namespace", "", "Schema target namespace")
	cmd.Flags().StringVar(&elementForm, "element-form", "", "Element form: qualified or unqualified")
	cmd.Flags().StringVar(&attributeForm, "attribute-form", "", "Attribute form: qualified or unqualified")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without creating files")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files without asking")

	return cmd
}
