package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/simonhull/firebird-suite/fledge/generator"
	"github.com/simonhull/firebird-suite/fledge/output"
	"github.com/simonhull/firebird-suite/wren/internal/sampler"
	"github.com/simonhull/firebird-suite/wren/internal/serializer"
	"github.com/simonhull/firebird-suite/wren/internal/validate"
	"github.com/simonhull/firebird-suite/wren/internal/xsdgen"
	"github.com/spf13/cobra"
)

const validateTimeout = 10 * time.Second

// SampleCmd creates the 'sample' command: the full analyze → select →
// serialize pipeline, optionally with schema generation and validation.
func SampleCmd() *cobra.Command {
	var maxElements, maxDepth int
	var strategyName, outputPath, schemaPath string
	var seed int64
	var preserveAllTypes, preserveRelationships, noAttributes bool
	var runValidate, dryRun, force bool

	cmd := &cobra.Command{
		Use:   "sample <file>",
		Short: "Produce a size-bounded, structurally representative sample",
		Long: `Sample selects a bounded set of elements that preserves every element
shape found in the input, pulls in any elements referenced by the
selection so cross-references stay resolvable, and re-serializes the
result as a valid document.

Strategies:
  preserve-all-types - one best example per discovered tag (default)
  balanced           - spread the budget evenly across tags
  random             - shuffle all examples (deterministic per --seed)
  first              - take examples in discovery order

Examples:
  wren sample dataset.xml
  wren sample dump.xml.gz --max-elements 50 --strategy balanced
  wren sample dataset.xml --schema dataset.xsd --validate`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()

			if maxElements != 0 {
				cfg.Sample.MaxElements = maxElements
			}
			if strategyName != "" {
				cfg.Sample.Strategy = strategyName
			}
			if cmd.Flags().Changed("seed") {
				cfg.Sample.Seed = seed
			}
			if cmd.Flags().Changed("preserve-all-types") {
				cfg.Sample.PreserveAllTypes = preserveAllTypes
			}
			if cmd.Flags().Changed("preserve-relationships") {
				cfg.Sample.PreserveRelationships = preserveRelationships
			}

			strategy, err := sampler.ParseStrategy(cfg.Sample.Strategy)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			profile, err := loadProfile(args[0], cfg, maxDepth)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			sel, err := sampler.Select(profile, sampler.Options{
				MaxElements:           cfg.Sample.MaxElements,
				Strategy:              strategy,
				PreserveAllTypes:      cfg.Sample.PreserveAllTypes,
				PreserveAttributes:    !noAttributes && cfg.Sample.PreserveAttributes,
				PreserveRelationships: cfg.Sample.PreserveRelationships,
				RelationshipAttrs:     cfg.Relationships.Attributes,
				IdentityAttr:          cfg.Relationships.IdentityAttr,
				RequiredChildren:      cfg.RequiredChildren,
				Seed:                  cfg.Sample.Seed,
				SafetyMultiplier:      cfg.Sample.SafetyMultiplier,
			})
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			output.Verbose(fmt.Sprintf("Selected %d elements (%d synthesized children)",
				len(sel.Elements), sel.Synthesized))
			if len(sel.UnresolvedRefs) > 0 {
				output.Info(fmt.Sprintf("%d referenced IDs could not be resolved from cached examples", len(sel.UnresolvedRefs)))
				for _, id := range sel.UnresolvedRefs {
					output.Verbose("unresolved reference: " + id)
				}
			}

			sampleText := serializer.Serialize(sel, profile, cfg.Sample.MaxElements)

			ops := []generator.Operation{
				&generator.WriteFileOp{Path: outputPath, Content: []byte(sampleText), Mode: 0644},
			}

			var schemaText string
			if schemaPath != "" {
				schemaText = xsdgen.Generate(profile, xsdgen.Options{
					TargetNamespace:        cfg.Schema.TargetNamespace,
					ElementFormQualified:   cfg.Schema.ElementForm == "qualified",
					AttributeFormQualified: cfg.Schema.AttributeForm == "qualified",
				})
				ops = append(ops, &generator.WriteFileOp{Path: schemaPath, Content: []byte(schemaText), Mode: 0644})
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

			if runValidate && !dryRun {
				res := validate.CheckWithTimeout(context.Background(), sampleText, validateTimeout)
				for _, w := range res.Warnings {
					output.Info("validation: " + w)
				}
				if !res.Valid {
					for _, e := range res.Errors {
						output.Error("validation: " + e)
					}
					os.Exit(1)
				}
				output.Success("Sample is well-formed")
			}

			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "\n✓ Dry-run complete. Run without --dry-run to create files.")
			} else {
				output.Success(fmt.Sprintf("Sampled %d of %d elements → %s",
					len(sel.Elements), profile.TotalElements, outputPath))
			}
		},
	}

	cmd.Flags().IntVar(&maxElements, "max-elements", 0, "Sample size ceiling (default from wren.yml)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Traversal depth ceiling (default from wren.yml)")
	cmd.Flags().StringVar(&strategyName, "strategy", "", "Selection strategy: preserve-all-types, balanced, random, first")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the random strategy")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "sample.xml", "Sample output path")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "Also write an inferred XSD to this path")
	cmd.Flags().BoolVar(&preserveAllTypes, "preserve-all-types", true, "Guarantee one example per discovered tag")
	cmd.Flags().BoolVar(&preserveRelationships, "preserve-relationships", true, "Pull in elements referenced by the selection")
	cmd.Flags().BoolVar(&noAttributes, "no-attributes", false, "Strip attributes except identity and relationship carriers")
	cmd.Flags().BoolVar(&runValidate, "validate", false, "Check the emitted sample for well-formedness")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without creating files")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files without asking")

	return cmd
}
