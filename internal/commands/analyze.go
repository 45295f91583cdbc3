package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/simonhull/firebird-suite/fledge/generator"
	"github.com/simonhull/firebird-suite/fledge/output"
	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// AnalyzeCmd creates the 'analyze' command: profile a document and report
// its structure without sampling.
func AnalyzeCmd() *cobra.Command {
	var maxDepth, topN int
	var profilePath string
	var force bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Profile a document's element and attribute vocabulary",
		Long: `Analyze parses a document (plain or gzip/bzip2/xz/tar wrapped) and
reports its structural profile: element counts, attribute vocabulary,
nesting depth, and namespaces.

Malformed input never fails analysis; wren degrades to a lenient tag scan
and marks the profile partial.

Examples:
  wren analyze dataset.xml
  wren analyze dump.xml.gz --top 20
  wren analyze dataset.xml --profile profile.yml`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := mustLoadConfig()

			profile, err := loadProfile(args[0], cfg, maxDepth)
			if err != nil {
				output.Error(err.Error())
				os.Exit(1)
			}

			printReport(profile, topN)

			if profilePath != "" {
				data, err := yaml.Marshal(buildProfileReport(profile, topN))
				if err != nil {
					output.Error(fmt.Sprintf("Encoding profile: %v", err))
					os.Exit(1)
				}
				ops := []generator.Operation{
					&generator.WriteFileOp{Path: profilePath, Content: data, Mode: 0644},
				}
				if err := generator.Execute(context.Background(), ops, generator.ExecuteOptions{
					Force:  force,
					Writer: cmd.OutOrStdout(),
				}); err != nil {
					output.Error(err.Error())
					os.Exit(1)
				}
				output.Success("Wrote profile: " + profilePath)
			}
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "Traversal depth ceiling (default from wren.yml)")
	cmd.Flags().IntVar(&topN, "top", 10, "How many top elements/attributes to report")
	cmd.Flags().StringVar(&profilePath, "profile", "", "Write the profile as YAML to this path")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing output files")

	return cmd
}

func printReport(p *analyzer.Profile, topN int) {
	marker := ""
	if p.Partial {
		marker = " (partial)"
	}
	output.Info(fmt.Sprintf("Document profile%s", marker))
	output.Step(fmt.Sprintf("elements: %d", p.TotalElements))
	output.Step(fmt.Sprintf("distinct tags: %d", len(p.Types)))
	output.Step(fmt.Sprintf("max depth: %d", p.MaxDepth))
	if len(p.RootTags) > 0 {
		output.Step(fmt.Sprintf("root: %s", p.RootTags[0]))
	}
	for prefix, uri := range p.Namespaces {
		if prefix == "" {
			output.Step(fmt.Sprintf("xmlns: %s", uri))
		} else {
			output.Step(fmt.Sprintf("xmlns:%s: %s", prefix, uri))
		}
	}

	output.Info("Top elements")
	for _, tc := range p.TopElements(topN) {
		output.Step(fmt.Sprintf("%-30s %d", tc.Name, tc.Count))
	}
	output.Info("Top attributes")
	for _, tc := range p.TopAttributes(topN) {
		output.Step(fmt.Sprintf("%-30s %d", tc.Name, tc.Count))
	}
}

// profileReport is the YAML-facing shape of a profile for tooling.
type profileReport struct {
	TotalElements int                 `yaml:"total_elements"`
	MaxDepth      int                 `yaml:"max_depth"`
	RootTags      []string            `yaml:"root_tags"`
	Partial       bool                `yaml:"partial"`
	PartialReason string              `yaml:"partial_reason,omitempty"`
	Namespaces    map[string]string   `yaml:"namespaces,omitempty"`
	TopElements   []tagCountReport    `yaml:"top_elements"`
	TopAttributes []tagCountReport    `yaml:"top_attributes"`
	Types         map[string]typeInfo `yaml:"types"`
}

type tagCountReport struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

type typeInfo struct {
	Count      int      `yaml:"count"`
	MaxDepth   int      `yaml:"max_depth"`
	HasText    bool     `yaml:"has_text,omitempty"`
	Attributes []string `yaml:"attributes,omitempty"`
	Children   []string `yaml:"children,omitempty"`
}

func buildProfileReport(p *analyzer.Profile, topN int) profileReport {
	report := profileReport{
		TotalElements: p.TotalElements,
		MaxDepth:      p.MaxDepth,
		RootTags:      p.RootTags,
		Partial:       p.Partial,
		PartialReason: p.PartialReason,
		Namespaces:    p.Namespaces,
		Types:         make(map[string]typeInfo, len(p.Types)),
	}
	for _, tc := range p.TopElements(topN) {
		report.TopElements = append(report.TopElements, tagCountReport(tc))
	}
	for _, tc := range p.TopAttributes(topN) {
		report.TopAttributes = append(report.TopAttributes, tagCountReport(tc))
	}
	for tag, ti := range p.Types {
		report.Types[tag] = typeInfo{
			Count:      ti.Count,
			MaxDepth:   ti.MaxDepth,
			HasText:    ti.HasText,
			Attributes: ti.AttributeNames(),
			Children:   ti.ChildTagNames(),
		}
	}
	return report
}
