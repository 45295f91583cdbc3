package commands

import (
	"fmt"
	"os"

	"github.com/simonhull/firebird-suite/fledge/output"
	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
	"github.com/simonhull/firebird-suite/wren/internal/config"
	"github.com/simonhull/firebird-suite/wren/internal/document"
)

// loadProfile runs the shared front half of every command: config, input
// codec, analysis.
func loadProfile(path string, cfg *config.Config, maxDepth int) (*analyzer.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text, compression, err := document.Decode(raw)
	if err != nil {
		return nil, err
	}
	if compression != document.CompressionNone {
		output.Verbose(fmt.Sprintf("Decoded %s input (%d bytes of text)", compression, len(text)))
	}

	opts := analyzer.Options{
		MaxDepth:    cfg.Analyze.MaxDepth,
		MaxElements: cfg.Analyze.MaxElements,
		ExampleCap:  cfg.Analyze.ExampleCap,
		TypeCaps:    cfg.Analyze.ElementTypeLimits,
	}
	if maxDepth > 0 {
		opts.MaxDepth = maxDepth
	}

	profile := analyzer.New(opts).Analyze(text)
	output.Verbose(fmt.Sprintf("Analyzed %d elements across %d types (max depth %d)",
		profile.TotalElements, len(profile.Types), profile.MaxDepth))
	if profile.Partial {
		output.Info("Profile is partial: " + profile.PartialReason)
	}
	return profile, nil
}

// mustLoadConfig loads wren.yml from the working directory, exiting with a
// styled error on invalid configuration.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(".")
	if err != nil {
		output.Error(err.Error())
		os.Exit(1)
	}
	if config.Exists(".") {
		output.Verbose("Loaded wren.yml")
	}
	return cfg
}
