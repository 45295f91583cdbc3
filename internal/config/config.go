// Package config loads wren.yml: the tuning surface for sampling budgets,
// relationship attributes, required-child completion rules, and schema
// generation. A missing file yields defaults; a present-but-invalid file
// is a hard error with suggestions.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/simonhull/firebird-suite/wren/internal/analyzer"
	"github.com/simonhull/firebird-suite/wren/internal/sampler"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the parsed and validated wren.yml.
type Config struct {
	Sample struct {
		MaxElements           int
		Strategy              string
		PreserveAllTypes      bool
		PreserveAttributes    bool
		PreserveRelationships bool
		Seed                  int64
		SafetyMultiplier      int
	}
	Analyze struct {
		MaxDepth          int
		MaxElements       int
		ExampleCap        int
		ElementTypeLimits map[string]int
	}
	Relationships struct {
		Attributes   []string
		IdentityAttr string
	}
	RequiredChildren map[string][]string
	Schema           struct {
		TargetNamespace string
		ElementForm     string
		AttributeForm   string
	}
}

// ValidationError reports one invalid config entry with context.
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid config at %s: %s", e.Field, e.Message)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(". Suggestion: %s", e.Suggestion)
	}
	return msg
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "found %d config errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&buf, "  %d. %s\n", i+1, err.Error())
	}
	return buf.String()
}

// Load reads wren.yml from dir, applying defaults and environment
// overrides (WREN_ prefix). A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("wren")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.AutomaticEnv()
	v.SetEnvPrefix("WREN")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading wren.yml: %w", err)
		}
	}

	cfg := &Config{}
	cfg.Sample.MaxElements = v.GetInt("sample.max_elements")
	cfg.Sample.Strategy = v.GetString("sample.strategy")
	cfg.Sample.PreserveAllTypes = v.GetBool("sample.preserve_all_types")
	cfg.Sample.PreserveAttributes = v.GetBool("sample.preserve_attributes")
	cfg.Sample.PreserveRelationships = v.GetBool("sample.preserve_relationships")
	cfg.Sample.Seed = v.GetInt64("sample.seed")
	cfg.Sample.SafetyMultiplier = v.GetInt("sample.safety_multiplier")

	cfg.Analyze.MaxDepth = v.GetInt("analyze.max_depth")
	cfg.Analyze.MaxElements = v.GetInt("analyze.max_elements")
	cfg.Analyze.ExampleCap = v.GetInt("analyze.example_cap")

	cfg.Relationships.Attributes = v.GetStringSlice("relationships.attributes")
	cfg.Relationships.IdentityAttr = v.GetString("relationships.identity_attr")

	// Viper lowercases map keys; tag names are case-sensitive, so the two
	// tag-keyed sections come from a direct yaml pass over the same file.
	if err := loadTagMaps(dir, cfg); err != nil {
		return nil, err
	}

	cfg.Schema.TargetNamespace = v.GetString("schema.target_namespace")
	cfg.Schema.ElementForm = v.GetString("schema.element_form")
	cfg.Schema.AttributeForm = v.GetString("schema.attribute_form")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exists reports whether dir contains a wren.yml.
func Exists(dir string) bool {
	_, err := os.Stat(dir + "/wren.yml")
	return err == nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample.max_elements", 100)
	v.SetDefault("sample.strategy", "preserve-all-types")
	v.SetDefault("sample.preserve_all_types", true)
	v.SetDefault("sample.preserve_attributes", true)
	v.SetDefault("sample.preserve_relationships", true)
	v.SetDefault("sample.seed", 0)
	v.SetDefault("sample.safety_multiplier", sampler.DefaultSafetyMultiplier)

	v.SetDefault("analyze.max_depth", analyzer.DefaultMaxDepth)
	v.SetDefault("analyze.max_elements", analyzer.DefaultMaxElements)
	v.SetDefault("analyze.example_cap", analyzer.DefaultExampleCap)

	v.SetDefault("relationships.attributes", sampler.DefaultRelationshipAttrs)
	v.SetDefault("relationships.identity_attr", sampler.DefaultIdentityAttr)

	v.SetDefault("schema.element_form", "qualified")
	v.SetDefault("schema.attribute_form", "unqualified")
}

// Validate checks a loaded config and collects every problem at once.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Sample.MaxElements <= 0 {
		errs = append(errs, ValidationError{
			Field:      "sample.max_elements",
			Message:    fmt.Sprintf("must be positive, got %d", cfg.Sample.MaxElements),
			Suggestion: "use a value like 100",
		})
	}
	if _, err := sampler.ParseStrategy(cfg.Sample.Strategy); err != nil {
		errs = append(errs, ValidationError{
			Field:      "sample.strategy",
			Message:    fmt.Sprintf("unknown strategy '%s'", cfg.Sample.Strategy),
			Suggestion: "use one of: preserve-all-types, balanced, random, first",
		})
	}
	if cfg.Analyze.MaxDepth <= 0 {
		errs = append(errs, ValidationError{
			Field:      "analyze.max_depth",
			Message:    fmt.Sprintf("must be positive, got %d", cfg.Analyze.MaxDepth),
			Suggestion: "the default traversal ceiling is 100",
		})
	}
	if cfg.Analyze.ExampleCap <= 0 {
		errs = append(errs, ValidationError{
			Field:      "analyze.example_cap",
			Message:    fmt.Sprintf("must be positive, got %d", cfg.Analyze.ExampleCap),
			Suggestion: "the default per-type example cap is 5",
		})
	}
	for tag, limit := range cfg.Analyze.ElementTypeLimits {
		if limit <= 0 {
			errs = append(errs, ValidationError{
				Field:      fmt.Sprintf("analyze.element_type_limits.%s", tag),
				Message:    fmt.Sprintf("must be positive, got %d", limit),
				Suggestion: "remove the entry to use the global example_cap",
			})
		}
	}
	switch cfg.Schema.ElementForm {
	case "qualified", "unqualified":
	default:
		errs = append(errs, ValidationError{
			Field:      "schema.element_form",
			Message:    fmt.Sprintf("invalid form '%s'", cfg.Schema.ElementForm),
			Suggestion: "use 'qualified' or 'unqualified'",
		})
	}
	switch cfg.Schema.AttributeForm {
	case "qualified", "unqualified":
	default:
		errs = append(errs, ValidationError{
			Field:      "schema.attribute_form",
			Message:    fmt.Sprintf("invalid form '%s'", cfg.Schema.AttributeForm),
			Suggestion: "use 'qualified' or 'unqualified'",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func loadTagMaps(dir string, cfg *Config) error {
	data, err := os.ReadFile(dir + "/wren.yml")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading wren.yml: %w", err)
	}

	var raw struct {
		Analyze struct {
			ElementTypeLimits map[string]int `yaml:"element_type_limits"`
		} `yaml:"analyze"`
		RequiredChildren map[string][]string `yaml:"required_children"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing wren.yml: %w", err)
	}

	cfg.Analyze.ElementTypeLimits = raw.Analyze.ElementTypeLimits
	cfg.RequiredChildren = raw.RequiredChildren
	return nil
}
