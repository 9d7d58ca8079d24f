// Package config loads run configuration from .stringle.yaml or
// .stringle.hcl files. Parsers register themselves and are picked by
// file extension.
package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🔄 Replacement is one search/replace pair from a config file.
type Replacement struct {
	Search  string `json:"search" yaml:"search" hcl:"search"`
	Replace string `json:"replace" yaml:"replace" hcl:"replace"`
}

// 📚 Config is the complete run configuration. Boolean fields are named
// for the non-default direction, so a zero value yields the documented
// defaults: case-sensitive, literal matching, length-sorted, persisted.
type Config struct {
	Root         string        `json:"root,omitempty" yaml:"root,omitempty" hcl:"root,optional"`
	Replacements []Replacement `json:"replacements,omitempty" yaml:"replacements,omitempty" hcl:"replacement,block"`

	IgnoreCase bool `json:"ignore_case,omitempty" yaml:"ignore_case,omitempty" hcl:"ignore_case,optional"`
	UseRegex   bool `json:"use_regex,omitempty" yaml:"use_regex,omitempty" hcl:"use_regex,optional"`
	NoSort     bool `json:"no_sort,omitempty" yaml:"no_sort,omitempty" hcl:"no_sort,optional"`
	DryRun     bool `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
	Workers    int  `json:"workers,omitempty" yaml:"workers,omitempty" hcl:"workers,optional"`

	IgnoreDirs        []string `json:"ignore_dirs,omitempty" yaml:"ignore_dirs,omitempty" hcl:"ignore_dirs,optional"`
	IgnoreFiles       []string `json:"ignore_files,omitempty" yaml:"ignore_files,omitempty" hcl:"ignore_files,optional"`
	IgnoreExtensions  []string `json:"ignore_extensions,omitempty" yaml:"ignore_extensions,omitempty" hcl:"ignore_extensions,optional"`
	IncludeExtensions []string `json:"include_extensions,omitempty" yaml:"include_extensions,omitempty" hcl:"include_extensions,optional"`
	IgnoreGlobs       []string `json:"ignore_globs,omitempty" yaml:"ignore_globs,omitempty" hcl:"ignore_globs,optional"`
	UseGitignore      bool     `json:"use_gitignore,omitempty" yaml:"use_gitignore,omitempty" hcl:"use_gitignore,optional"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	for i, r := range cfg.Replacements {
		if r.Search == "" {
			return errors.Errorf("replacement %d: search is required", i)
		}
	}
	if cfg.Workers < 0 {
		return errors.Errorf("workers must not be negative")
	}
	return nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(strings.NewReader(string(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var cfg Config
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &cfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &cfg, nil
}
