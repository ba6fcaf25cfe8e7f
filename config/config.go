// Package config provides configuration loading and management for precheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eksmo-labs/precheck/rules"
)

// Config represents the complete precheck configuration. The defaults
// mirror the expected project layout; a project-level precheck.yaml can
// override individual sections.
type Config struct {
	Repo    RepoConfig    `yaml:"repo"`
	Layout  LayoutConfig  `yaml:"layout"`
	Flows   FlowsConfig   `yaml:"flows"`
	Entry   EntryConfig   `yaml:"entry"`
	Imports ImportsConfig `yaml:"imports"`
	Readme  ReadmeConfig  `yaml:"readme"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// RepoConfig configures the project root.
type RepoConfig struct {
	// Path is the project root path (defaults to the current directory)
	Path string `yaml:"path"`
}

// LayoutConfig configures the required directory structure.
type LayoutConfig struct {
	// Required lists the paths that must exist, in check order
	Required []rules.RequiredEntry `yaml:"required"`
	// RestrictedDir is the directory whose direct contents are allow-listed
	RestrictedDir string `yaml:"restricted_dir"`
	// AllowedFiles are the file names permitted directly in RestrictedDir
	AllowedFiles []string `yaml:"allowed_files"`
	// AllowedDirs are the directory names permitted in RestrictedDir
	AllowedDirs []string `yaml:"allowed_dirs"`
}

// FlowsConfig configures the flow-module convention.
type FlowsConfig struct {
	// Dir is the flows directory relative to the project root
	Dir string `yaml:"dir"`
	// FilePattern is the glob every flow file must match
	FilePattern string `yaml:"file_pattern"`
	// ExtraFiles are non-flow files tolerated in the flows directory
	ExtraFiles []string `yaml:"extra_files"`
	// ClassSuffix is the required class-name suffix
	ClassSuffix string `yaml:"class_suffix"`
	// Method is the required method name
	Method string `yaml:"method"`
	// KeywordParam is the required keyword-only parameter of Method
	KeywordParam string `yaml:"keyword_param"`
}

// EntryConfig configures the entry-point check.
type EntryConfig struct {
	// Path is the demo module relative to the project root
	Path string `yaml:"path"`
}

// ImportsConfig configures the import boundary audit.
type ImportsConfig struct {
	// Package is the self-contained package name
	Package string `yaml:"package"`
	// Allow is the one fully-qualified import path exempt from the rule
	Allow string `yaml:"allow"`
}

// ReadmeConfig configures the documentation check.
type ReadmeConfig struct {
	// Path is the documentation file relative to the project root
	Path string `yaml:"path"`
	// InstallKeywords mark an installation section
	InstallKeywords []string `yaml:"install_keywords"`
	// RunKeywords mark a run/usage section
	RunKeywords []string `yaml:"run_keywords"`
	// DescriptionLines is how many leading lines are searched for a description
	DescriptionLines int `yaml:"description_lines"`
	// DescriptionMinLen is the minimum stripped length of a description line
	DescriptionMinLen int `yaml:"description_min_len"`
}

// LimitsConfig configures size ceilings.
type LimitsConfig struct {
	// MaxLines is the per-file line ceiling for Python sources
	MaxLines int `yaml:"max_lines"`
	// SkipDirs are path components excluded from the ceiling scan
	SkipDirs []string `yaml:"skip_dirs"`
}

// DefaultConfig returns a Config matching the canonical project layout.
func DefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			Path: "", // Resolved by the loader
		},
		Layout: LayoutConfig{
			Required: []rules.RequiredEntry{
				{Path: "app", Dir: true},
				{Path: "app/outsource", Dir: true},
				{Path: "app/outsource/flows", Dir: true},
				{Path: "app/consts.py"},
				{Path: "demonstration", Dir: true},
				{Path: "demonstration/main.py"},
				{Path: "eksmo_src", Dir: true},
				{Path: ".pre-commit-config.yaml"},
				{Path: "pyproject.toml"},
				{Path: "README.md"},
			},
			RestrictedDir: "app",
			AllowedFiles:  []string{"consts.py", "__init__.py"},
			AllowedDirs:   []string{"outsource"},
		},
		Flows: FlowsConfig{
			Dir:          "app/outsource/flows",
			FilePattern:  "*_flow.py",
			ExtraFiles:   []string{"__init__.py"},
			ClassSuffix:  "Flow",
			Method:       "run",
			KeywordParam: "total_usage",
		},
		Entry: EntryConfig{
			Path: "demonstration/main.py",
		},
		Imports: ImportsConfig{
			Package: "app",
			Allow:   "eksmo_src.eksmo_types",
		},
		Readme: ReadmeConfig{
			Path: "README.md",
			InstallKeywords: []string{
				"установка", "installation", "setup", "инсталляция", "install",
			},
			RunKeywords: []string{
				"запуск", "run", "usage", "использование", "демонстрация",
			},
			DescriptionLines:  15,
			DescriptionMinLen: 10,
		},
		Limits: LimitsConfig{
			MaxLines: 1000,
			SkipDirs: []string{"venv", "env"},
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Layout.Required) == 0 {
		return fmt.Errorf("layout.required must not be empty")
	}
	if c.Flows.Dir == "" {
		return fmt.Errorf("flows.dir is required")
	}
	if c.Flows.FilePattern == "" {
		return fmt.Errorf("flows.file_pattern is required")
	}
	if c.Flows.ClassSuffix == "" {
		return fmt.Errorf("flows.class_suffix is required")
	}
	if c.Flows.Method == "" {
		return fmt.Errorf("flows.method is required")
	}
	if c.Entry.Path == "" {
		return fmt.Errorf("entry.path is required")
	}
	if c.Imports.Package == "" {
		return fmt.Errorf("imports.package is required")
	}
	if strings.ContainsAny(c.Imports.Package, "/\\") {
		return fmt.Errorf("imports.package must be a top-level name, not a path")
	}
	if c.Readme.DescriptionLines <= 0 {
		return fmt.Errorf("readme.description_lines must be positive")
	}
	if c.Limits.MaxLines <= 0 {
		return fmt.Errorf("limits.max_lines must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}

	if len(other.Layout.Required) > 0 {
		c.Layout.Required = other.Layout.Required
	}
	if other.Layout.RestrictedDir != "" {
		c.Layout.RestrictedDir = other.Layout.RestrictedDir
	}
	if len(other.Layout.AllowedFiles) > 0 {
		c.Layout.AllowedFiles = other.Layout.AllowedFiles
	}
	if len(other.Layout.AllowedDirs) > 0 {
		c.Layout.AllowedDirs = other.Layout.AllowedDirs
	}

	if other.Flows.Dir != "" {
		c.Flows.Dir = other.Flows.Dir
	}
	if other.Flows.FilePattern != "" {
		c.Flows.FilePattern = other.Flows.FilePattern
	}
	if len(other.Flows.ExtraFiles) > 0 {
		c.Flows.ExtraFiles = other.Flows.ExtraFiles
	}
	if other.Flows.ClassSuffix != "" {
		c.Flows.ClassSuffix = other.Flows.ClassSuffix
	}
	if other.Flows.Method != "" {
		c.Flows.Method = other.Flows.Method
	}
	if other.Flows.KeywordParam != "" {
		c.Flows.KeywordParam = other.Flows.KeywordParam
	}

	if other.Entry.Path != "" {
		c.Entry.Path = other.Entry.Path
	}

	if other.Imports.Package != "" {
		c.Imports.Package = other.Imports.Package
	}
	if other.Imports.Allow != "" {
		c.Imports.Allow = other.Imports.Allow
	}

	if other.Readme.Path != "" {
		c.Readme.Path = other.Readme.Path
	}
	if len(other.Readme.InstallKeywords) > 0 {
		c.Readme.InstallKeywords = other.Readme.InstallKeywords
	}
	if len(other.Readme.RunKeywords) > 0 {
		c.Readme.RunKeywords = other.Readme.RunKeywords
	}
	if other.Readme.DescriptionLines != 0 {
		c.Readme.DescriptionLines = other.Readme.DescriptionLines
	}
	if other.Readme.DescriptionMinLen != 0 {
		c.Readme.DescriptionMinLen = other.Readme.DescriptionMinLen
	}

	if other.Limits.MaxLines != 0 {
		c.Limits.MaxLines = other.Limits.MaxLines
	}
	if len(other.Limits.SkipDirs) > 0 {
		c.Limits.SkipDirs = other.Limits.SkipDirs
	}
}
