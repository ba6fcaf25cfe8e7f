package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eksmo-labs/precheck/rules"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "app", cfg.Imports.Package)
	assert.Equal(t, "eksmo_src.eksmo_types", cfg.Imports.Allow)
	assert.Equal(t, "*_flow.py", cfg.Flows.FilePattern)
	assert.Equal(t, "Flow", cfg.Flows.ClassSuffix)
	assert.Equal(t, "total_usage", cfg.Flows.KeywordParam)
	assert.Equal(t, 1000, cfg.Limits.MaxLines)
	assert.Equal(t, 15, cfg.Readme.DescriptionLines)
	assert.Equal(t, 10, cfg.Readme.DescriptionMinLen)
	assert.Len(t, cfg.Layout.Required, 10)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty required", func(c *Config) { c.Layout.Required = nil }},
		{"empty flows dir", func(c *Config) { c.Flows.Dir = "" }},
		{"empty pattern", func(c *Config) { c.Flows.FilePattern = "" }},
		{"empty suffix", func(c *Config) { c.Flows.ClassSuffix = "" }},
		{"empty method", func(c *Config) { c.Flows.Method = "" }},
		{"empty entry", func(c *Config) { c.Entry.Path = "" }},
		{"empty package", func(c *Config) { c.Imports.Package = "" }},
		{"package is a path", func(c *Config) { c.Imports.Package = "app/sub" }},
		{"zero max lines", func(c *Config) { c.Limits.MaxLines = 0 }},
		{"zero description window", func(c *Config) { c.Readme.DescriptionLines = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMergeOverridesNonZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{
		Repo:   RepoConfig{Path: "/tmp/project"},
		Flows:  FlowsConfig{ClassSuffix: "Pipeline"},
		Readme: ReadmeConfig{DescriptionLines: 5},
		Limits: LimitsConfig{MaxLines: 500},
	})

	assert.Equal(t, "/tmp/project", cfg.Repo.Path)
	assert.Equal(t, "Pipeline", cfg.Flows.ClassSuffix)
	assert.Equal(t, 500, cfg.Limits.MaxLines)
	assert.Equal(t, 5, cfg.Readme.DescriptionLines)
	// Untouched sections keep their defaults.
	assert.Equal(t, "*_flow.py", cfg.Flows.FilePattern)
	assert.Equal(t, "app", cfg.Imports.Package)
	assert.Equal(t, 10, cfg.Readme.DescriptionMinLen)
}

func TestMergeNilIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "precheck.yaml")

	cfg := DefaultConfig()
	cfg.Flows.ClassSuffix = "Pipeline"
	cfg.Layout.Required = []rules.RequiredEntry{{Path: "src", Dir: true}}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Pipeline", loaded.Flows.ClassSuffix)
	require.Len(t, loaded.Layout.Required, 1)
	assert.Equal(t, "src", loaded.Layout.Required[0].Path)
	assert.True(t, loaded.Layout.Required[0].Dir)
}

func TestLoaderFindsProjectConfigUpTree(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	cfg := &Config{Flows: FlowsConfig{ClassSuffix: "Pipeline"}}
	require.NoError(t, cfg.SaveToFile(filepath.Join(root, ProjectConfigFile)))

	loaded, err := NewLoader(nil).Load(sub)
	require.NoError(t, err)

	assert.Equal(t, "Pipeline", loaded.Flows.ClassSuffix)
	// Defaults fill everything the project file leaves out.
	assert.Equal(t, "total_usage", loaded.Flows.KeywordParam)
	assert.Equal(t, sub, loaded.Repo.Path)
}

func TestLoaderWithoutProjectConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	loaded, err := NewLoader(nil).Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, loaded.Repo.Path)
	assert.Equal(t, "app", loaded.Imports.Package)
}
