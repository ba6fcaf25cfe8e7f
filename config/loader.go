package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "precheck.yaml"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (precheck.yaml in startDir or parent directories)
// Flag overrides are applied by the caller on top of the result.
func (l *Loader) Load(startDir string) (*Config, error) {
	config := DefaultConfig()

	projectConfigPath := l.findProjectConfig(startDir)
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config",
				slog.String("path", projectConfigPath),
				slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if config.Repo.Path == "" {
		config.Repo.Path = startDir
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// findProjectConfig searches for precheck.yaml in startDir and parents.
func (l *Loader) findProjectConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
