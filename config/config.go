// Package config loads the .deadexports.yaml project configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project root.
const FileName = ".deadexports.yaml"

type (
	// Config represents the project configuration.
	Config struct {
		// EntryFiles name the production entry points, relative to the
		// project root. Shell-style patterns are allowed.
		EntryFiles []string `yaml:"entryFiles"`
		// FilePatterns restricts the analyzed file set. Empty means all
		// supported source files.
		FilePatterns []string `yaml:"filePatterns"`
		// Include toggles issue categories. Nil enables all of them.
		Include *Include `yaml:"include"`
		// RespectPublicTag exempts declarations documented with a public tag.
		RespectPublicTag bool `yaml:"respectPublicTag"`
		// ShowProgress renders progress lines while analyzing.
		ShowProgress bool `yaml:"showProgress"`
	}

	// Include holds the independent per-category enable flags.
	Include struct {
		Files      bool `yaml:"files"`
		Exports    bool `yaml:"exports"`
		Types      bool `yaml:"types"`
		Members    bool `yaml:"members"`
		Duplicates bool `yaml:"duplicates"`
	}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		EntryFiles: []string{"index.ts", "src/index.ts", "src/main.ts"},
	}
}

// Load reads and validates the configuration from the given path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads configuration from path, falling back to Default
// when the file does not exist. Parse and validation errors still fail.
func LoadWithFallback(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if len(c.EntryFiles) == 0 {
		return fmt.Errorf("entryFiles cannot be empty")
	}
	for _, pattern := range c.EntryFiles {
		if pattern == "" {
			return fmt.Errorf("entryFiles cannot contain empty patterns")
		}
	}
	return nil
}
