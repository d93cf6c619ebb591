package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"trimlcov/internal/lcov"
)

// Config holds the keyword sets used by a filtering pass.
type Config struct {
	LineKeywords   lcov.KeywordSet
	BranchKeywords lcov.KeywordSet
}

type fileConfig struct {
	Suppress struct {
		// Pointers distinguish an absent key (keep defaults) from an empty list.
		Line   *[]string `yaml:"line"`
		Branch *[]string `yaml:"branch"`
	} `yaml:"suppress"`
}

// Default returns the compiled-in keyword sets.
func Default() *Config {
	return &Config{
		LineKeywords:   lcov.DefaultLineKeywords(),
		BranchKeywords: lcov.DefaultBranchKeywords(),
	}
}

// Load reads a YAML config file. An empty path returns the defaults.
// Keys present in the file replace the corresponding default set.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.Suppress.Line != nil {
		cfg.LineKeywords = lcov.KeywordSet(*fc.Suppress.Line)
	}
	if fc.Suppress.Branch != nil {
		cfg.BranchKeywords = lcov.KeywordSet(*fc.Suppress.Branch)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects empty keywords in either set.
func (c *Config) Validate() error {
	if err := c.LineKeywords.Validate(); err != nil {
		return fmt.Errorf("suppress.line: %w", err)
	}
	if err := c.BranchKeywords.Validate(); err != nil {
		return fmt.Errorf("suppress.branch: %w", err)
	}
	return nil
}
