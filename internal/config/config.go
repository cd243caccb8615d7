// Package config reads the rulecc build configuration from YAML.
//
// A config file is optional. Every field has a default, and command-line
// flags override whatever the file sets.
//
//	builder: flow                 # flow | pattern
//	property_reactivity: allowed  # always | allowed | disabled
//	workers: 4
//	load_mode: fail-fast          # fail-fast | collect-all
//	store:
//	  path: build/rules.db        # relative to the config file
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rulecc/internal/compiler"
	"github.com/roach88/rulecc/internal/rulebase"
	"github.com/roach88/rulecc/internal/ruledef"
)

// Load modes accepted in load_mode.
const (
	LoadModeFailFast   = "fail-fast"
	LoadModeCollectAll = "collect-all"
)

// Config is the build configuration.
type Config struct {
	Builder            string `yaml:"builder"`
	PropertyReactivity string `yaml:"property_reactivity"`
	Workers            int    `yaml:"workers"`
	LoadMode           string `yaml:"load_mode"`
	Store              Store  `yaml:"store"`
}

// Store configures where build sessions are persisted. An empty Path
// disables persistence.
type Store struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Builder:            string(compiler.BuilderFlow),
		PropertyReactivity: string(compiler.ReactivityAllowed),
		Workers:            rulebase.DefaultWorkers,
		LoadMode:           LoadModeFailFast,
	}
}

// Load reads a YAML config file over the defaults.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or holds invalid values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// An empty file decodes to io.EOF and keeps the defaults.
	if err := decoder.Decode(cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Store.Path != "" && !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(filepath.Dir(path), cfg.Store.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field holds a supported value.
func (c *Config) Validate() error {
	if _, err := compiler.ParseBuilderKind(c.Builder); err != nil {
		return err
	}
	if _, err := compiler.ParseReactivityPolicy(c.PropertyReactivity); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := c.Mode(); err != nil {
		return err
	}
	return nil
}

// Mode returns the rule definition load mode.
func (c *Config) Mode() (ruledef.LoadMode, error) {
	switch c.LoadMode {
	case "", LoadModeFailFast:
		return ruledef.LoadModeFailFast, nil
	case LoadModeCollectAll:
		return ruledef.LoadModeCollectAll, nil
	}
	return 0, fmt.Errorf("unknown load mode %q", c.LoadMode)
}

// SessionOptions returns the build session options the config selects.
func (c *Config) SessionOptions() ([]rulebase.Option, error) {
	builder, err := compiler.ParseBuilderKind(c.Builder)
	if err != nil {
		return nil, err
	}
	policy, err := compiler.ParseReactivityPolicy(c.PropertyReactivity)
	if err != nil {
		return nil, err
	}
	return []rulebase.Option{
		rulebase.WithBuilder(builder),
		rulebase.WithReactivity(policy),
		rulebase.WithWorkers(c.Workers),
	}, nil
}
