// Package config loads interpreter settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of the interpreter.
type Config struct {
	// IncludePath lists directories searched by include/require after the
	// including file's own directory.
	IncludePath []string `yaml:"include_path"`
	// MaxIncludeDepth bounds include nesting; exceeding it is a fatal error.
	MaxIncludeDepth int `yaml:"max_include_depth"`
	// HistoryFile is where the REPL stores its input history.
	HistoryFile string `yaml:"history_file"`
}

// DefaultMaxIncludeDepth is the include nesting bound used when no
// configuration file overrides it.
const DefaultMaxIncludeDepth = 64

// Default returns the settings used when no config file is given.
func Default() *Config {
	history := ".phplite_history"
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".phplite_history")
	}
	return &Config{
		IncludePath:     []string{"."},
		MaxIncludeDepth: DefaultMaxIncludeDepth,
		HistoryFile:     history,
	}
}

// Load reads a YAML config file and merges it over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw Config
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil // empty file keeps the defaults
		}
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(raw.IncludePath) > 0 {
		cfg.IncludePath = raw.IncludePath
	}
	if raw.MaxIncludeDepth != 0 {
		cfg.MaxIncludeDepth = raw.MaxIncludeDepth
	}
	if raw.HistoryFile != "" {
		cfg.HistoryFile = raw.HistoryFile
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxIncludeDepth < 1 {
		return fmt.Errorf("max_include_depth must be positive, got %d", c.MaxIncludeDepth)
	}
	for i, dir := range c.IncludePath {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("include_path[%d] must not be empty", i)
		}
	}
	return nil
}
