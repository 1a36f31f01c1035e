// Package config loads movielist settings from YAML with built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all movielist configuration.
type Config struct {
	// Input is the movies.list file (optionally .gz).
	Input string `yaml:"input"`
	// Encoding of Input: latin1 (IMDB default) or utf-8.
	Encoding string `yaml:"encoding"`
	// Workers decomposing lines in parallel.
	Workers int `yaml:"workers"`

	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	IDs      IDsConfig      `yaml:"ids"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig names the TSV outputs. Empty paths disable an output.
type OutputConfig struct {
	Movies string `yaml:"movies"`
	Years  string `yaml:"years"`
}

// DatabaseConfig configures the optional SQLite store.
type DatabaseConfig struct {
	Path      string `yaml:"path"`
	BatchSize int    `yaml:"batch_size"`
}

// IDsConfig configures identifier persistence.
type IDsConfig struct {
	// Dictionary is loaded into the registry before the run.
	Dictionary string `yaml:"dictionary"`
	// Export receives the registry contents after the run.
	Export string `yaml:"export"`
	// StartMark is the high-water mark of an empty registry.
	StartMark int `yaml:"start_mark"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input:    "movies.list",
		Encoding: "latin1",
		Workers:  4,
		Output: OutputConfig{
			Movies: "movies.tsv",
			Years:  "movies_years.tsv",
		},
		Database: DatabaseConfig{
			BatchSize: 500,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks settings that would otherwise fail mid-run.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Input) == "" {
		errs = append(errs, errors.New("input must be set"))
	}
	switch strings.ToLower(c.Encoding) {
	case "latin1", "iso-8859-1", "utf-8", "utf8":
	default:
		errs = append(errs, fmt.Errorf("unsupported encoding %q", c.Encoding))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Database.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("database.batch_size must be at least 1, got %d", c.Database.BatchSize))
	}
	if c.IDs.StartMark < 0 {
		errs = append(errs, fmt.Errorf("ids.start_mark must not be negative, got %d", c.IDs.StartMark))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	if c.Output.Movies == "" && c.Output.Years != "" {
		errs = append(errs, errors.New("output.years requires output.movies"))
	}
	return errors.Join(errs...)
}
