package app

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/spectra-cube/internal/dsp"
	"github.com/roman-kulish/spectra-cube/internal/export"
	"github.com/roman-kulish/spectra-cube/internal/spectra"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Input    string         `yaml:"input"`
	Query    QueryConfig    `yaml:"query"`
	Exports  []ExportConfig `yaml:"exports"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel        string `yaml:"logLevel"`
	Workers         int    `yaml:"workers"`
	MetricsTextfile string `yaml:"metricsTextfile"`

	level slog.Level
}

// Level returns the parsed log level.
func (s *Settings) Level() slog.Level {
	return s.level
}

// QueryConfig represents the selection and the products to compute
type QueryConfig struct {
	spectra.Options `yaml:",inline"`

	Products []string `yaml:"products"`
}

// ExportConfig represents a single export target
type ExportConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
	Level  string `yaml:"level"` // archive compression: fastest, default, better or best

	format export.Format
	level  zstd.EncoderLevel
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Config
	if err = dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the configuration and resolves the values given as text.
func (c *Config) Validate() error {
	if c.Settings.LogLevel != "" {
		if err := c.Settings.level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
			return fmt.Errorf("invalid log level %q", c.Settings.LogLevel)
		}
	}
	if c.Settings.Workers < 0 {
		return fmt.Errorf("invalid number of workers: %d", c.Settings.Workers)
	}
	if c.Input == "" {
		return errors.New("input file is required")
	}
	if _, err := dsp.ParseProducts(c.Query.Products...); err != nil {
		return err
	}
	if len(c.Exports) == 0 {
		return errors.New("no exports specified in configuration")
	}

	seen := make(map[string]struct{}, len(c.Exports))
	for i := range c.Exports {
		e := &c.Exports[i]

		f, err := export.ParseFormat(e.Format)
		if err != nil {
			return fmt.Errorf("export %d: %w", i, err)
		}
		if e.Path == "" {
			return fmt.Errorf("export %d: path is required", i)
		}
		if _, ok := seen[e.Path]; ok {
			return fmt.Errorf("export %d: path %s already used", i, e.Path)
		}
		seen[e.Path] = struct{}{}
		e.format = f

		e.level = zstd.SpeedDefault
		if e.Level != "" {
			if f != export.FormatArchive {
				return fmt.Errorf("export %d: compression level is only supported by the archive format", i)
			}
			ok, level := zstd.EncoderLevelFromString(e.Level)
			if !ok {
				return fmt.Errorf("export %d: unknown compression level %q", i, e.Level)
			}
			e.level = level
		}
	}
	return nil
}
