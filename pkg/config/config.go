// Package config holds the settings shared by the preprocess and server
// commands. Values come from built-in defaults, overlaid by an optional YAML
// file, overlaid by command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the YAML configuration shared by the preprocess and server
// commands. Fields left out of the file keep their Default values.
type Config struct {
	Preprocess Preprocess `yaml:"preprocess"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Preprocess configures graph building and contraction.
type Preprocess struct {
	Weighting        string   `yaml:"weighting"`
	TowerNodes       bool     `yaml:"tower-nodes"`
	LargestComponent bool     `yaml:"largest-component"`
	Compress         bool     `yaml:"compress"`
	MaxSettled       int      `yaml:"max-settled"`
	Priority         Priority `yaml:"priority"`
}

// Priority holds the coefficients of the node ordering score.
type Priority struct {
	EdgeDifference      float64 `yaml:"edge-difference"`
	OriginalEdges       float64 `yaml:"original-edges"`
	ContractedNeighbors float64 `yaml:"contracted-neighbors"`
	Level               float64 `yaml:"level"`
}

// Server configures the HTTP API.
type Server struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read-timeout"`
	WriteTimeout  time.Duration `yaml:"write-timeout"`
	QueryTimeout  time.Duration `yaml:"query-timeout"`
	MaxConcurrent int           `yaml:"max-concurrent"`
	CORSOrigin    string        `yaml:"cors-origin"`
	MaxSnapMeters float64       `yaml:"max-snap-meters"`
}

// Logging selects the log level ("debug", "info", "warn", "error") and
// format ("text" or "json").
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Preprocess: Preprocess{
			Weighting:        "fastest",
			TowerNodes:       true,
			LargestComponent: true,
			MaxSettled:       500,
			Priority: Priority{
				EdgeDifference:      10,
				OriginalEdges:       1,
				ContractedNeighbors: 1,
			},
		},
		Server: Server{
			Addr:          ":8080",
			ReadTimeout:   5 * time.Second,
			WriteTimeout:  5 * time.Second,
			QueryTimeout:  5 * time.Second,
			MaxConcurrent: runtime.NumCPU() * 2,
			MaxSnapMeters: 500,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults. Keys missing from the
// file keep their default value. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Preprocess.Weighting {
	case "fastest", "shortest":
	default:
		return fmt.Errorf("%w: unknown weighting %q", ErrInvalid, c.Preprocess.Weighting)
	}
	if c.Preprocess.MaxSettled <= 0 {
		return fmt.Errorf("%w: max-settled must be positive, got %d", ErrInvalid, c.Preprocess.MaxSettled)
	}
	if c.Server.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: max-concurrent must be positive, got %d", ErrInvalid, c.Server.MaxConcurrent)
	}
	if c.Server.QueryTimeout <= 0 {
		return fmt.Errorf("%w: query-timeout must be positive", ErrInvalid)
	}
	if c.Server.MaxSnapMeters <= 0 {
		return fmt.Errorf("%w: max-snap-meters must be positive", ErrInvalid)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}
