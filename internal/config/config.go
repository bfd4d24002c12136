// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvDatabaseURL is the environment variable consulted when no database URL
// is configured.
const EnvDatabaseURL = "DATABASE_URL"

// Config represents the CLI configuration that can be loaded from a JSON or
// YAML file. All fields are optional; missing values use defaults or must be
// provided via CLI flags.
type Config struct {
	// Paths
	Source string `json:"source,omitempty" yaml:"source,omitempty"`   // Raw postings .xlsx or .csv
	Sheet  string `json:"sheet,omitempty" yaml:"sheet,omitempty"`     // Workbook sheet, first if empty
	OutDir string `json:"out_dir,omitempty" yaml:"out_dir,omitempty"` // Directory of exported CSV tables
	Rules  string `json:"rules,omitempty" yaml:"rules,omitempty"`     // Normalization rules file

	// Database
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`                                // Postgres URL or SQLite path
	Driver      string `json:"driver,omitempty" yaml:"driver,omitempty" validate:"omitempty,oneof=postgres sqlite"` // Sink driver

	// Behavior
	InitSchema    bool `json:"init_schema,omitempty" yaml:"init_schema,omitempty"`     // Create missing tables before loading
	Reset         bool `json:"reset,omitempty" yaml:"reset,omitempty"`                 // Drop and recreate tables before loading
	Transactional bool `json:"transactional,omitempty" yaml:"transactional,omitempty"` // Roll back every table on the first failure
	Verbose       bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`             // Print detailed debug information
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension. Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed %s=%s (got %q)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Rules != "" {
		if _, err := os.Stat(c.Rules); os.IsNotExist(err) {
			return fmt.Errorf("config error: rules file not found: %s", c.Rules)
		}
	}

	if c.Source != "" {
		switch strings.ToLower(filepath.Ext(c.Source)) {
		case ".xlsx", ".xlsm", ".csv":
		default:
			return fmt.Errorf("config error: 'source' must be an .xlsx or .csv file: %s", c.Source)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Source == "" {
		result.Source = defaults.Source
	}
	if result.Sheet == "" {
		result.Sheet = defaults.Sheet
	}
	if result.OutDir == "" {
		result.OutDir = defaults.OutDir
	}
	if result.Rules == "" {
		result.Rules = defaults.Rules
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Driver == "" {
		result.Driver = defaults.Driver
	}

	// Bool fields: a true default is sticky, since unset and false look the same
	result.InitSchema = result.InitSchema || defaults.InitSchema
	result.Reset = result.Reset || defaults.Reset
	result.Transactional = result.Transactional || defaults.Transactional
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

// WithEnv fills DatabaseURL from the environment when it is empty.
func (c Config) WithEnv() Config {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv(EnvDatabaseURL)
	}
	return c
}

// newValidator reports fields by their JSON name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
