package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"carbonlint/logger"
	"carbonlint/tables"

	"github.com/spf13/viper"
)

// FileName is the per-project configuration file, discovered upward from the
// scanned directory.
const FileName = ".carbonlintrc.json"

var ErrInvalidConfig = errors.New("invalid configuration")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

type Config struct {
	Region          string  `json:"region" mapstructure:"region"`
	HardwareProfile string  `json:"hardwareProfile" mapstructure:"hardwareProfile"`
	PUE             float64 `json:"pue" mapstructure:"pue"`
	MaxCarbon       float64 `json:"maxCarbon" mapstructure:"maxCarbon"`
	MaxEnergy       float64 `json:"maxEnergy,omitempty" mapstructure:"maxEnergy"`
	FailOnThreshold bool    `json:"failOnThreshold" mapstructure:"failOnThreshold"`

	Exclude         []string          `json:"exclude,omitempty" mapstructure:"exclude"`
	LogLevel        string            `json:"logLevel,omitempty" mapstructure:"logLevel"`
	Concurrency     int               `json:"concurrency,omitempty" mapstructure:"concurrency"`
	MaxIOPerSecond  int               `json:"maxIOPerSecond,omitempty" mapstructure:"maxIOPerSecond"`
	OtelEndpoint    string            `json:"otelEndpoint,omitempty" mapstructure:"otelEndpoint"`
	OtelFromEnv     bool              `json:"otelFromEnv,omitempty" mapstructure:"otelFromEnv"`
	OtelHeaders     map[string]string `json:"otelHeaders,omitempty" mapstructure:"otelHeaders"`
	OtelServiceName string            `json:"otelServiceName,omitempty" mapstructure:"otelServiceName"`
	OtelTimeout     time.Duration     `json:"otelTimeout,omitempty" mapstructure:"otelTimeout"`
	OtelExportPaths bool              `json:"otelExportPaths,omitempty" mapstructure:"otelExportPaths"`

	// Runtime only.
	OutputFormat string `json:"-" mapstructure:"-"`
	OutputFile   string `json:"-" mapstructure:"-"`
	ShowProgress bool   `json:"-" mapstructure:"-"`
	SourceFile   string `json:"-" mapstructure:"-"`
}

// Default mirrors the values written by `carbonlint init`.
func Default() *Config {
	return &Config{
		Region:          tables.DefaultRegion,
		HardwareProfile: "laptop",
		PUE:             1.0,
		MaxCarbon:       100,
		MaxEnergy:       0.5,
		FailOnThreshold: false,
		Exclude:         []string{},
		LogLevel:        "warn",
		Concurrency:     runtime.NumCPU(),
		MaxIOPerSecond:  0,
		OtelHeaders:     map[string]string{},
		OtelServiceName: "carbonlint",
		OtelTimeout:     5 * time.Second,
		OutputFormat:    "text",
		ShowProgress:    true,
	}
}

// Find walks from dir up to the filesystem root and returns the first
// configuration file found.
func Find(dir string) (string, bool) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(current, FileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

// Load returns the defaults overlaid with the nearest configuration file
// above dir. A missing or unreadable file yields the defaults.
func Load(dir string) *Config {
	cfg := Default()
	path, ok := Find(dir)
	if !ok {
		return cfg
	}
	loaded, err := LoadFile(path)
	if err != nil {
		logger.Debugf("Ignoring configuration %s: %v", path, err)
		return cfg
	}
	return loaded
}

// LoadFile decodes a single configuration file over the defaults.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	cfg.SourceFile = path
	return cfg, nil
}

type persisted struct {
	Region          string  `json:"region"`
	HardwareProfile string  `json:"hardwareProfile"`
	PUE             float64 `json:"pue"`
	MaxCarbon       float64 `json:"maxCarbon"`
	FailOnThreshold bool    `json:"failOnThreshold"`
}

// Create writes cfg's persisted fields to dir/.carbonlintrc.json. An existing
// file is left untouched and created is false.
func Create(dir string, cfg *Config) (path string, created bool, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, err
	}
	path = filepath.Join(abs, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if cfg == nil {
		cfg = Default()
	}
	data, err := json.MarshalIndent(persisted{
		Region:          cfg.Region,
		HardwareProfile: cfg.HardwareProfile,
		PUE:             cfg.PUE,
		MaxCarbon:       cfg.MaxCarbon,
		FailOnThreshold: cfg.FailOnThreshold,
	}, "", "  ")
	if err != nil {
		return path, false, err
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return path, false, fmt.Errorf("write %s: %w", path, err)
	}
	return path, true, nil
}

// Validate rejects settings the scan cannot run with. Unknown regions are
// not an error here; the estimator falls back to the global average.
func (c *Config) Validate() error {
	if math.IsNaN(c.MaxCarbon) || c.MaxCarbon <= 0 {
		return &ValidationError{Field: "maxCarbon", Reason: fmt.Sprintf("must be greater than 0 (got %g)", c.MaxCarbon)}
	}
	if math.IsNaN(c.PUE) || math.IsInf(c.PUE, 0) || c.PUE < 1.0 {
		return &ValidationError{Field: "pue", Reason: fmt.Sprintf("must be at least 1.0 (got %g)", c.PUE)}
	}
	if c.Concurrency < 1 {
		return &ValidationError{Field: "concurrency", Reason: "must be at least 1"}
	}
	if c.MaxIOPerSecond < 0 {
		return &ValidationError{Field: "maxIOPerSecond", Reason: "must not be negative"}
	}
	switch strings.ToLower(c.OutputFormat) {
	case "", "text", "json", "yaml":
	default:
		return &ValidationError{Field: "format", Reason: fmt.Sprintf("must be text, json or yaml (got %q)", c.OutputFormat)}
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return &ValidationError{Field: "logLevel", Reason: fmt.Sprintf("unknown level %q", c.LogLevel)}
	}
	return nil
}

// ParseHeaders turns "k=v,k2=v2" into a map.
func ParseHeaders(input string) map[string]string {
	headers := map[string]string{}
	for _, part := range parseCommaSeparated(input) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func parseCommaSeparated(input string) []string {
	if strings.TrimSpace(input) == "" {
		return []string{}
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
