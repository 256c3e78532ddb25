// Package config loads salesagg CLI settings from defaults, an optional YAML
// file and SALESAGG_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the caller, which
// then calls Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. SALESAGG_BATCH_SIZE.
// Variable names derive from field names; unprefixed names are never read.
const EnvPrefix = "SALESAGG"

// Execution modes.
const (
	ModeOneShot = "oneshot"
	ModeChunked = "chunked"
	ModeCompare = "compare"
)

// Config holds everything the CLI needs for one invocation.
type Config struct {
	Mode  string `yaml:"mode" split_words:"true" validate:"oneof=oneshot chunked compare"`
	Input string `yaml:"input" split_words:"true" validate:"required"`

	BatchSize    int    `yaml:"batch_size" split_words:"true" validate:"min=1"`
	MaxRetries   int    `yaml:"max_retries" split_words:"true" validate:"min=1"`
	OnParseError string `yaml:"on_parse_error" split_words:"true" validate:"oneof=fail skip"`

	// FailChunks lists chunk sequence numbers whose processing always fails.
	// It exists to exercise partial-failure handling end to end.
	FailChunks []int `yaml:"fail_chunks" split_words:"true" validate:"omitempty,dive,min=1"`

	TopN      int     `yaml:"top" split_words:"true" validate:"min=1"`
	Threshold float64 `yaml:"threshold" split_words:"true" validate:"gte=0"`

	// MetricsFile, when set, receives the Prometheus text exposition of the
	// run counters.
	MetricsFile string `yaml:"metrics_out" split_words:"true"`

	// Trace enables a stdout span exporter.
	Trace bool `yaml:"trace" split_words:"true"`

	Log LogConfig `yaml:"log" split_words:"true"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=text json"`
}

// Default returns the built-in configuration. Input is left empty and must be
// supplied by a file, the environment or a flag.
func Default() Config {
	return Config{
		Mode:         ModeOneShot,
		BatchSize:    1000,
		MaxRetries:   3,
		OnParseError: "fail",
		TopN:         3,
		Threshold:    1000,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from Default, the YAML file at path (skipped when path
// is empty) and the environment. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// No default tags: unset variables leave file and built-in values alone.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks every field and reports all violations at once.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}
