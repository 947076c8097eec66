// Package config manages configuration for the divrank engine: the contest
// data directory layout and the monitor schema alias lists, loaded from a
// YAML file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/olympboard/divrank/pkg/monitor"
)

// Error types for configuration loading
var (
	ErrConfigNotFound   = errors.New("configuration file not found")
	ErrConfigParseError = errors.New("failed to parse configuration file")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Config is the top-level configuration for the engine.
type Config struct {
	// BasePath is the root of the contest data directory tree
	// (contests/, trainings/, contestants/).
	BasePath string `yaml:"base_path" json:"base_path"`

	// Schema carries the monitor column alias lists. Keeping the aliases in
	// configuration lets new monitor generations be absorbed without a
	// release.
	Schema monitor.SchemaConfig `yaml:"schema" json:"schema"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BasePath: "data",
		Schema:   monitor.DefaultSchemaConfig(),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BasePath) == "" {
		return fmt.Errorf("%w: base_path is required", ErrInvalidConfig)
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, filling missing values
// with defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParseError, filename, err)
	}

	cfg = mergeWithDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filename, err)
	}
	return &cfg, nil
}

// LoadWithEnvironment loads configuration from file (when present) and
// applies DIVRANK_* environment overrides on top.
func LoadWithEnvironment(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		fileCfg, err := LoadFromFile(filename)
		if err != nil && !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
		if err == nil {
			cfg = *fileCfg
		}
	}

	applyEnvironmentOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid final configuration: %w", err)
	}
	return &cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}

// mergeWithDefaults fills in missing values with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := Default()

	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if len(cfg.Schema.NicknameAliases) == 0 {
		cfg.Schema.NicknameAliases = defaults.Schema.NicknameAliases
	}
	if len(cfg.Schema.ScoreAliases) == 0 {
		cfg.Schema.ScoreAliases = defaults.Schema.ScoreAliases
	}
	if len(cfg.Schema.ExcludedAliases) == 0 {
		cfg.Schema.ExcludedAliases = defaults.Schema.ExcludedAliases
	}
	if len(cfg.Schema.Delimiters) == 0 {
		cfg.Schema.Delimiters = defaults.Schema.Delimiters
	}

	return cfg
}

// applyEnvironmentOverrides applies environment variable overrides. List
// values are comma-separated.
func applyEnvironmentOverrides(cfg *Config) {
	if val := os.Getenv("DIVRANK_BASE_PATH"); val != "" {
		cfg.BasePath = val
	}
	if val := os.Getenv("DIVRANK_NICKNAME_ALIASES"); val != "" {
		cfg.Schema.NicknameAliases = splitList(val)
	}
	if val := os.Getenv("DIVRANK_SCORE_ALIASES"); val != "" {
		cfg.Schema.ScoreAliases = splitList(val)
	}
	if val := os.Getenv("DIVRANK_EXCLUDED_ALIASES"); val != "" {
		cfg.Schema.ExcludedAliases = splitList(val)
	}
	if val := os.Getenv("DIVRANK_DELIMITERS"); val != "" {
		cfg.Schema.Delimiters = splitDelimiters(val)
	}
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitDelimiters splits the delimiter list, which unlike the alias lists
// may itself contain the comma separator. A backslash escapes the next
// character: `\,` yields a comma delimiter, `\t` a tab. Items are not
// trimmed, so a tab survives.
func splitDelimiters(val string) []string {
	var out []string
	var cur strings.Builder
	escaped := false
	for _, r := range val {
		switch {
		case escaped:
			if r == 't' {
				cur.WriteRune('\t')
			} else {
				cur.WriteRune(r)
			}
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			if cur.Len() > 0 {
				out = append(out, cur.String())
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
