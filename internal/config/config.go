package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "dirdupe.yaml"

type Config struct {
	// MinSize is the smallest reported group size, e.g. "100" or "1k".
	MinSize   string   `yaml:"min_size"`
	Workers   int      `yaml:"workers"`
	Algorithm string   `yaml:"algorithm"`
	Exclude   []string `yaml:"exclude"`
	JSONFile  string   `yaml:"json_file"`
	LogLevel  string   `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		MinSize:   "100",
		Workers:   1,
		Algorithm: "blake2b",
		Exclude:   []string{},
		LogLevel:  "info",
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// Initialize Exclude slice if nil (for configs with an empty list)
	if cfg.Exclude == nil {
		cfg.Exclude = []string{}
	}

	return cfg, nil
}

// ParseSize parses a byte count with an optional metric or IEC suffix,
// such as "100", "1k", "2.5MB" or "1GiB".
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<63-1 {
		return 0, fmt.Errorf("invalid size %q: too large", s)
	}
	return int64(n), nil
}
