// Package config loads tisym settings from YAML layered over embedded
// defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jward/tisym/internal/dialect"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaxFileSize bounds the config files Load accepts.
const MaxFileSize = 1 << 20

// Config is the full tisym configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Format selects CLI output, json or text.
	Format string `yaml:"format" validate:"oneof=json text"`

	// DB is the symbol-table database path used by index and query.
	DB string `yaml:"db" validate:"required"`

	// Workers bounds parallel parsing; 0 means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`

	Dialects map[string]DialectConfig `yaml:"dialects" validate:"required,dive"`
}

// DialectConfig maps file extensions onto a dialect.
type DialectConfig struct {
	Extensions []string `yaml:"extensions" validate:"required,min=1,dive,startswith=."`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the embedded configuration.
func Default() *Config {
	cfg, err := Parse(defaultsYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path and merges it over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("config: %s exceeds maximum size (%d > %d)", path, len(data), MaxFileSize)
	}
	cfg, err := Parse(data, Default())
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over base (nil for an empty base) and validates the
// result. Dialect entries in data replace the matching base entries whole.
func Parse(data []byte, base *Config) (*Config, error) {
	cfg := &Config{}
	if base != nil {
		*cfg = *base
		cfg.Dialects = make(map[string]DialectConfig, len(base.Dialects))
		for k, v := range base.Dialects {
			cfg.Dialects[k] = v
		}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that every dialect is known and
// every extension claimed once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("validation: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("validation: %w", err)
	}
	owner := map[string]string{}
	for _, name := range c.dialectNames() {
		if _, ok := dialect.Lookup(name); !ok {
			return fmt.Errorf("validation: unknown dialect %q", name)
		}
		for _, ext := range c.Dialects[name].Extensions {
			ext = strings.ToLower(ext)
			if prev, dup := owner[ext]; dup {
				return fmt.Errorf("validation: extension %s claimed by %s and %s", ext, prev, name)
			}
			owner[ext] = name
		}
	}
	return nil
}

// DialectFor maps path to a dialect name by extension.
func (c *Config) DialectFor(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	for _, name := range c.dialectNames() {
		for _, e := range c.Dialects[name].Extensions {
			if strings.ToLower(e) == ext {
				return name, true
			}
		}
	}
	return "", false
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c *Config) dialectNames() []string {
	names := make([]string, 0, len(c.Dialects))
	for n := range c.Dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
