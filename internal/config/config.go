// Package config loads structq CLI settings.
//
// Precedence (highest to lowest): flags > STRUCTQ_ env vars > structq.yaml >
// defaults.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/roach88/structq/internal/ir"
	"github.com/roach88/structq/internal/store"
)

// FileName is the config file looked up in the working directory.
const FileName = "structq.yaml"

// EnvPrefix prefixes environment overrides, e.g. STRUCTQ_DRIVER.
const EnvPrefix = "STRUCTQ_"

// Formats are the output formats commands support.
var Formats = []string{"text", "json", "yaml"}

// Config holds all CLI configuration options.
type Config struct {
	Pretty      bool   `koanf:"pretty"`
	Placeholder string `koanf:"placeholder"`
	Driver      string `koanf:"driver"`
	Database    string `koanf:"database"`
	Verbose     bool   `koanf:"verbose"`
	Format      string `koanf:"format"`

	// File is the config file that was read; empty when none was found.
	File string `koanf:"-"`
}

// Defaults are the settings before any file, env var or flag applies.
func Defaults() map[string]any {
	return map[string]any{
		"pretty":      false,
		"placeholder": "question",
		"driver":      store.DriverCGO,
		"database":    "",
		"verbose":     false,
		"format":      "text",
	}
}

// Load reads configuration from cfgFile (or ./structq.yaml when cfgFile is
// empty and the file exists), the environment and the flags that were set
// explicitly.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		if _, err := os.Stat(FileName); err == nil {
			cfgFile = FileName
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Load environment variables: STRUCTQ_PLACEHOLDER -> placeholder
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags that were set explicitly
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// --db is short for the database key
			if key == "db" {
				key = "database"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if _, ok := ir.TemplateNamed(c.Placeholder); !ok {
		return fmt.Errorf("invalid placeholder %q: must be one of question, numbered, dollar, colon", c.Placeholder)
	}
	if c.Driver != store.DriverCGO && c.Driver != store.DriverPure {
		return fmt.Errorf("invalid driver %q: must be %s or %s", c.Driver, store.DriverCGO, store.DriverPure)
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, Formats)
	}
	return nil
}

// Template is the placeholder template the placeholder key names.
func (c *Config) Template() ir.Template {
	t, ok := ir.TemplateNamed(c.Placeholder)
	if !ok {
		return ir.QuestionMark
	}
	return t
}

// RenderOptions are the process-wide rendering options the config implies.
func (c *Config) RenderOptions() ir.Options {
	return ir.Options{Pretty: c.Pretty}
}
