// Package config loads groupptr settings from defaults, an optional YAML
// file and GROUPPTR_* environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config represents the complete groupptr configuration
type Config struct {
	Log  LogConfig  `mapstructure:"log"`
	Tree TreeConfig `mapstructure:"tree"`
}

// LogConfig controls lifecycle logging
type LogConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level"`
	// Format is "text" or "json"
	Format string `mapstructure:"format"`
}

// TreeConfig shapes the tree built by the tree command
type TreeConfig struct {
	Depth  int `mapstructure:"depth"`
	Fanout int `mapstructure:"fanout"`
}

// EnvPrefix is the prefix for environment overrides, e.g. GROUPPTR_LOG_LEVEL.
const EnvPrefix = "GROUPPTR"

// Limits keep the tree command's output readable.
const (
	MaxTreeDepth  = 8
	MaxTreeFanout = 16
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
		Tree: TreeConfig{
			Depth:  2,
			Fanout: 2,
		},
	}
}

// SetDefaults registers defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tree.depth", d.Tree.Depth)
	v.SetDefault("tree.fanout", d.Tree.Fanout)
}

// Init prepares v: defaults, environment binding and, when file is not
// empty, the config file. A missing default config file is not an error.
func Init(v *viper.Viper, file string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "read config %s", file)
		}
		return nil
	}

	v.SetConfigName("groupptr")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.config/groupptr")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports the first problem found.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.Log.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return errors.Errorf("log.level: invalid value %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("log.format: invalid value %q", c.Log.Format)
	}
	if c.Tree.Depth < 0 || c.Tree.Depth > MaxTreeDepth {
		return errors.Errorf("tree.depth: must be between 0 and %d, got %d", MaxTreeDepth, c.Tree.Depth)
	}
	if c.Tree.Fanout < 1 || c.Tree.Fanout > MaxTreeFanout {
		return errors.Errorf("tree.fanout: must be between 1 and %d, got %d", MaxTreeFanout, c.Tree.Fanout)
	}
	return nil
}
