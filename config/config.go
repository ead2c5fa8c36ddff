// Package config loads golem settings from golem.yaml and GOLEM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leandroluk/golemspec/core"
	"github.com/leandroluk/golemspec/filter"
	"github.com/leandroluk/golemspec/logger"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: GOLEM_DATABASE_DSN sets database.dsn.
const EnvPrefix = "GOLEM"

type Config struct {
	Filter struct {
		TagKey string `mapstructure:"tagkey"`
	} `mapstructure:"filter"`
	Join struct {
		Reuse bool `mapstructure:"reuse"`
	} `mapstructure:"join"`
	Log struct {
		Level     string `mapstructure:"level"`
		Format    string `mapstructure:"format"`
		AddSource bool   `mapstructure:"addsource"`
	} `mapstructure:"log"`
	Database struct {
		Dialect string `mapstructure:"dialect"`
		DSN     string `mapstructure:"dsn"`
	} `mapstructure:"database"`
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("filter.tagkey", filter.DefaultTagKey)
	v.SetDefault("join.reuse", true)
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.addsource", false)
	v.SetDefault("database.dialect", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "")
}

// Load reads golem.yaml from the given directories (the working directory
// when none is given), then applies GOLEM_* environment overrides on top
// of the defaults. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("golem")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("golem: read config: %w", err)
		}
	}
	return decode(v)
}

// LoadFile reads one config file, whatever its name, with the same
// defaults and environment overrides as Load.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("golem: read config %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("golem: failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Logger returns the logger configuration.
func (c *Config) Logger() logger.Config {
	return logger.Config{Level: c.Log.Level, Format: c.Log.Format, AddSource: c.Log.AddSource}
}

// BuilderOptions returns the filter builder options the config sets.
func (c *Config) BuilderOptions() []filter.Option {
	opts := []filter.Option{}
	if c.Filter.TagKey != "" {
		opts = append(opts, filter.WithTagKey(c.Filter.TagKey))
	}
	return opts
}

// RootOptions returns the query root options the config sets.
func (c *Config) RootOptions() []core.RootOption {
	return []core.RootOption{core.WithJoinReuse(c.Join.Reuse)}
}
