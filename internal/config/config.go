// Package config loads server settings from an optional config file,
// HTTPDEMO_* environment variables and command-line flags.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "HTTPDEMO"

// Config is the complete server configuration.
type Config struct {
	Port           int           `mapstructure:"port"`
	AssetDir       string        `mapstructure:"assetDir"`
	MaxHeaderBytes int           `mapstructure:"maxHeaderBytes"`
	MaxBodyBytes   int           `mapstructure:"maxBodyBytes"`
	Logging        LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:           1234,
		AssetDir:       "",
		MaxHeaderBytes: 64 << 10,
		MaxBodyBytes:   10 << 20,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// FlagKeys maps command-line flag names to config keys.
var FlagKeys = map[string]string{
	"port":             "port",
	"asset-dir":        "assetDir",
	"max-header-bytes": "maxHeaderBytes",
	"max-body-bytes":   "maxBodyBytes",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
}

// Load reads configuration. An empty path searches for httpdemo.{yaml,json,toml}
// in the working directory and tolerates its absence; an explicit path must
// exist. Flags in fs that were set override file and environment values.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("port", def.Port)
	v.SetDefault("assetDir", def.AssetDir)
	v.SetDefault("maxHeaderBytes", def.MaxHeaderBytes)
	v.SetDefault("maxBodyBytes", def.MaxBodyBytes)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range FlagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag %s", flag)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("httpdemo")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("invalid port %d", c.Port)
	}
	if c.MaxHeaderBytes <= 0 {
		return errors.Errorf("invalid maxHeaderBytes %d", c.MaxHeaderBytes)
	}
	if c.MaxBodyBytes <= 0 {
		return errors.Errorf("invalid maxBodyBytes %d", c.MaxBodyBytes)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return errors.Errorf("invalid logging format %q", c.Logging.Format)
	}
	return nil
}
