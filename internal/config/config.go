// Package config loads lspcore-server's configuration from a YAML/JSON file
// plus LSPCORE_*-prefixed environment overrides (SPEC_FULL.md "AMBIENT
// STACK" — configuration), grounded on bennypowers-cem's
// cmd/root.go viper wiring.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings lspcore-server needs at startup. Transport
// selection (--stdio/--tcp/--pipe) lives on the cobra flags in
// cmd/lspcore-server, not here: those are mutually exclusive run modes, not
// persisted settings a config file would sensibly override.
type Config struct {
	LogLevel              string        `mapstructure:"logLevel"`
	LogFile               string        `mapstructure:"logFile"`
	BackendRequestTimeout time.Duration `mapstructure:"backendRequestTimeout"`
	MaxDiagnostics        int           `mapstructure:"maxDiagnostics"`
	MaxConcurrency        int64         `mapstructure:"maxConcurrency"`
}

// Defaults mirrors the values New() seeds into viper before any config file
// or environment override is applied.
var Defaults = Config{
	LogLevel:              "info",
	LogFile:               "",
	BackendRequestTimeout: 10 * time.Second,
	MaxDiagnostics:        100,
	MaxConcurrency:        4,
}

// New creates a viper instance seeded with Defaults, bound to LSPCORE_*
// environment variables, and (if configPath is non-empty) pointed at an
// explicit config file. configPath may be "", in which case only defaults
// and environment overrides apply.
func New(configPath string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("logLevel", Defaults.LogLevel)
	v.SetDefault("logFile", Defaults.LogFile)
	v.SetDefault("backendRequestTimeout", Defaults.BackendRequestTimeout)
	v.SetDefault("maxDiagnostics", Defaults.MaxDiagnostics)
	v.SetDefault("maxConcurrency", Defaults.MaxConcurrency)

	v.SetEnvPrefix("LSPCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Load unmarshals v into a Config.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
