package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Strum355/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. AUDIODL_SERVER_PORT.
const EnvPrefix = "AUDIODL"

// Load builds the effective configuration. A .env file in the working
// directory is loaded first when present. path may be empty; otherwise it
// names a YAML file whose values sit between the built-in defaults and
// environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, proceeding with environment")
	}

	var cfg Config
	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = *fileCfg
	}
	cfg.SetDefaults()

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFile parses a YAML configuration file.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Configuration file not found: %s", path),
			}
		}
		return nil, &ConfigError{
			Message: fmt.Sprintf("Error reading configuration file: %v", err),
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Error parsing YAML file: %v", err),
		}
	}
	return &cfg, nil
}

// applyEnv overlays AUDIODL_* environment variables on cfg.
func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.log_format", cfg.Server.LogFormat)
	v.SetDefault("workspace.root", cfg.Workspace.Root)
	v.SetDefault("workspace.stale_after", cfg.Workspace.StaleAfter)
	v.SetDefault("extract.binary", cfg.Extract.Binary)
	v.SetDefault("extract.timeout", cfg.Extract.Timeout)
	v.SetDefault("extract.max_concurrent", cfg.Extract.MaxConcurrent)
	v.SetDefault("extract.audio_quality", cfg.Extract.AudioQuality)
	v.SetDefault("cookies.env_var", cfg.Cookies.EnvVar)
	v.SetDefault("cookies.required", cfg.Cookies.Required)
	v.SetDefault("lookup.enabled", cfg.Lookup.IsEnabled())
	v.SetDefault("lookup.endpoint", cfg.Lookup.Endpoint)
	v.SetDefault("lookup.term", cfg.Lookup.Term)
	v.SetDefault("lookup.timeout", cfg.Lookup.Timeout)
	v.SetDefault("lookup.rate_per_second", cfg.Lookup.RatePerSecond)

	// PORT is the convention of most container platforms.
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return &ConfigError{Message: fmt.Sprintf("Error binding environment: %v", err)}
	}

	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.LogFormat = v.GetString("server.log_format")
	cfg.Workspace.Root = v.GetString("workspace.root")
	cfg.Workspace.StaleAfter = v.GetDuration("workspace.stale_after")
	cfg.Extract.Binary = v.GetString("extract.binary")
	cfg.Extract.Timeout = v.GetDuration("extract.timeout")
	cfg.Extract.MaxConcurrent = v.GetInt("extract.max_concurrent")
	cfg.Extract.AudioQuality = v.GetString("extract.audio_quality")
	cfg.Cookies.EnvVar = v.GetString("cookies.env_var")
	cfg.Cookies.Required = v.GetBool("cookies.required")
	enabled := v.GetBool("lookup.enabled")
	cfg.Lookup.Enabled = &enabled
	cfg.Lookup.Endpoint = v.GetString("lookup.endpoint")
	cfg.Lookup.Term = v.GetString("lookup.term")
	cfg.Lookup.Timeout = v.GetDuration("lookup.timeout")
	cfg.Lookup.RatePerSecond = v.GetFloat64("lookup.rate_per_second")
	return nil
}
