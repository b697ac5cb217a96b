package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// ServerSettings holds HTTP server settings.
type ServerSettings struct {
	Port      int    `yaml:"port"`
	LogFormat string `yaml:"log_format"` // json or text
}

// WorkspaceSettings holds per-request temporary directory settings.
type WorkspaceSettings struct {
	Root       string        `yaml:"root"`
	StaleAfter time.Duration `yaml:"stale_after"` // startup sweep threshold
}

// ExtractSettings holds yt-dlp settings.
type ExtractSettings struct {
	Binary        string        `yaml:"binary"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
	AudioQuality  string        `yaml:"audio_quality"`
}

// CookieSettings names where authenticated-extraction cookies come from.
// The cookie content itself is never stored in configuration.
type CookieSettings struct {
	EnvVar   string `yaml:"env_var"`
	Required bool   `yaml:"required"`
}

// LookupSettings holds metadata search settings.
type LookupSettings struct {
	Enabled       *bool         `yaml:"enabled"`
	Endpoint      string        `yaml:"endpoint"`
	Term          string        `yaml:"term"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
}

// IsEnabled reports whether metadata lookup is on. Unset means enabled.
func (l LookupSettings) IsEnabled() bool {
	return l.Enabled == nil || *l.Enabled
}

// Config represents the main configuration model.
type Config struct {
	Server    ServerSettings    `yaml:"server"`
	Workspace WorkspaceSettings `yaml:"workspace"`
	Extract   ExtractSettings   `yaml:"extract"`
	Cookies   CookieSettings    `yaml:"cookies"`
	Lookup    LookupSettings    `yaml:"lookup"`
}

// SetDefaults sets default values for unset fields.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogFormat == "" {
		c.Server.LogFormat = "json"
	}
	if c.Workspace.Root == "" {
		c.Workspace.Root = filepath.Join(os.TempDir(), "audiodl")
	}
	if c.Workspace.StaleAfter == 0 {
		c.Workspace.StaleAfter = time.Hour
	}
	if c.Extract.Binary == "" {
		c.Extract.Binary = "yt-dlp"
	}
	if c.Extract.Timeout == 0 {
		c.Extract.Timeout = 10 * time.Minute
	}
	if c.Extract.MaxConcurrent == 0 {
		c.Extract.MaxConcurrent = 4
	}
	if c.Extract.AudioQuality == "" {
		c.Extract.AudioQuality = "192K"
	}
	if c.Cookies.EnvVar == "" {
		c.Cookies.EnvVar = "COOKIES_TXT_VAR"
	}
	if c.Lookup.Endpoint == "" {
		c.Lookup.Endpoint = "https://api.deezer.com/search"
	}
	if c.Lookup.Term == "" {
		c.Lookup.Term = "audio"
	}
	if c.Lookup.Timeout == 0 {
		c.Lookup.Timeout = 10 * time.Second
	}
	if c.Lookup.RatePerSecond == 0 {
		c.Lookup.RatePerSecond = 8
	}
}

// Validate validates Config.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid server.port: %d. Must be between 1 and 65535", c.Server.Port),
		}
	}

	c.Server.LogFormat = strings.ToLower(strings.TrimSpace(c.Server.LogFormat))
	if c.Server.LogFormat != "json" && c.Server.LogFormat != "text" {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid server.log_format: %s. Must be one of: json, text", c.Server.LogFormat),
		}
	}

	if c.Workspace.StaleAfter < 0 {
		return &ConfigError{Message: "workspace.stale_after must not be negative"}
	}

	if c.Extract.Timeout < 0 {
		return &ConfigError{Message: "extract.timeout must not be negative"}
	}

	if c.Extract.MaxConcurrent < 1 || c.Extract.MaxConcurrent > 64 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid extract.max_concurrent: %d. Must be between 1 and 64", c.Extract.MaxConcurrent),
		}
	}

	if strings.TrimSpace(c.Cookies.EnvVar) == "" {
		return &ConfigError{Message: "cookies.env_var must not be empty"}
	}

	if c.Lookup.Timeout < 0 || c.Lookup.RatePerSecond < 0 {
		return &ConfigError{Message: "lookup.timeout and lookup.rate_per_second must not be negative"}
	}

	return nil
}
