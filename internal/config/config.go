// Package config loads ConceptClarity settings from defaults, a YAML file,
// a .env file and CLARITY_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete client and local backend configuration.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Client  ClientConfig  `yaml:"client"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`

	// DBPath is the SQLite file. Empty means the default data dir.
	DBPath string `yaml:"db_path"`
}

// GatewayConfig points the client at a backend.
type GatewayConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ClientConfig holds client-side behavior.
type ClientConfig struct {
	// AnonymousSearchLimit is the number of free searches per run.
	AnonymousSearchLimit int `yaml:"anonymous_search_limit"`
	// DefaultLanguage is used until the user picks one.
	DefaultLanguage string `yaml:"default_language"`
	// DefaultLevel is the search level for signed-in users.
	DefaultLevel string `yaml:"default_level"`
}

// ServerConfig configures `clarity serve`.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminUsername string        `yaml:"admin_username"`
	AdminPassword string        `yaml:"admin_password"`
	// MediaLookup enables Wikipedia thumbnail lookups for /search/media.
	MediaLookup bool `yaml:"media_lookup"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives TUI logs. Empty means clarity.log in the data dir.
	File string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			URL:     "http://127.0.0.1:8000",
			Timeout: 60 * time.Second,
		},
		Client: ClientConfig{
			AnonymousSearchLimit: 2,
			DefaultLanguage:      "en",
			DefaultLevel:         "medium",
		},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8000",
			TokenTTL:    7 * 24 * time.Hour,
			MediaLookup: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if u, err := url.Parse(c.Gateway.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway.url %q is not an absolute URL", c.Gateway.URL)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be positive")
	}
	if c.Client.AnonymousSearchLimit < 0 {
		return fmt.Errorf("client.anonymous_search_limit must not be negative")
	}
	switch c.Client.DefaultLanguage {
	case "en", "te", "hi":
	default:
		return fmt.Errorf("client.default_language must be one of en, te, hi")
	}
	switch c.Client.DefaultLevel {
	case "easy", "medium", "hard":
	default:
		return fmt.Errorf("client.default_level must be one of easy, medium, hard")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive")
	}
	if (c.Server.AdminUsername == "") != (c.Server.AdminPassword == "") {
		return fmt.Errorf("server.admin_username and server.admin_password must be set together")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Merge copies the non-zero values of other into c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Gateway.URL != "" {
		c.Gateway.URL = other.Gateway.URL
	}
	if other.Gateway.Timeout != 0 {
		c.Gateway.Timeout = other.Gateway.Timeout
	}

	if other.Client.AnonymousSearchLimit != 0 {
		c.Client.AnonymousSearchLimit = other.Client.AnonymousSearchLimit
	}
	if other.Client.DefaultLanguage != "" {
		c.Client.DefaultLanguage = other.Client.DefaultLanguage
	}
	if other.Client.DefaultLevel != "" {
		c.Client.DefaultLevel = other.Client.DefaultLevel
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.TokenTTL != 0 {
		c.Server.TokenTTL = other.Server.TokenTTL
	}
	if other.Server.AdminUsername != "" {
		c.Server.AdminUsername = other.Server.AdminUsername
		c.Server.AdminPassword = other.Server.AdminPassword
	}
	c.Server.MediaLookup = other.Server.MediaLookup

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}
	if other.Log.File != "" {
		c.Log.File = other.Log.File
	}

	if other.DBPath != "" {
		c.DBPath = other.DBPath
	}
}
