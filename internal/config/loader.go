package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// UserConfigDir is the directory for user-level config, relative to home.
	UserConfigDir = ".config/conceptclarity"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
	// EnvFile is loaded from the working directory when present.
	EnvFile = ".env"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger

	// Path overrides the user config file location.
	Path string
	// EnvFiles overrides the dotenv files to load.
	EnvFiles []string
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load builds the configuration in this order, later layers winning:
// 1. DefaultConfig
// 2. YAML config file (~/.config/conceptclarity/config.yaml)
// 3. .env file (values only fill variables that are not already set)
// 4. CLARITY_* environment variables
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	path := l.Path
	if path == "" {
		path = userConfigPath()
	}
	if path != "" {
		if fileCfg, err := LoadFromFile(path); err == nil {
			l.logger.Debug("loaded config file", slog.String("path", path))
			cfg.Merge(fileCfg)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("failed to load config file", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	files := l.EnvFiles
	if files == nil {
		files = []string{EnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			l.logger.Debug("loaded env file", slog.String("path", f))
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("failed to load env file", slog.String("path", f), slog.String("error", err.Error()))
		}
	}

	applyEnv(cfg, l.logger)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, logger *slog.Logger) {
	cfg.Gateway.URL = getEnv("CLARITY_GATEWAY_URL", cfg.Gateway.URL)
	cfg.Gateway.Timeout = getDuration(logger, "CLARITY_GATEWAY_TIMEOUT", cfg.Gateway.Timeout)
	cfg.Client.AnonymousSearchLimit = getInt(logger, "CLARITY_ANON_SEARCH_LIMIT", cfg.Client.AnonymousSearchLimit)
	cfg.Client.DefaultLanguage = getEnv("CLARITY_LANGUAGE", cfg.Client.DefaultLanguage)
	cfg.Client.DefaultLevel = getEnv("CLARITY_LEVEL", cfg.Client.DefaultLevel)
	cfg.Server.Addr = getEnv("CLARITY_SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.TokenTTL = getDuration(logger, "CLARITY_TOKEN_TTL", cfg.Server.TokenTTL)
	cfg.Server.AdminUsername = getEnv("CLARITY_ADMIN_USERNAME", cfg.Server.AdminUsername)
	cfg.Server.AdminPassword = getEnv("CLARITY_ADMIN_PASSWORD", cfg.Server.AdminPassword)
	cfg.Log.Level = getEnv("CLARITY_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("CLARITY_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("CLARITY_LOG_FILE", cfg.Log.File)
	cfg.DBPath = getEnv("CLARITY_DB", cfg.DBPath)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getInt(logger *slog.Logger, key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn("ignoring invalid integer", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return n
}

func getDuration(logger *slog.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn("ignoring invalid duration", slog.String("key", key), slog.String("value", raw))
		return defaultValue
	}
	return d
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
