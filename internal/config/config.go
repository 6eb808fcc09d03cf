package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Feeds   FeedsConfig   `toml:"feeds"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int    `toml:"port"`
	AutoOpenBrowser bool   `toml:"auto_open_browser"`
	PublicURL       string `toml:"public_url"` // origin used in share links
}

// StorageConfig selects where the collection is kept.
type StorageConfig struct {
	Backend string `toml:"backend"` // "sqlite" or "file"
	Path    string `toml:"path"`
}

// LogConfig holds logging settings. File is optional; when set, logs are
// also written there and rotated.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// FeedsConfig holds settings for importing from feeds and web pages.
type FeedsConfig struct {
	MaxItemsPerFeed int `toml:"max_items_per_feed"`
	TimeoutSeconds  int `toml:"timeout_seconds"`
}

const defaultConfigContent = `[server]
port = 8080
auto_open_browser = false
public_url = ""                   # defaults to http://localhost:<port>

[storage]
backend = "sqlite"                # "sqlite" or "file"
path = ""                         # defaults to <data dir>/ilistas.db or listas.json

[log]
level = "info"                    # debug, info, warn, error
file = ""                         # optional rotating log file
max_size_mb = 10
max_backups = 3
max_age_days = 28
compress = false

[feeds]
max_items_per_feed = 20
timeout_seconds = 30
`

// DefaultDataDir returns ~/.ilistas, or ILISTAS_DATA_DIR when set.
func DefaultDataDir() string {
	if v := os.Getenv("ILISTAS_DATA_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ilistas"
	}
	return filepath.Join(home, ".ilistas")
}

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Relative storage
// paths are resolved against dataDir. Environment variables override values
// from the file with highest priority.
func Load(path, dataDir string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg, dataDir)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("feeds", "max_items_per_feed") && cfg.Feeds.MaxItemsPerFeed < 1 {
		return fmt.Errorf("invalid feeds.max_items_per_feed %d: must be >= 1", cfg.Feeds.MaxItemsPerFeed)
	}
	if md.IsDefined("feeds", "timeout_seconds") && cfg.Feeds.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid feeds.timeout_seconds %d: must be >= 1", cfg.Feeds.TimeoutSeconds)
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config, dataDir string) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.Path == "" {
		name := "ilistas.db"
		if cfg.Storage.Backend == "file" {
			name = "listas.json"
		}
		cfg.Storage.Path = filepath.Join(dataDir, name)
	} else if !filepath.IsAbs(cfg.Storage.Path) && cfg.Storage.Path != ":memory:" {
		cfg.Storage.Path = filepath.Join(dataDir, cfg.Storage.Path)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 28
	}
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(dataDir, cfg.Log.File)
	}
	if cfg.Feeds.MaxItemsPerFeed == 0 {
		cfg.Feeds.MaxItemsPerFeed = 20
	}
	if cfg.Feeds.TimeoutSeconds == 0 {
		cfg.Feeds.TimeoutSeconds = 30
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ILISTAS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ILISTAS_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ILISTAS_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	return nil
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	switch cfg.Storage.Backend {
	case "sqlite", "file":
		// valid
	default:
		return fmt.Errorf("invalid storage.backend %q: must be \"sqlite\" or \"file\"", cfg.Storage.Backend)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", cfg.Log.Level)
	}

	if cfg.Server.PublicURL != "" &&
		!strings.HasPrefix(cfg.Server.PublicURL, "http://") && !strings.HasPrefix(cfg.Server.PublicURL, "https://") {
		return fmt.Errorf("invalid server.public_url %q: must start with http:// or https://", cfg.Server.PublicURL)
	}

	return nil
}

// Origin returns the base URL used in share links.
func (c *Config) Origin() string {
	if c.Server.PublicURL != "" {
		return strings.TrimRight(c.Server.PublicURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}
