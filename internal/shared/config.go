package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	ListenBrainz ListenBrainzConfig `toml:"listenbrainz"`
	Plex         PlexConfig         `toml:"plex"`
	Downloader   DownloaderConfig   `toml:"downloader"`
	Catalog      CatalogConfig      `toml:"catalog"`
	Sync         SyncConfig         `toml:"sync"`
	Database     DatabaseConfig     `toml:"database"`
	Server       ServerConfig       `toml:"server"`
}

// ListenBrainzConfig contains ListenBrainz API settings.
type ListenBrainzConfig struct {
	Username string `toml:"username"`
	Token    string `toml:"token"`
}

// PlexConfig contains Plex Media Server connection settings.
type PlexConfig struct {
	URL          string `toml:"url"`
	Token        string `toml:"token"`
	MusicLibrary string `toml:"music_library"`
}

// DownloaderConfig contains download queue API settings.
type DownloaderConfig struct {
	URL string `toml:"url"`
}

// CatalogConfig contains music catalog proxy settings, used to resolve
// album URLs for missing tracks.
type CatalogConfig struct {
	URL string `toml:"url"`
}

// SyncConfig contains orchestration tuning knobs.
type SyncConfig struct {
	// DownloadCeiling bounds outstanding remote download jobs. The remote
	// queue hard-limits at 20; the default of 18 leaves headroom for jobs
	// submitted outside jamsync.
	DownloadCeiling    int     `toml:"download_ceiling"`
	ReconcileSeconds   int     `toml:"reconcile_interval_seconds"`
	DownloadTimeoutMin int     `toml:"download_timeout_minutes"`
	SearchRateLimit    float64 `toml:"search_rate_limit"`
	DailySyncTime      string  `toml:"daily_sync_time"`
	WeeklySyncDay      string  `toml:"weekly_sync_day"`
	WeeklySyncTime     string  `toml:"weekly_sync_time"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports missing required settings. An empty slice means the
// configuration is usable.
func (c *Config) Validate() []string {
	var missing []string
	if c.ListenBrainz.Username == "" {
		missing = append(missing, "listenbrainz.username is required")
	}
	if c.Plex.Token == "" {
		missing = append(missing, "plex.token is required")
	}
	if c.Downloader.URL == "" {
		missing = append(missing, "downloader.url is required")
	}
	return missing
}
