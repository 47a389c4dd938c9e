package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Cache   CacheConfig   `mapstructure:"cache"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig holds scraping-backend configuration
type BackendConfig struct {
	URL string `mapstructure:"url"` // Base URL of the chord backend
}

// CacheConfig holds the tunables of the persistent caches. TTLs and the
// eviction weights are deliberately configuration, not constants.
type CacheConfig struct {
	Dir           string        `mapstructure:"dir"`            // Database directory
	SheetTTL      time.Duration `mapstructure:"sheet_ttl"`      // Unsaved chord-sheet lifetime
	SearchTTL     time.Duration `mapstructure:"search_ttl"`     // Search-result lifetime
	ArtistTTL     time.Duration `mapstructure:"artist_ttl"`     // Artist song-list lifetime
	MaxSheets     int           `mapstructure:"max_sheets"`     // Unsaved sheet bound before eviction
	MaxResults    int           `mapstructure:"max_results"`    // Result rows per namespace before eviction
	AccessWeight  float64       `mapstructure:"access_weight"`  // Eviction score: frequency term
	RecencyWeight float64       `mapstructure:"recency_weight"` // Eviction score: recency term
	SeedSamples   bool          `mapstructure:"seed_samples"`   // Insert sample sheets on first run
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL: "",
		},
		Cache: CacheConfig{
			Dir:           defaultCachePath(),
			SheetTTL:      30 * 24 * time.Hour,
			SearchTTL:     6 * time.Hour,
			ArtistTTL:     24 * time.Hour,
			MaxSheets:     200,
			MaxResults:    100,
			AccessWeight:  0.7,
			RecencyWeight: 0.3,
			SeedSamples:   true,
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// DatabasePath returns the full path of the cache database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Cache.Dir, "capo.db")
}

// IsConfigured returns true if the backend URL is set
func (c *Config) IsConfigured() bool {
	return c.Backend.URL != ""
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "capo", "capo.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "capo", "capo.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "capo")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "capo")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "capo", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "capo", "cache")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("CAPO")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	// Ensure config directory exists
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("backend.url", cfg.Backend.URL)

	viper.Set("cache.dir", cfg.Cache.Dir)
	viper.Set("cache.sheet_ttl", cfg.Cache.SheetTTL)
	viper.Set("cache.search_ttl", cfg.Cache.SearchTTL)
	viper.Set("cache.artist_ttl", cfg.Cache.ArtistTTL)
	viper.Set("cache.max_sheets", cfg.Cache.MaxSheets)
	viper.Set("cache.max_results", cfg.Cache.MaxResults)
	viper.Set("cache.access_weight", cfg.Cache.AccessWeight)
	viper.Set("cache.recency_weight", cfg.Cache.RecencyWeight)
	viper.Set("cache.seed_samples", cfg.Cache.SeedSamples)

	viper.Set("ui.theme", cfg.UI.Theme)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearCache removes all cached data
func ClearCache(cfg *Config) error {
	if err := os.RemoveAll(cfg.Cache.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
