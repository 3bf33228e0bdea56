package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "DASHBOARD_CONFIG"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Store    StoreConfig    `yaml:"store"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Heatmap  HeatmapConfig  `yaml:"heatmap"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	RateLimitRPS int    `yaml:"rateLimitRps"`
}

type DatasetConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"` // memory or sqlite
	DBPath  string `yaml:"dbPath"`
}

type GeocoderConfig struct {
	Provider    string        `yaml:"provider"` // nominatim, mapbox, offline or none
	URL         string        `yaml:"url"`
	UserAgent   string        `yaml:"userAgent"`
	MapboxToken string        `yaml:"mapboxToken"`
	Timeout     time.Duration `yaml:"timeout"`
	Workers     int           `yaml:"workers"`
}

type HeatmapConfig struct {
	CellLevel int `yaml:"cellLevel"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load starts from defaults, applies the optional YAML file named by
// DASHBOARD_CONFIG, then environment overrides, and validates the result.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		slog.Debug("config file applied", "path", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			RateLimitRPS: 20,
		},
		Dataset: DatasetConfig{
			Path: "./data/updated_with_relevance.csv",
		},
		Store: StoreConfig{
			Backend: "memory",
			DBPath:  ":memory:",
		},
		Geocoder: GeocoderConfig{
			Provider:  "nominatim",
			UserAgent: "disaster-dashboard",
			Timeout:   5 * time.Second,
			Workers:   4,
		},
		Heatmap: HeatmapConfig{
			CellLevel: 8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func (c *Config) applyEnvOverrides() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)
	c.Server.RateLimitRPS = getEnvInt("RATE_LIMIT_RPS", c.Server.RateLimitRPS)
	c.Dataset.Path = getEnv("DATASET_PATH", c.Dataset.Path)
	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.DBPath = getEnv("DB_PATH", c.Store.DBPath)
	c.Geocoder.Provider = getEnv("GEOCODER_PROVIDER", c.Geocoder.Provider)
	c.Geocoder.URL = getEnv("GEOCODER_URL", c.Geocoder.URL)
	c.Geocoder.UserAgent = getEnv("GEOCODER_USER_AGENT", c.Geocoder.UserAgent)
	c.Geocoder.MapboxToken = getEnv("MAPBOX_TOKEN", c.Geocoder.MapboxToken)
	c.Geocoder.Timeout = getEnvDuration("GEOCODER_TIMEOUT", c.Geocoder.Timeout)
	c.Geocoder.Workers = getEnvInt("GEOCODER_WORKERS", c.Geocoder.Workers)
	c.Heatmap.CellLevel = getEnvInt("HEATMAP_CELL_LEVEL", c.Heatmap.CellLevel)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimitRPS < 1 {
		return fmt.Errorf("rate limit must be at least 1 req/s")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset path is required")
	}

	switch c.Store.Backend {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("sqlite store requires DB_PATH")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.Store.Backend)
	}

	switch c.Geocoder.Provider {
	case "nominatim", "offline", "none":
	case "mapbox":
		if c.Geocoder.MapboxToken == "" {
			return fmt.Errorf("mapbox geocoder requires MAPBOX_TOKEN")
		}
	default:
		return fmt.Errorf("invalid geocoder provider: %s", c.Geocoder.Provider)
	}
	if c.Geocoder.Timeout <= 0 || c.Geocoder.Timeout > 30*time.Second {
		return fmt.Errorf("geocoder timeout must be between 0 and 30s, got %s", c.Geocoder.Timeout)
	}
	if c.Geocoder.Workers < 1 {
		return fmt.Errorf("geocoder workers must be at least 1")
	}

	if c.Heatmap.CellLevel < 0 || c.Heatmap.CellLevel > 30 {
		return fmt.Errorf("heatmap cell level must be in [0,30], got %d", c.Heatmap.CellLevel)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
