package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is Foundry's ambient configuration: where the local mirror and
// filesystem backend data live, the remote tracker credentials, the mirror
// cache tuning, and logging.
type Config struct {
	Home   string       `yaml:"home"`
	Linear LinearConfig `yaml:"linear"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// LinearConfig addresses the remote tracker backend. TeamID takes priority
// over TeamKey, which takes priority over TeamName; see
// Client.ResolveTeamID.
type LinearConfig struct {
	APIKey   string `yaml:"api_key"`
	TeamID   string `yaml:"team_id"`
	TeamKey  string `yaml:"team_key"`
	TeamName string `yaml:"team_name"`
}

// CacheConfig.TTL sets how often the background sync worker refreshes the
// remote backend's project-document cache. MaxEntries is not read; the
// document cache itself uses the remote package's fixed TTL and size.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL:        60 * time.Second,
			MaxEntries: 10000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration using the real environment.
func Load() (*Config, error) {
	return LoadWithEnv(os.Getenv)
}

// LoadWithEnv loads configuration using the provided environment lookup
// function, so tests can supply isolated values instead of mutating the
// process environment.
func LoadWithEnv(getenv func(string) string) (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPathWithEnv(getenv)
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if home := getenv("FOUNDRY_HOME"); home != "" {
		cfg.Home = home
	}
	if apiKey := getenv("FOUNDRY_LINEAR_API_KEY"); apiKey != "" {
		cfg.Linear.APIKey = apiKey
	}
	if teamID := getenv("FOUNDRY_LINEAR_TEAM_ID"); teamID != "" {
		cfg.Linear.TeamID = teamID
	}
	if teamKey := getenv("FOUNDRY_LINEAR_TEAM_KEY"); teamKey != "" {
		cfg.Linear.TeamKey = teamKey
	}
	if teamName := getenv("FOUNDRY_LINEAR_TEAM_NAME"); teamName != "" {
		cfg.Linear.TeamName = teamName
	}

	if cfg.Home == "" {
		home, _ := os.UserHomeDir()
		cfg.Home = filepath.Join(home, ".foundry")
	}

	return cfg, nil
}

func getConfigPath() string {
	return getConfigPathWithEnv(os.Getenv)
}

func getConfigPathWithEnv(getenv func(string) string) string {
	if xdgConfig := getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "foundry", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "foundry", "config.yaml")
}
