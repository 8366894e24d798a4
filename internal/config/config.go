package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Storage       StorageConfig `toml:"storage"`
	History       HistoryConfig `toml:"history"`
	Refresh       RefreshConfig `toml:"refresh"`
	Notifications NotifyConfig  `toml:"notifications"`
}

type StorageConfig struct {
	Path string `toml:"path" comment:"SQLite database file; empty uses ~/.config/punchr/punchr.db"`
}

type HistoryConfig struct {
	PageSize      int    `toml:"page_size"`
	DefaultPeriod string `toml:"default_period" comment:"today, week, month or all"`
}

type RefreshConfig struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		History: HistoryConfig{
			PageSize:      10,
			DefaultPeriod: "week",
		},
		Refresh: RefreshConfig{
			IntervalMinutes: 5,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "punchr"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file from its default location.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path over the defaults. A missing file yields
// the defaults. Environment overrides apply in both cases.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	cfg.normalize()

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PUNCHR_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PUNCHR_NOTIFICATIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Notifications.Enabled = b
		}
	}
}

func (c *Config) normalize() {
	def := DefaultConfig()
	if c.History.PageSize <= 0 {
		c.History.PageSize = def.History.PageSize
	}
	if c.Refresh.IntervalMinutes <= 0 {
		c.Refresh.IntervalMinutes = def.Refresh.IntervalMinutes
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default config to path unless a file already
// exists there. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return false, fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return false, fmt.Errorf("writing config file: %w", err)
	}
	return true, nil
}
