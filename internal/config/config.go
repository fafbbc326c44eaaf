// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"LumenForge/internal/game"
)

// Config is the on-disk server configuration.
type Config struct {
	Addr        string      `yaml:"addr"`
	Accounts    string      `yaml:"accounts"`
	Areas       string      `yaml:"areas"`
	Admin       string      `yaml:"admin"`
	LogLevel    string      `yaml:"log_level"`
	MetricsAddr string      `yaml:"metrics_addr"`
	OLC         OLCConfig   `yaml:"olc"`
	Redis       RedisConfig `yaml:"redis"`
}

// OLCConfig tunes the online creation editors.
type OLCConfig struct {
	// Autosave lists kinds written to disk after every commit.
	Autosave   []string          `yaml:"autosave"`
	Extensions []ExtensionConfig `yaml:"extensions"`
}

// ExtensionConfig binds a scripted menu extension to an editor kind. Script
// names a script entity whose source defines the handler functions.
type ExtensionConfig struct {
	Kind   string `yaml:"kind"`
	Key    string `yaml:"key"`
	Script string `yaml:"script"`
}

// RedisConfig enables mirroring saved collections to Redis. An empty Addr
// disables the mirror.
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Addr:     ":4000",
		Accounts: "data/accounts.json",
		Areas:    game.DefaultAreasPath,
		Admin:    "admin",
		LogLevel: "info",
		OLC: OLCConfig{
			Autosave: []string{"room", "mobile", "object", "zone", "dialog", "script"},
		},
		Redis: RedisConfig{Prefix: "lumenforge:olc:"},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("LUMENFORGE_ADDR"); addr != "" {
		c.Addr = addr
	}
	if addr := os.Getenv("LUMENFORGE_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if level := os.Getenv("LUMENFORGE_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// Validate checks kind names and extension bindings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if _, err := c.AutosaveKinds(); err != nil {
		return err
	}
	for i, ext := range c.OLC.Extensions {
		if _, ok := game.ParseKind(ext.Kind); !ok {
			return fmt.Errorf("olc.extensions[%d]: unknown kind %q", i, ext.Kind)
		}
		if strings.TrimSpace(ext.Key) == "" || strings.TrimSpace(ext.Script) == "" {
			return fmt.Errorf("olc.extensions[%d]: key and script are required", i)
		}
	}
	return nil
}

// AutosaveKinds resolves the autosave list.
func (c *Config) AutosaveKinds() ([]game.EntityKind, error) {
	kinds := make([]game.EntityKind, 0, len(c.OLC.Autosave))
	for _, name := range c.OLC.Autosave {
		kind, ok := game.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("olc.autosave: unknown kind %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
