// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Hardcoded fallbacks used when neither the call nor the configuration
// supplies a value.
const (
	FallbackDuration  = 5000 * time.Millisecond
	FallbackMaxToasts = 5
	FallbackShowIcon  = true
)

// Default server and history values.
const (
	DefaultListen       = "127.0.0.1:7878"
	DefaultWSBuffer     = 16
	DefaultHistoryLimit = 200
)

// Position is the screen corner or edge toasts are anchored to.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopRight     Position = "top-right"
	PositionTopCenter    Position = "top-center"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomRight  Position = "bottom-right"
	PositionBottomCenter Position = "bottom-center"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopRight,
		PositionTopCenter,
		PositionBottomLeft,
		PositionBottomRight,
		PositionBottomCenter,
	}
}

// Theme is the color scheme preference handed to the renderer.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ValidThemes returns all valid theme values.
func ValidThemes() []Theme {
	return []Theme{ThemeSystem, ThemeLight, ThemeDark}
}

// Config is the configuration for toastify.
// Loaded from ~/.config/toastify/config.toml
type Config struct {
	Toasts  ToastConfig   `toml:"toasts"`
	Server  ServerConfig  `toml:"server"`
	History HistoryConfig `toml:"history"`
}

// ToastConfig is the process-wide toast configuration read by the stack.
type ToastConfig struct {
	Position  Position `toml:"position"`   // Consumed by renderers only
	Duration  Duration `toml:"duration"`   // "5s", "1500", or "0" for never
	MaxToasts int      `toml:"max_toasts"` // Stack capacity
	Theme     Theme    `toml:"theme"`      // Consumed by renderers only
	ShowIcon  bool     `toml:"show_icon"`  // Category icons on success/error/info/warning
}

// ServerConfig contains HTTP and WebSocket settings.
type ServerConfig struct {
	Listen   string `toml:"listen"`
	WSBuffer int    `toml:"ws_buffer"` // Per-client pending frame buffer
}

// HistoryConfig controls the removed-toast history.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Limit   int    `toml:"limit"`
	Path    string `toml:"path"` // Empty = default data path
}

// DefaultToastConfig returns the toast configuration defaults.
func DefaultToastConfig() ToastConfig {
	return ToastConfig{
		Position:  PositionTopRight,
		Duration:  Duration(FallbackDuration),
		MaxToasts: FallbackMaxToasts,
		Theme:     ThemeDark,
		ShowIcon:  FallbackShowIcon,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Toasts: DefaultToastConfig(),
		Server: ServerConfig{
			Listen:   DefaultListen,
			WSBuffer: DefaultWSBuffer,
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   DefaultHistoryLimit,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "toastify", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "toastify")
}

// HistoryPath returns the configured history file, or the default
// history.jsonl under the data directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(DataPath(), "history.jsonl")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Toasts.Validate(); err != nil {
		return err
	}
	if c.Server.WSBuffer < 1 {
		return fmt.Errorf("ws_buffer must be at least 1, got %d", c.Server.WSBuffer)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.History.Limit)
	}
	return nil
}

// Validate checks the toast section.
func (t ToastConfig) Validate() error {
	validPos := false
	for _, p := range ValidPositions() {
		if t.Position == p {
			validPos = true
			break
		}
	}
	if !validPos {
		return fmt.Errorf("invalid position %q, must be one of: %v", t.Position, ValidPositions())
	}

	validTheme := false
	for _, th := range ValidThemes() {
		if t.Theme == th {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("invalid theme %q, must be one of: %v", t.Theme, ValidThemes())
	}

	// Sub-millisecond values are almost always a unit mistake.
	if d := t.Duration.Duration(); d > 0 && d < time.Millisecond {
		return fmt.Errorf("duration %s is below 1ms; quote millisecond values (\"5000\") or use units (\"5s\")", d)
	}

	if t.MaxToasts < 0 || t.MaxToasts > 100 {
		return fmt.Errorf("max_toasts must be between 0 and 100, got %d", t.MaxToasts)
	}

	return nil
}

// Environment variables that override the config file.
const (
	EnvDuration  = "TOASTIFY_DURATION"
	EnvMaxToasts = "TOASTIFY_MAX_TOASTS"
	EnvShowIcon  = "TOASTIFY_SHOW_ICON"
	EnvPosition  = "TOASTIFY_POSITION"
	EnvTheme     = "TOASTIFY_THEME"
	EnvListen    = "TOASTIFY_LISTEN"
)

// ApplyEnv overlays environment variables onto c and re-validates.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDuration); v != "" {
		var d Duration
		if err := d.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvDuration, err)
		}
		c.Toasts.Duration = d
	}
	if v := os.Getenv(EnvMaxToasts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxToasts, err)
		}
		c.Toasts.MaxToasts = n
	}
	if v := os.Getenv(EnvShowIcon); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvShowIcon, err)
		}
		c.Toasts.ShowIcon = b
	}
	if v := os.Getenv(EnvPosition); v != "" {
		c.Toasts.Position = Position(v)
	}
	if v := os.Getenv(EnvTheme); v != "" {
		c.Toasts.Theme = Theme(v)
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
	return c.Validate()
}
