package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/azye/tabdog/internal/render"
	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/internal/store"
)

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Config is the top-level configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	Store         StoreConfig    `mapstructure:"store" yaml:"store"`
	Render        RenderConfig   `mapstructure:"render" yaml:"render"`
	Dates         DatesConfig    `mapstructure:"dates" yaml:"dates"`
	Sessions      SessionsConfig `mapstructure:"sessions" yaml:"sessions"`
	Browser       BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Export        ExportConfig   `mapstructure:"export" yaml:"export"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is ignored by the memory backend.
	Path string `mapstructure:"path" yaml:"path"`
}

// RenderConfig tunes the batched renderer.
type RenderConfig struct {
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// DatesConfig controls how session dates are written in headers. Export and
// import both use it, so changing it makes older exports import as new sessions.
type DatesConfig struct {
	Layout   string `mapstructure:"layout" yaml:"layout"`
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// SessionsConfig holds session naming limits.
type SessionsConfig struct {
	MaxNameLength int `mapstructure:"max_name_length" yaml:"max_name_length"`
}

// BrowserConfig points at a Chromium instance with remote debugging enabled.
type BrowserConfig struct {
	RemoteURL       string   `mapstructure:"remote_url" yaml:"remote_url"`
	ExcludePrefixes []string `mapstructure:"exclude_prefixes" yaml:"exclude_prefixes"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// ExportConfig names backup files.
type ExportConfig struct {
	Product string `mapstructure:"product" yaml:"product"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	dir, err := defaultDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Store: StoreConfig{
			Backend: store.BackendFile,
			Path:    filepath.Join(dir, "tabs.json"),
		},
		Render: RenderConfig{
			BatchSize: render.DefaultBatchSize,
		},
		Dates: DatesConfig{
			Layout:   sessions.DefaultDateLayout,
			Timezone: "Local",
		},
		Sessions: SessionsConfig{
			MaxNameLength: sessions.DefaultMaxNameLength,
		},
		Browser: BrowserConfig{
			RemoteURL:       "http://127.0.0.1:9222",
			ExcludePrefixes: []string{"chrome-extension://", "devtools://"},
			TimeoutSeconds:  15,
		},
		Export: ExportConfig{
			Product: "tabdog",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	dir, err := defaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "tabdog"), nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	switch c.Dates.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Dates.Timezone)
	if err != nil {
		return nil, fmt.Errorf("dates.timezone: %w", err)
	}
	return loc, nil
}

// DateFormatter builds the formatter shared by export, import and rendering.
func (c Config) DateFormatter() (sessions.DateFormatter, error) {
	loc, err := c.Location()
	if err != nil {
		return sessions.DateFormatter{}, err
	}
	return sessions.NewDateFormatter(c.Dates.Layout, loc), nil
}

// BrowserTimeout is the per-call deadline for browser actions.
func (c Config) BrowserTimeout() time.Duration {
	if c.Browser.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Browser.TimeoutSeconds) * time.Second
}
