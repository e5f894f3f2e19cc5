package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/azye/tabdog/internal/store"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("store.backend", cfg.Store.Backend)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("render.batch_size", cfg.Render.BatchSize)
	v.SetDefault("dates.layout", cfg.Dates.Layout)
	v.SetDefault("dates.timezone", cfg.Dates.Timezone)
	v.SetDefault("sessions.max_name_length", cfg.Sessions.MaxNameLength)
	v.SetDefault("browser.remote_url", cfg.Browser.RemoteURL)
	v.SetDefault("browser.exclude_prefixes", cfg.Browser.ExcludePrefixes)
	v.SetDefault("browser.timeout_seconds", cfg.Browser.TimeoutSeconds)
	v.SetDefault("export.product", cfg.Export.Product)

	if err := v.ReadInConfig(); err != nil {
		// SetConfigFile surfaces a missing file as a plain fs error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Store.Backend {
	case store.BackendFile, store.BackendDuckDB:
		if strings.TrimSpace(cfg.Store.Path) == "" {
			return fmt.Errorf("store.path is required for backend %q", cfg.Store.Backend)
		}
	case store.BackendMemory:
	default:
		return fmt.Errorf("unsupported store.backend %q", cfg.Store.Backend)
	}
	if cfg.Render.BatchSize < 1 {
		return fmt.Errorf("render.batch_size must be at least 1")
	}
	if cfg.Sessions.MaxNameLength < 1 {
		return fmt.Errorf("sessions.max_name_length must be at least 1")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Store.Path = expandEnv(cfg.Store.Path)
	cfg.Browser.RemoteURL = expandEnv(cfg.Browser.RemoteURL)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
