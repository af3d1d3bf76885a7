package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns the defaults when path does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Parse decodes JSONC config bytes.
func Parse(data []byte) (*Config, error) {
	// Templates live inside string literals, so expand before standardizing.
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18430
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "json"
	}
	if cfg.Storage.Path == "" {
		if cfg.Storage.Driver == "sqlite" {
			cfg.Storage.Path = filepath.Join(DataPath(), "planner.db")
		} else {
			cfg.Storage.Path = filepath.Join(DataPath(), "slots")
		}
	}
	if cfg.Calendar.DefaultDuration == 0 {
		cfg.Calendar.DefaultDuration = Duration(time.Hour)
	}
	if cfg.Calendar.DefaultPriority == "" {
		cfg.Calendar.DefaultPriority = "medium"
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 256
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Backup.Cron == "" {
		cfg.Backup.Cron = "0 * * * *"
	}
	if cfg.Backup.Keep == 0 {
		cfg.Backup.Keep = 24
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(DataPath(), "backups")
	}
}

func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q (want json or sqlite)", cfg.Storage.Driver)
	}
	if cfg.Calendar.DefaultDuration.Duration() < 0 {
		return fmt.Errorf("calendar.default_duration must be positive")
	}
	switch cfg.Calendar.DefaultPriority {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("calendar.default_priority: unknown priority %q", cfg.Calendar.DefaultPriority)
	}
	if _, err := cfg.Calendar.Location(); err != nil {
		return err
	}
	return nil
}
