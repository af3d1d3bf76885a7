package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for dayplanner.
type Config struct {
	Gateway  GatewayConfig  `json:"gateway"`
	Storage  StorageConfig  `json:"storage"`
	Calendar CalendarConfig `json:"calendar"`
	Events   EventsConfig   `json:"events"`
	Logging  LoggingConfig  `json:"logging"`
	Backup   BackupConfig   `json:"backup"`
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns host:port.
func (g GatewayConfig) Addr() string {
	return net.JoinHostPort(g.Host, strconv.Itoa(g.Port))
}

// StorageConfig selects where the task collection lives.
type StorageConfig struct {
	Driver string `json:"driver"` // "json" or "sqlite"
	Path   string `json:"path"`   // slot directory for json, database file for sqlite
}

// CalendarConfig holds the settings that shape days and new drafts.
type CalendarConfig struct {
	Timezone        string   `json:"timezone,omitempty"` // IANA name; empty = local
	DefaultDuration Duration `json:"default_duration"`
	DefaultPriority string   `json:"default_priority"`
}

// Location resolves Timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar timezone: %w", err)
	}
	return loc, nil
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `json:"level"` // debug, info, warn, error
}

// SlogLevel maps Level to a slog.Level, falling back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// BackupConfig configures periodic task snapshots taken by the server.
type BackupConfig struct {
	Disabled bool   `json:"disabled,omitempty"`
	Cron     string `json:"cron"`
	Keep     int    `json:"keep"`
	Dir      string `json:"dir"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
