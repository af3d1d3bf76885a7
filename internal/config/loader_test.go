package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `{
	// Planner settings
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999,
	},
	"storage": {"driver": "sqlite", "path": "${{ .Env.DP_DB_PATH }}"},
	"calendar": {
		"timezone": "UTC",
		"default_duration": "30m",
		"default_priority": "high",
	},
	/* backups every day */
	"backup": {"cron": "0 3 * * *", "keep": 7},
	"logging": {"level": "debug"},
}`
	path := writeFile(t, t.TempDir(), "config.jsonc", content)
	t.Setenv("DP_DB_PATH", "/var/lib/planner.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.Gateway.Addr(); got != "0.0.0.0:9999" {
		t.Errorf("Gateway.Addr() = %q", got)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "/var/lib/planner.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Calendar.DefaultDuration.Duration() != 30*time.Minute {
		t.Errorf("DefaultDuration = %s", cfg.Calendar.DefaultDuration.Duration())
	}
	loc, err := cfg.Calendar.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location = %v, %v", loc, err)
	}
	if cfg.Backup.Cron != "0 3 * * *" || cfg.Backup.Keep != 7 {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if cfg.Logging.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel = %v", cfg.Logging.SlogLevel())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DAYPLANNER_PATH", "/tmp/planner")
	path := writeFile(t, t.TempDir(), "config.jsonc", `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" || cfg.Gateway.Port != 18430 {
		t.Errorf("Gateway = %+v", cfg.Gateway)
	}
	if cfg.Storage.Driver != "json" || cfg.Storage.Path != filepath.Join("/tmp/planner", "data", "slots") {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Calendar.DefaultDuration.Duration() != time.Hour || cfg.Calendar.DefaultPriority != "medium" {
		t.Errorf("Calendar = %+v", cfg.Calendar)
	}
	if cfg.Events.BufferSize != 256 {
		t.Errorf("Events.BufferSize = %d", cfg.Events.BufferSize)
	}
	if cfg.Backup.Cron != "0 * * * *" || cfg.Backup.Keep != 24 || cfg.Backup.Dir != filepath.Join("/tmp/planner", "data", "backups") {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if cfg.Logging.SlogLevel() != slog.LevelInfo {
		t.Errorf("SlogLevel = %v", cfg.Logging.SlogLevel())
	}
}

func TestLoadSqliteDefaultPath(t *testing.T) {
	t.Setenv("DAYPLANNER_PATH", "/tmp/planner")
	cfg, err := Parse([]byte(`{"storage": {"driver": "sqlite"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/planner", "data", "planner.db"); cfg.Storage.Path != want {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, want)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `{"gateway": `},
		{"driver", `{"storage": {"driver": "postgres"}}`},
		{"priority", `{"calendar": {"default_priority": "urgent"}}`},
		{"timezone", `{"calendar": {"timezone": "Mars/Olympus"}}`},
		{"duration", `{"calendar": {"default_duration": "soon"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.jsonc"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 18430 {
		t.Errorf("expected defaults, got %+v", cfg.Gateway)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.jsonc")); err == nil {
		t.Error("Load should fail on a missing file")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("DP_HOST", "example.test")
	got := expandEnvTemplates(`{"host": "${{ .Env.DP_HOST }}", "other": "${{.Env.DP_UNSET_VAR}}"}`)
	want := `{"host": "example.test", "other": ""}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
