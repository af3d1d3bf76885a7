package config

import (
	"os"
	"path/filepath"
)

// PlannerPath returns the root directory for dayplanner files.
// It uses $DAYPLANNER_PATH if set, otherwise defaults to ~/.dayplanner.
func PlannerPath() string {
	if v := os.Getenv("DAYPLANNER_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".dayplanner")
	}
	return filepath.Join(home, ".dayplanner")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(PlannerPath(), "config.jsonc")
}

// DotenvPath returns the path to the .env file.
func DotenvPath() string {
	return filepath.Join(PlannerPath(), ".env")
}

// DataPath returns the directory holding task data, the journal and backups.
func DataPath() string {
	return filepath.Join(PlannerPath(), "data")
}

// HeartbeatPath returns the path of the server heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(PlannerPath(), "heartbeat.json")
}
