package config

import (
	"os"
	"path/filepath"
	"testing"
)

// unsetForTest clears key and restores its previous value after the test.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDotenv(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", `# Planner settings
DP_TZ=Europe/Paris
DP_PORT=18431

# Quoted values
DP_TITLE="Morning block"
DP_SINGLE='single-quoted'

# Spaces around =
DP_SPACED = spaced_value
export DP_EXPORTED=yes
not a pair
`)

	for _, k := range []string{"DP_TZ", "DP_PORT", "DP_TITLE", "DP_SINGLE", "DP_SPACED", "DP_EXPORTED"} {
		unsetForTest(t, k)
	}

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key, want string
	}{
		{"DP_TZ", "Europe/Paris"},
		{"DP_PORT", "18431"},
		{"DP_TITLE", "Morning block"},
		{"DP_SINGLE", "single-quoted"},
		{"DP_SPACED", "spaced_value"},
		{"DP_EXPORTED", "yes"},
	}
	for _, tt := range tests {
		if got := os.Getenv(tt.key); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadDotenvNoOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", `DP_EXISTING=new-value`)
	t.Setenv("DP_EXISTING", "original")

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("DP_EXISTING"); got != "original" {
		t.Errorf("expected existing var to be preserved, got %q", got)
	}
}

func TestReloadDotenvOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".env", `DP_EXISTING=new-value`)
	t.Setenv("DP_EXISTING", "original")

	if err := ReloadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("DP_EXISTING"); got != "new-value" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv("/nonexistent/.env"); err != nil {
		t.Errorf("missing file should be silently ignored, got: %v", err)
	}
}
