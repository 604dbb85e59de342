package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("KEYDECK_CONFIG")
	defer os.Setenv("KEYDECK_CONFIG", originalEnv)

	os.Setenv("KEYDECK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
database:
  path: ""

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: info
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("KEYDECK_CONFIG")
	defer os.Setenv("KEYDECK_CONFIG", originalEnv)
	os.Setenv("KEYDECK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("KEYDECK_CONFIG")
	defer os.Setenv("KEYDECK_CONFIG", originalEnv)

	os.Unsetenv("KEYDECK_CONFIG")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("KEYDECK_CONFIG")
	defer os.Setenv("KEYDECK_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("KEYDECK_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_OfflineStartupAndShutdown runs the daemon with MQTT and
// InfluxDB disabled and two virtual devices, then shuts it down via
// context timeout.
func TestRun_OfflineStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

render:
  frame_rate: 30
  cache_ttl: 30
  cache_sweep_interval: 10

devices:
  reconnect_interval: 1
  default_brightness: 50
  virtual: 2
  virtual_keys: 6

logging:
  level: warn
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("KEYDECK_CONFIG")
	defer os.Setenv("KEYDECK_CONFIG", originalEnv)
	os.Setenv("KEYDECK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("offline run() should shut down cleanly, got: %v", err)
	}
}
