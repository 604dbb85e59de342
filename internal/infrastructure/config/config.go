package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Keydeck Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Render   RenderConfig   `yaml:"render"`
	Devices  DevicesConfig  `yaml:"devices"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
// The database stores per-device configuration: brightness, root layouts,
// and named image blobs.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings for the built-in
// mqttbridge module. Disabled by default; the daemon runs fully offline
// without a broker.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for the optional
// history recorder (press events and render-loop timings).
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// RenderConfig contains settings for the per-device render loops.
type RenderConfig struct {
	// FrameRate is the target tick rate of each device render loop (Hz).
	FrameRate int `yaml:"frame_rate"`

	// CacheTTL is how long an untouched render cache entry survives (seconds).
	// Every cache access extends the entry's life by this amount.
	CacheTTL int `yaml:"cache_ttl"`

	// CacheSweepInterval is how often expired entries are reclaimed in bulk
	// (seconds).
	CacheSweepInterval int `yaml:"cache_sweep_interval"`

	// FontsDir is the directory holding TTF/OTF files for text overlays.
	FontsDir string `yaml:"fonts_dir"`
}

// DevicesConfig contains device/connection manager settings.
type DevicesConfig struct {
	// ReconnectInterval is how often dropped devices are retried (seconds).
	ReconnectInterval int `yaml:"reconnect_interval"`

	// DefaultBrightness is applied to devices with no saved configuration
	// (percent, 0-100).
	DefaultBrightness int `yaml:"default_brightness"`

	// Virtual is the number of in-memory devices to fabricate when no
	// hardware transport is present. 0 disables virtual devices.
	Virtual int `yaml:"virtual"`

	// VirtualKeys is the key count of each virtual device.
	VirtualKeys int `yaml:"virtual_keys"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: KEYDECK_SECTION_KEY
// For example: KEYDECK_DATABASE_PATH, KEYDECK_MQTT_HOST
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/keydeck.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "keydeck-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Render: RenderConfig{
			FrameRate:          60,
			CacheTTL:           30,
			CacheSweepInterval: 10,
			FontsDir:           "./assets/fonts",
		},
		Devices: DevicesConfig{
			ReconnectInterval: 5,
			DefaultBrightness: 50,
			Virtual:           0,
			VirtualKeys:       15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: KEYDECK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("KEYDECK_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("KEYDECK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("KEYDECK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("KEYDECK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("KEYDECK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Render
	if v := os.Getenv("KEYDECK_FONTS_DIR"); v != "" {
		cfg.Render.FontsDir = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// Render validation. The frame rate bounds the whole scheduler; an
	// absurd value here would either starve input reads or spin the CPU.
	if c.Render.FrameRate < 1 || c.Render.FrameRate > 240 {
		errs = append(errs, "render.frame_rate must be between 1 and 240")
	}
	if c.Render.CacheTTL < 1 {
		errs = append(errs, "render.cache_ttl must be at least 1 second")
	}
	if c.Render.CacheSweepInterval < 1 {
		errs = append(errs, "render.cache_sweep_interval must be at least 1 second")
	}

	// Devices validation
	if c.Devices.ReconnectInterval < 1 {
		errs = append(errs, "devices.reconnect_interval must be at least 1 second")
	}
	if c.Devices.DefaultBrightness < 0 || c.Devices.DefaultBrightness > 100 {
		errs = append(errs, "devices.default_brightness must be between 0 and 100")
	}
	if c.Devices.Virtual < 0 {
		errs = append(errs, "devices.virtual must not be negative")
	}
	if c.Devices.Virtual > 0 && c.Devices.VirtualKeys < 1 {
		errs = append(errs, "devices.virtual_keys must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// FrameDuration returns the render loop tick period derived from the frame rate.
func (c *Config) FrameDuration() time.Duration {
	return time.Second / time.Duration(c.Render.FrameRate)
}

// CacheTTLDuration returns the render cache time-to-live as a Duration.
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Render.CacheTTL) * time.Second
}

// CacheSweepDuration returns the cache sweep period as a Duration.
func (c *Config) CacheSweepDuration() time.Duration {
	return time.Duration(c.Render.CacheSweepInterval) * time.Second
}

// ReconnectDuration returns the device reconnect period as a Duration.
func (c *Config) ReconnectDuration() time.Duration {
	return time.Duration(c.Devices.ReconnectInterval) * time.Second
}
