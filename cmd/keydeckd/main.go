// Keydeck Core - programmable key-display daemon
//
// This is the main entry point for the Keydeck daemon. It drives
// stream-deck class hardware: per-key displays composited from
// component data, a panel stack per device, and a module system for
// behaviour.
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/keydeck-core/migrations"

	"github.com/nerrad567/keydeck-core/internal/device"
	"github.com/nerrad567/keydeck-core/internal/history"
	"github.com/nerrad567/keydeck-core/internal/infrastructure/config"
	"github.com/nerrad567/keydeck-core/internal/infrastructure/database"
	"github.com/nerrad567/keydeck-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/keydeck-core/internal/infrastructure/logging"
	"github.com/nerrad567/keydeck-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/modules/clock"
	"github.com/nerrad567/keydeck-core/internal/modules/mqttbridge"
	"github.com/nerrad567/keydeck-core/internal/render"
	"github.com/nerrad567/keydeck-core/internal/store"
	"github.com/nerrad567/keydeck-core/internal/virtual"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// discoverInterval is how often newly attached hardware is scanned for.
const discoverInterval = 5 * time.Second

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// managerDevices defers the manager reference so the MQTT bridge can
// be constructed before the manager that feeds it input events.
type managerDevices struct {
	manager *device.Manager
}

func (d *managerDevices) Get(serial string) (*device.Core, error) {
	if d.manager == nil {
		return nil, device.ErrDeviceNotFound
	}
	return d.manager.Get(serial)
}

func (d *managerDevices) Serials() []string {
	if d.manager == nil {
		return nil
	}
	return d.manager.Serials()
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Keydeck Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	repo := store.NewSQLiteRepository(db.DB)

	// Module registry and render pipeline
	registry := module.NewRegistry()
	registry.SetLogger(log)

	fonts := render.NewFontStore(cfg.Render.FontsDir)
	compositor := render.NewCompositor(fonts)

	if err := registry.Register(clock.New(fonts)); err != nil {
		return fmt.Errorf("registering clock module: %w", err)
	}
	log.Info("built-in modules registered", "count", len(registry.Modules()))

	// Connect to MQTT broker (optional)
	devices := &managerDevices{}
	var input device.InputSink
	var bridge *mqttbridge.Bridge
	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		bridge = mqttbridge.New(mqttClient, devices, registry, log)
		if err := registry.Register(bridge); err != nil {
			return fmt.Errorf("registering mqtt bridge: %w", err)
		}
		input = bridge
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var observer device.Observer
	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		// roughly one tick point per device per second
		observer = history.NewRecorder(influxClient, cfg.Render.FrameRate)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Device manager over the available transport. The USB transport
	// links in externally; without it the virtual connector still
	// exercises the full pipeline.
	connector := virtual.NewConnector(
		cfg.Devices.Virtual,
		cfg.Devices.VirtualKeys,
		image.Pt(72, 72),
	)
	if cfg.Devices.Virtual > 0 {
		log.Info("virtual devices enabled",
			"count", cfg.Devices.Virtual,
			"keys", cfg.Devices.VirtualKeys,
		)
	}

	manager := device.NewManager(device.ManagerOptions{
		Connector:         connector,
		Registry:          registry,
		Compositor:        compositor,
		Store:             repo,
		FrameRate:         cfg.Render.FrameRate,
		CacheTTL:          cfg.CacheTTLDuration(),
		SweepInterval:     cfg.CacheSweepDuration(),
		ReconnectInterval: cfg.ReconnectDuration(),
		DefaultBrightness: cfg.Devices.DefaultBrightness,
		Input:             input,
		Observer:          observer,
		Logger:            log,
	})
	devices.manager = manager

	if bridge != nil {
		if err := bridge.Start(); err != nil {
			return fmt.Errorf("starting mqtt bridge: %w", err)
		}
	}

	// Attach everything already present, then keep scanning
	connectAvailable(ctx, manager, log)
	go discoverLoop(ctx, manager, log)

	log.Info("initialisation complete")

	// Blocks until ctx is cancelled, then closes every device loop
	manager.Run(ctx)

	log.Info("Keydeck Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses KEYDECK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("KEYDECK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// connectAvailable attaches every untracked device the connector can
// see right now.
func connectAvailable(ctx context.Context, manager *device.Manager, log *logging.Logger) {
	infos, err := manager.ListAvailable()
	if err != nil {
		log.Warn("device enumeration failed", "error", err)
		return
	}
	for _, info := range infos {
		if _, err := manager.Connect(ctx, info); err != nil {
			log.Warn("device connect failed", "serial", info.Serial, "error", err)
		}
	}
}

// discoverLoop periodically scans for newly attached hardware.
func discoverLoop(ctx context.Context, manager *device.Manager, log *logging.Logger) {
	ticker := time.NewTicker(discoverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			connectAvailable(ctx, manager, log)
		}
	}
}
