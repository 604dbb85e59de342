package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/render"
	"github.com/nerrad567/keydeck-core/internal/screen"
)

// Record is one tracked device: identity plus its live core handle.
// The handle is wholesale-replaced on reconnect; a record is either
// owned by a running loop or being reconnected, never both.
type Record struct {
	Serial    string
	VendorID  uint16
	ProductID uint16
	Core      *Core
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Connector  Connector
	Registry   *module.Registry
	Compositor *render.Compositor
	Store      ConfigSource

	FrameRate         int
	CacheTTL          time.Duration
	SweepInterval     time.Duration
	ReconnectInterval time.Duration
	DefaultBrightness int

	Input    InputSink
	Observer Observer
	Logger   Logger
}

// Manager owns every device record. It connects new hardware, runs one
// loop goroutine per device, and periodically reconnects records whose
// core reports closed, restoring saved brightness and layout onto the
// fresh handle.
//
// All public methods are thread-safe.
type Manager struct {
	opts ManagerOptions

	mu      sync.RWMutex
	records map[string]*Record

	wg sync.WaitGroup
}

// NewManager creates a manager with no tracked devices.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 5 * time.Second
	}
	return &Manager{
		opts:    opts,
		records: make(map[string]*Record),
	}
}

// Connect opens the identified hardware, builds its core from saved
// configuration, starts its loop, and tracks the record.
func (m *Manager) Connect(ctx context.Context, info DeviceInfo) (*Core, error) {
	m.mu.Lock()
	if _, tracked := m.records[info.Serial]; tracked {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDeviceExists, info.Serial)
	}
	// reserve the serial before the slow connect
	m.records[info.Serial] = &Record{
		Serial: info.Serial, VendorID: info.VendorID, ProductID: info.ProductID,
	}
	m.mu.Unlock()

	core, err := m.bringUp(ctx, info)
	if err != nil {
		m.mu.Lock()
		delete(m.records, info.Serial)
		m.mu.Unlock()
		return nil, err
	}

	m.mu.Lock()
	m.records[info.Serial].Core = core
	m.mu.Unlock()

	m.opts.Logger.Info("device connected",
		"serial", info.Serial,
		"vendor_id", fmt.Sprintf("%04x", info.VendorID),
		"product_id", fmt.Sprintf("%04x", info.ProductID))
	return core, nil
}

// bringUp opens a driver, loads saved configuration, and starts the
// loop goroutine for a fresh core.
func (m *Manager) bringUp(ctx context.Context, info DeviceInfo) (*Core, error) {
	driver, err := m.opts.Connector.Connect(info)
	if err != nil {
		return nil, fmt.Errorf("connecting %s: %w", info.Serial, err)
	}

	brightness := m.opts.DefaultBrightness
	var root *screen.Panel
	var images map[string]*render.ImageData

	if m.opts.Store != nil {
		cfg, err := m.opts.Store.DeviceConfig(ctx, info.Serial)
		switch {
		case err == nil:
			brightness = cfg.Brightness
			root = screen.FromRaw(cfg.Layout)
			images = cfg.Images
		case errors.Is(err, ErrDeviceNotFound):
			// first sight, defaults apply
		default:
			m.opts.Logger.Warn("loading device config failed, using defaults",
				"serial", info.Serial, "error", err)
		}
	}

	core := NewCore(Options{
		Serial:        info.Serial,
		VendorID:      info.VendorID,
		ProductID:     info.ProductID,
		Driver:        driver,
		Registry:      m.opts.Registry,
		Compositor:    m.opts.Compositor,
		Store:         m.opts.Store,
		Root:          root,
		Images:        images,
		Brightness:    brightness,
		FrameRate:     m.opts.FrameRate,
		CacheTTL:      m.opts.CacheTTL,
		SweepInterval: m.opts.SweepInterval,
		Input:         m.opts.Input,
		Observer:      m.opts.Observer,
		Logger:        m.opts.Logger,
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		core.RunLoop(ctx)
	}()
	return core, nil
}

// Get returns the live core for a tracked serial.
func (m *Manager) Get(serial string) (*Core, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[serial]
	if !ok || rec.Core == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
	}
	return rec.Core, nil
}

// Serials returns every tracked serial.
func (m *Manager) Serials() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.records))
	for serial := range m.records {
		out = append(out, serial)
	}
	return out
}

// ListAvailable returns attached hardware not already tracked by
// serial, preventing double management of one device.
func (m *Manager) ListAvailable() ([]DeviceInfo, error) {
	infos, err := m.opts.Connector.Available()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		if _, tracked := m.records[info.Serial]; tracked {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// Run blocks, reconnecting closed devices on the configured interval
// until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.opts.ReconnectInterval)
	defer ticker.Stop()

	m.opts.Logger.Info("device manager started",
		"reconnect_interval", m.opts.ReconnectInterval)

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return
		case <-ticker.C:
			m.reconnectClosed(ctx)
		}
	}
}

// reconnectClosed finds records whose core reports closed and brings
// them back up with their last known identity and saved configuration.
func (m *Manager) reconnectClosed(ctx context.Context) {
	m.mu.RLock()
	var down []*Record
	for _, rec := range m.records {
		if rec.Core != nil && rec.Core.Closed() {
			down = append(down, rec)
		}
	}
	m.mu.RUnlock()

	for _, rec := range down {
		info := DeviceInfo{
			VendorID: rec.VendorID, ProductID: rec.ProductID, Serial: rec.Serial,
		}
		core, err := m.bringUp(ctx, info)
		if err != nil {
			m.opts.Logger.Debug("reconnect attempt failed",
				"serial", rec.Serial, "error", err)
			continue
		}

		m.mu.Lock()
		rec.Core = core
		m.mu.Unlock()
		m.opts.Logger.Info("device reconnected", "serial", rec.Serial)
	}
}

// shutdown closes every core and waits for the loops to drain.
func (m *Manager) shutdown() {
	m.mu.RLock()
	for _, rec := range m.records {
		if rec.Core != nil {
			rec.Core.Close()
		}
	}
	m.mu.RUnlock()

	m.wg.Wait()
	m.opts.Logger.Info("device manager stopped")
}
