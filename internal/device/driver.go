package device

import (
	"context"
	"image"
	"time"

	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/render"
	"github.com/nerrad567/keydeck-core/internal/screen"
)

// Driver is the abstract hardware surface the core renders to. The
// transport and wire encoding live behind it; the core deals only in
// decoded pixel buffers plus the opaque Encode step.
//
// Error contract: ReadKeyStates returns ErrNoData on an idle timeout
// and ErrDisconnected once the hardware is gone. Any other error from
// any method is treated as a violated invariant by the render loop.
type Driver interface {
	// KeyCount returns the number of physical keys.
	KeyCount() int

	// ImageSize returns the pixel dimensions of one key display.
	ImageSize() image.Point

	// SetBrightness sets panel brightness, 0 to 100.
	SetBrightness(percent int) error

	// Encode converts a decoded image into the device's native wire
	// format.
	Encode(img *image.RGBA) ([]byte, error)

	// WriteKeyImage pushes an encoded image to one key.
	WriteKeyImage(key int, encoded []byte) error

	// ReadKeyStates blocks up to timeout for button input and returns
	// the pressed state of every key.
	ReadKeyStates(timeout time.Duration) ([]bool, error)

	// Close releases the hardware handle.
	Close() error
}

// DeviceInfo identifies one piece of attachable hardware.
type DeviceInfo struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}

// Connector enumerates and opens hardware. It hides the USB/HID layer
// from the manager.
type Connector interface {
	// Available lists hardware currently attached, tracked or not.
	Available() ([]DeviceInfo, error)

	// Connect opens a driver handle for the identified device.
	Connect(info DeviceInfo) (Driver, error)
}

// Config is the persisted per-device state: identity, brightness, the
// root panel layout, and named image blobs.
type Config struct {
	Serial     string
	VendorID   uint16
	ProductID  uint16
	Brightness int
	Layout     screen.RawPanel
	Images     map[string]*render.ImageData
}

// ConfigSource loads device configuration at connect time and writes
// it back on explicit commit. The core never persists mid-session.
type ConfigSource interface {
	// DeviceConfig returns the saved configuration for a serial, or
	// ErrDeviceNotFound if the device has never been committed.
	DeviceConfig(ctx context.Context, serial string) (*Config, error)

	// SaveDeviceConfig upserts a device's configuration.
	SaveDeviceConfig(ctx context.Context, cfg *Config) error
}

// InputSink receives button down/up/action events from the render
// loop. A sink error means the downstream consumer is gone; the loop
// closes the device rather than panicking.
type InputSink interface {
	HandleInput(ev module.Event) error
}

// registrySink is the default input sink: synchronous fan-out through
// the module registry, which cannot fail.
type registrySink struct {
	registry *module.Registry
}

func (s registrySink) HandleInput(ev module.Event) error {
	s.registry.Dispatch(ev)
	return nil
}

// Observer receives loop telemetry. Implementations must be cheap and
// non-blocking; they run on the device loop goroutine.
type Observer interface {
	// ButtonPressed fires on each up-transition, once per press.
	ButtonPressed(serial string, key int)

	// TickDone fires at the end of each loop tick with its duration
	// and the number of hardware writes performed.
	TickDone(serial string, took time.Duration, writes int)
}

// noopObserver is the default observer.
type noopObserver struct{}

func (noopObserver) ButtonPressed(string, int)           {}
func (noopObserver) TickDone(string, time.Duration, int) {}

// Logger defines the logging interface used by the device package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
