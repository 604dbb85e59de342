// Package virtual provides an in-memory device implementation.
//
// The real USB transport lives outside this repository; the virtual
// connector stands in for it so the daemon, its render loops and its
// integration surface can run end to end without hardware. Virtual
// devices accept every write, remember the last image per key, and
// deliver presses injected through the driver handle.
package virtual

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/nerrad567/keydeck-core/internal/device"
)

// Identity used for virtual hardware. Vendor 0 never collides with a
// real USB vendor ID.
const (
	VendorID  uint16 = 0x0000
	ProductID uint16 = 0xdeca
)

// Connector fabricates a fixed set of virtual devices.
type Connector struct {
	count int
	keys  int
	size  image.Point

	mu   sync.Mutex
	open map[string]*Device
}

// NewConnector creates a connector exposing count devices with the
// given key grid and per-key image size.
func NewConnector(count, keys int, size image.Point) *Connector {
	if keys < 1 {
		keys = 15
	}
	if size.X < 1 || size.Y < 1 {
		size = image.Pt(72, 72)
	}
	return &Connector{
		count: count,
		keys:  keys,
		size:  size,
		open:  make(map[string]*Device),
	}
}

var _ device.Connector = (*Connector)(nil)

// Available lists every virtual device, attached or not.
func (c *Connector) Available() ([]device.DeviceInfo, error) {
	infos := make([]device.DeviceInfo, 0, c.count)
	for i := 0; i < c.count; i++ {
		infos = append(infos, device.DeviceInfo{
			VendorID:  VendorID,
			ProductID: ProductID,
			Serial:    fmt.Sprintf("VIRT-%03d", i+1),
		})
	}
	return infos, nil
}

// Connect opens a fresh driver handle. A previously open handle for
// the same serial is disconnected first, mirroring hardware where one
// process owns the HID handle.
func (c *Connector) Connect(info device.DeviceInfo) (device.Driver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.open[info.Serial]; ok {
		prev.Close()
	}
	d := &Device{
		serial: info.Serial,
		keys:   c.keys,
		size:   c.size,
		images: make(map[int][]byte),
		states: make([]bool, c.keys),
		input:  make(chan int, 16),
		done:   make(chan struct{}),
	}
	c.open[info.Serial] = d
	return d, nil
}

// Device returns the live driver handle for a serial, for injecting
// presses from tests or tooling.
func (c *Connector) Device(serial string) (*Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.open[serial]
	return d, ok
}

// Device is one virtual piece of hardware.
type Device struct {
	serial string
	keys   int
	size   image.Point

	mu         sync.Mutex
	brightness int
	images     map[int][]byte
	states     []bool

	input chan int
	done  chan struct{}
	once  sync.Once
}

var _ device.Driver = (*Device)(nil)

func (d *Device) KeyCount() int          { return d.keys }
func (d *Device) ImageSize() image.Point { return d.size }

func (d *Device) SetBrightness(percent int) error {
	if d.closedNow() {
		return device.ErrDisconnected
	}
	d.mu.Lock()
	d.brightness = percent
	d.mu.Unlock()
	return nil
}

// Encode passes raw RGBA through; virtual hardware has no wire format.
func (d *Device) Encode(img *image.RGBA) ([]byte, error) {
	out := make([]byte, len(img.Pix))
	copy(out, img.Pix)
	return out, nil
}

func (d *Device) WriteKeyImage(key int, encoded []byte) error {
	if d.closedNow() {
		return device.ErrDisconnected
	}
	if key < 0 || key >= d.keys {
		return fmt.Errorf("%w: %d", device.ErrInvalidKey, key)
	}
	d.mu.Lock()
	d.images[key] = encoded
	d.mu.Unlock()
	return nil
}

// ReadKeyStates waits up to timeout for an injected press edge. A
// press toggles down on delivery and back up on the following read,
// producing the down/up pair a physical key would.
func (d *Device) ReadKeyStates(timeout time.Duration) ([]bool, error) {
	d.mu.Lock()
	released := false
	for i, down := range d.states {
		if down {
			d.states[i] = false
			released = true
		}
	}
	if released {
		out := d.snapshotLocked()
		d.mu.Unlock()
		return out, nil
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil, device.ErrDisconnected
	case key := <-d.input:
		d.mu.Lock()
		if key >= 0 && key < d.keys {
			d.states[key] = true
		}
		out := d.snapshotLocked()
		d.mu.Unlock()
		return out, nil
	case <-time.After(timeout):
		return nil, device.ErrNoData
	}
}

func (d *Device) snapshotLocked() []bool {
	out := make([]bool, len(d.states))
	copy(out, d.states)
	return out
}

func (d *Device) Close() error {
	d.once.Do(func() { close(d.done) })
	return nil
}

func (d *Device) closedNow() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Press injects one key press. The next two state reads deliver the
// down and up edges.
func (d *Device) Press(key int) {
	if d.closedNow() {
		return
	}
	select {
	case d.input <- key:
	default:
	}
}

// Brightness returns the last accepted brightness.
func (d *Device) Brightness() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// KeyImage returns the last written encoded image for a key.
func (d *Device) KeyImage(key int) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.images[key]
	return img, ok
}
