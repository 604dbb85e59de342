package device

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/nerrad567/keydeck-core/internal/module"
)

// fakeDriver is an in-memory hardware stand-in. Encode copies the
// pixel buffer verbatim so identical images encode byte-identically.
type fakeDriver struct {
	mu sync.Mutex

	keys int
	size image.Point

	writes     map[int][][]byte
	encodes    int
	brightness []int

	reads    [][]bool // queued ReadKeyStates results
	readErr  error
	writeErr error
	closed   bool
}

func newFakeDriver(keys int) *fakeDriver {
	return &fakeDriver{
		keys:   keys,
		size:   image.Pt(72, 72),
		writes: make(map[int][][]byte),
	}
}

func (d *fakeDriver) KeyCount() int          { return d.keys }
func (d *fakeDriver) ImageSize() image.Point { return d.size }

func (d *fakeDriver) SetBrightness(percent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = append(d.brightness, percent)
	return nil
}

func (d *fakeDriver) Encode(img *image.RGBA) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.encodes++
	out := make([]byte, len(img.Pix))
	copy(out, img.Pix)
	return out, nil
}

func (d *fakeDriver) WriteKeyImage(key int, encoded []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeErr != nil {
		return d.writeErr
	}
	d.writes[key] = append(d.writes[key], encoded)
	return nil
}

func (d *fakeDriver) ReadKeyStates(_ time.Duration) ([]bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return nil, d.readErr
	}
	if len(d.reads) == 0 {
		return nil, ErrNoData
	}
	next := d.reads[0]
	d.reads = d.reads[1:]
	return next, nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, w := range d.writes {
		n += len(w)
	}
	return n
}

func (d *fakeDriver) encodeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.encodes
}

func (d *fakeDriver) queueRead(states []bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads = append(d.reads, states)
}

// recordingSink captures input events and can simulate a dead consumer.
type recordingSink struct {
	mu     sync.Mutex
	events []module.Event
	err    error
}

func (s *recordingSink) HandleInput(ev module.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) byType(t module.EventType) []module.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []module.Event
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// fakeConnector hands out fake drivers and can be told to fail.
type fakeConnector struct {
	mu        sync.Mutex
	keys      int
	attached  []DeviceInfo
	failNext  bool
	connected int
}

func (f *fakeConnector) Available() ([]DeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeviceInfo(nil), f.attached...), nil
}

func (f *fakeConnector) Connect(info DeviceInfo) (Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, fmt.Errorf("connect %s: %w", info.Serial, ErrDisconnected)
	}
	f.connected++
	return newFakeDriver(f.keys), nil
}
