package device

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/keydeck-core/internal/button"
	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/render"
	"github.com/nerrad567/keydeck-core/internal/screen"
)

// inboxSize bounds the command inbox. Producers never block: a full
// inbox drops the command with a warning, and the loop drains the
// whole backlog every tick anyway.
const inboxSize = 64

// Options configures a Core. Serial, Driver, Registry and Compositor
// are required; the rest default sensibly.
type Options struct {
	Serial    string
	VendorID  uint16
	ProductID uint16

	Driver     Driver
	Registry   *module.Registry
	Compositor *render.Compositor
	Store      ConfigSource

	Root       *screen.Panel
	Images     map[string]*render.ImageData
	Brightness int

	FrameRate     int
	CacheTTL      time.Duration
	SweepInterval time.Duration

	Input    InputSink
	Observer Observer
	Logger   Logger
}

// Core is the live capability handle for one connected device. It is
// the only way callers (protocol handlers, modules, the CLI) touch a
// device: panel stack navigation, component CRUD, brightness, actions,
// and explicit persistence all go through it.
//
// A Core is created per connection and wholesale-replaced on
// reconnect; a closed Core never resumes.
//
// All public methods are thread-safe.
type Core struct {
	serial    string
	vendorID  uint16
	productID uint16

	driver     Driver
	registry   *module.Registry
	compositor *render.Compositor
	store      ConfigSource
	input      InputSink
	observer   Observer
	logger     Logger

	frameRate     int
	cacheTTL      time.Duration
	sweepInterval time.Duration

	stack *screen.Stack

	mu         sync.RWMutex
	images     map[string]*render.ImageData
	brightness int

	commands chan command
	closed   atomic.Bool

	clipMu    sync.Mutex
	clipboard *button.Button
}

// NewCore creates the live handle for a freshly connected device. The
// root panel is seeded onto the stack and the saved brightness is
// queued for the first tick.
func NewCore(opts Options) *Core {
	root := opts.Root
	if root == nil {
		root = screen.NewPanel("root")
	}
	if opts.Images == nil {
		opts.Images = make(map[string]*render.ImageData)
	}
	if opts.Input == nil {
		opts.Input = registrySink{registry: opts.Registry}
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.FrameRate < 1 {
		opts.FrameRate = 30
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 10 * time.Second
	}

	c := &Core{
		serial:        opts.Serial,
		vendorID:      opts.VendorID,
		productID:     opts.ProductID,
		driver:        opts.Driver,
		registry:      opts.Registry,
		compositor:    opts.Compositor,
		store:         opts.Store,
		input:         opts.Input,
		observer:      opts.Observer,
		logger:        opts.Logger,
		frameRate:     opts.FrameRate,
		cacheTTL:      opts.CacheTTL,
		sweepInterval: opts.SweepInterval,
		stack:         screen.NewStack(root),
		images:        opts.Images,
		brightness:    opts.Brightness,
		commands:      make(chan command, inboxSize),
	}
	c.send(command{typ: cmdSetBrightness, brightness: opts.Brightness})
	c.send(command{typ: cmdRefresh})
	return c
}

// Serial returns the device serial number.
func (c *Core) Serial() string { return c.serial }

// Closed reports whether the device has been marked closed.
func (c *Core) Closed() bool { return c.closed.Load() }

// Close marks the device closed. The loop notices at its next tick
// top; nothing interrupts a tick mid-flight.
func (c *Core) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.logger.Info("device closed", "serial", c.serial)
	}
}

// send enqueues a command without ever blocking the caller.
func (c *Core) send(cmd command) {
	if c.closed.Load() {
		return
	}
	select {
	case c.commands <- cmd:
	default:
		c.logger.Warn("command inbox full, dropping command",
			"serial", c.serial, "command", cmd.typ)
	}
}

// Refresh asks the loop to rebuild its per-key render map from the
// current top panel. Every mutating operation calls this implicitly.
func (c *Core) Refresh() {
	c.send(command{typ: cmdRefresh})
}

// PushScreen pushes a panel onto the stack and redraws.
func (c *Core) PushScreen(p *screen.Panel, origin string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.stack.Push(p)
	c.registry.Dispatch(module.Event{
		Type: module.EventPanelPushed, Serial: c.serial, Panel: p, Origin: origin,
	})
	c.Refresh()
	return nil
}

// PopScreen pops the top panel. Popping the last panel is refused with
// screen.ErrOnlyOneRemaining; the stack is never empty while connected.
func (c *Core) PopScreen(origin string) (*screen.Panel, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	popped, err := c.stack.Pop()
	if err != nil {
		return nil, err
	}
	c.registry.Dispatch(module.Event{
		Type: module.EventPanelPopped, Serial: c.serial, Panel: popped, Origin: origin,
	})
	c.Refresh()
	return popped, nil
}

// ReplaceScreen swaps the top panel in place, keeping stack depth.
func (c *Core) ReplaceScreen(p *screen.Panel, origin string) (*screen.Panel, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	prev, err := c.stack.Replace(p)
	if err != nil {
		return nil, err
	}
	c.registry.Dispatch(module.Event{
		Type: module.EventPanelPushed, Serial: c.serial, Panel: p, Origin: origin,
	})
	c.Refresh()
	return prev, nil
}

// ResetScreen discards the whole stack and seeds a fresh root.
func (c *Core) ResetScreen(root *screen.Panel, origin string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.stack.Reset(root)
	c.registry.Dispatch(module.Event{
		Type: module.EventPanelReset, Serial: c.serial, Panel: root, Origin: origin,
	})
	c.Refresh()
	return nil
}

// Top returns the visible panel.
func (c *Core) Top() (*screen.Panel, bool) {
	return c.stack.Top()
}

// Component returns the raw payload of one component on the visible
// panel's button at key.
func (c *Core) Component(key int, name string) (json.RawMessage, error) {
	btn, err := c.buttonAt(key)
	if err != nil {
		return nil, err
	}
	payload, ok := btn.Component(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s on key %d", ErrComponentNotFound, name, key)
	}
	return payload, nil
}

// SetComponent writes a component payload onto the button at key on
// the visible panel, creating the button if the key is empty. Emits
// button added or updated and redraws.
func (c *Core) SetComponent(key int, name string, payload json.RawMessage, origin string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.validKey(key); err != nil {
		return err
	}
	top, ok := c.stack.Top()
	if !ok {
		return screen.ErrEmpty
	}

	evType := module.EventButtonUpdated
	btn, ok := top.Button(key)
	if !ok {
		btn = button.New()
		top.SetButton(key, btn)
		evType = module.EventButtonAdded
	}
	btn.SetRaw(name, payload)

	c.registry.Dispatch(module.Event{
		Type: evType, Serial: c.serial, Key: key, Button: btn, Origin: origin,
	})
	c.Refresh()
	return nil
}

// RemoveComponent deletes a component from the button at key. Removing
// the last component deletes the button and emits button deleted;
// otherwise button updated.
func (c *Core) RemoveComponent(key int, name string, origin string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	top, ok := c.stack.Top()
	if !ok {
		return screen.ErrEmpty
	}
	btn, ok := top.Button(key)
	if !ok {
		return fmt.Errorf("%w: key %d", ErrButtonNotFound, key)
	}
	if !btn.Remove(name) {
		return fmt.Errorf("%w: %s on key %d", ErrComponentNotFound, name, key)
	}

	evType := module.EventButtonUpdated
	if btn.Len() == 0 {
		top.RemoveButton(key)
		evType = module.EventButtonDeleted
	}
	c.registry.Dispatch(module.Event{
		Type: evType, Serial: c.serial, Key: key, Button: btn, Origin: origin,
	})
	c.Refresh()
	return nil
}

// Button returns the live button handle at key on the visible panel.
func (c *Core) Button(key int) (*button.Button, error) {
	return c.buttonAt(key)
}

func (c *Core) buttonAt(key int) (*button.Button, error) {
	if err := c.validKey(key); err != nil {
		return nil, err
	}
	top, ok := c.stack.Top()
	if !ok {
		return nil, screen.ErrEmpty
	}
	btn, ok := top.Button(key)
	if !ok {
		return nil, fmt.Errorf("%w: key %d", ErrButtonNotFound, key)
	}
	return btn, nil
}

func (c *Core) validKey(key int) error {
	if key < 0 || key >= c.driver.KeyCount() {
		return fmt.Errorf("%w: %d (device has %d keys)", ErrInvalidKey, key, c.driver.KeyCount())
	}
	return nil
}

// SetBrightness records the desired brightness and queues the hardware
// write onto the loop.
func (c *Core) SetBrightness(percent int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	c.mu.Lock()
	c.brightness = percent
	c.mu.Unlock()
	c.send(command{typ: cmdSetBrightness, brightness: percent})
	return nil
}

// Brightness returns the last requested brightness.
func (c *Core) Brightness() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.brightness
}

// SetButtonImage pushes pre-composited pixels straight to one key,
// bypassing the pipeline until the next refresh.
func (c *Core) SetButtonImage(key int, img *image.RGBA) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.validKey(key); err != nil {
		return err
	}
	c.send(command{typ: cmdSetImage, key: key, image: img})
	return nil
}

// ClearButton blanks one key until the next refresh.
func (c *Core) ClearButton(key int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.validKey(key); err != nil {
		return err
	}
	c.send(command{typ: cmdClearKey, key: key})
	return nil
}

// CopyButton stores the live handle of the button at key in the copy
// buffer. The buffer aliases the button: edits made after the copy are
// visible through it, and a paste shares rather than duplicates.
func (c *Core) CopyButton(key int) error {
	btn, err := c.buttonAt(key)
	if err != nil {
		return err
	}
	c.clipMu.Lock()
	c.clipboard = btn
	c.clipMu.Unlock()
	return nil
}

// PasteButton places the copied handle onto the visible panel at key.
// Source and destination then share one button; a component edit on
// either key shows up on both.
func (c *Core) PasteButton(key int, origin string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.validKey(key); err != nil {
		return err
	}
	c.clipMu.Lock()
	btn := c.clipboard
	c.clipMu.Unlock()
	if btn == nil {
		return fmt.Errorf("%w: copy buffer is empty", ErrButtonNotFound)
	}
	top, ok := c.stack.Top()
	if !ok {
		return screen.ErrEmpty
	}
	top.SetButton(key, btn)

	c.registry.Dispatch(module.Event{
		Type: module.EventButtonAdded, Serial: c.serial, Key: key, Button: btn, Origin: origin,
	})
	c.Refresh()
	return nil
}

// DoButtonAction dispatches an action event for the button at key to
// its owning modules, as if the key had been physically released.
func (c *Core) DoButtonAction(key int, origin string) error {
	btn, err := c.buttonAt(key)
	if err != nil {
		return err
	}
	c.registry.Dispatch(module.Event{
		Type: module.EventButtonAction, Serial: c.serial, Key: key, Button: btn, Origin: origin,
	})
	return nil
}

// Image resolves a named image blob.
func (c *Core) Image(name string) (*render.ImageData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.images[name]
	return img, ok
}

// SetImage stores or replaces a named image blob and redraws, since a
// background may reference it.
func (c *Core) SetImage(data *render.ImageData) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if data == nil || data.Name == "" {
		return fmt.Errorf("device: image data needs a name")
	}
	c.mu.Lock()
	c.images[data.Name] = data
	c.mu.Unlock()
	c.Refresh()
	return nil
}

// Commit writes the device's current brightness, root layout and image
// blobs back to persistence. This is the only write path; nothing
// persists implicitly mid-session.
func (c *Core) Commit(ctx context.Context) error {
	if c.store == nil {
		return fmt.Errorf("device: no config source wired")
	}

	raws := c.stack.Export()
	if len(raws) == 0 {
		return screen.ErrEmpty
	}

	c.mu.RLock()
	images := make(map[string]*render.ImageData, len(c.images))
	for name, img := range c.images {
		images[name] = img
	}
	brightness := c.brightness
	c.mu.RUnlock()

	cfg := &Config{
		Serial:     c.serial,
		VendorID:   c.vendorID,
		ProductID:  c.productID,
		Brightness: brightness,
		Layout:     raws[0],
		Images:     images,
	}
	if err := c.store.SaveDeviceConfig(ctx, cfg); err != nil {
		return fmt.Errorf("committing device %s: %w", c.serial, err)
	}
	c.logger.Info("device config committed", "serial", c.serial)
	return nil
}
