package device

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/render"
	"github.com/nerrad567/keydeck-core/internal/screen"
)

// eventRecorder is a registered module capturing dispatched events.
type eventRecorder struct {
	name       string
	components []string

	mu     sync.Mutex
	events []module.Event
}

func (r *eventRecorder) Name() string         { return r.name }
func (r *eventRecorder) Components() []string { return r.components }
func (r *eventRecorder) HandleEvent(ev module.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []module.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]module.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func coreWithRecorder(t *testing.T, keys int) (*Core, *eventRecorder) {
	t.Helper()
	reg := module.NewRegistry()
	rec := &eventRecorder{name: "recorder", components: []string{"widget"}}
	if err := reg.Register(rec); err != nil {
		t.Fatalf("Register: %v", err)
	}
	c := testCore(t, newFakeDriver(keys), func(o *Options) { o.Registry = reg })
	return c, rec
}

func TestComponentCRUDEmitsLifecycle(t *testing.T) {
	c, rec := coreWithRecorder(t, 4)

	payload := json.RawMessage(`{"state":"on"}`)
	if err := c.SetComponent(1, "widget", payload, ""); err != nil {
		t.Fatalf("SetComponent: %v", err)
	}
	if err := c.SetComponent(1, "widget", json.RawMessage(`{"state":"off"}`), ""); err != nil {
		t.Fatalf("SetComponent update: %v", err)
	}
	if err := c.RemoveComponent(1, "widget", ""); err != nil {
		t.Fatalf("RemoveComponent: %v", err)
	}

	want := []module.EventType{
		module.EventButtonAdded,
		module.EventButtonUpdated,
		module.EventButtonDeleted,
	}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("event types = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event types = %v, want %v", got, want)
		}
	}
}

func TestComponentErrors(t *testing.T) {
	c, _ := coreWithRecorder(t, 2)

	if err := c.SetComponent(9, "widget", json.RawMessage(`{}`), ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("out-of-range key: err = %v, want ErrInvalidKey", err)
	}
	if _, err := c.Component(0, "widget"); !errors.Is(err, ErrButtonNotFound) {
		t.Errorf("empty key: err = %v, want ErrButtonNotFound", err)
	}

	if err := c.SetComponent(0, "widget", json.RawMessage(`{}`), ""); err != nil {
		t.Fatalf("SetComponent: %v", err)
	}
	if _, err := c.Component(0, "other"); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("missing component: err = %v, want ErrComponentNotFound", err)
	}
	if err := c.RemoveComponent(0, "other", ""); !errors.Is(err, ErrComponentNotFound) {
		t.Errorf("remove missing: err = %v, want ErrComponentNotFound", err)
	}
}

func TestComponentIsolation(t *testing.T) {
	c, _ := coreWithRecorder(t, 1)

	a := json.RawMessage(`{"a":1}`)
	b := json.RawMessage(`{"b":2}`)
	c.SetComponent(0, "widget", a, "")
	c.SetComponent(0, "other", b, "")

	c.SetComponent(0, "widget", json.RawMessage(`{"a":99}`), "")
	got, err := c.Component(0, "other")
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if string(got) != `{"b":2}` {
		t.Errorf("editing widget perturbed other: %s", got)
	}

	c.RemoveComponent(0, "widget", "")
	if got, _ := c.Component(0, "other"); string(got) != `{"b":2}` {
		t.Errorf("removing widget perturbed other: %s", got)
	}
}

func TestScreenNavigation(t *testing.T) {
	c, rec := coreWithRecorder(t, 4)

	folder := screen.NewPanel("folder")
	if err := c.PushScreen(folder, ""); err != nil {
		t.Fatalf("PushScreen: %v", err)
	}
	top, _ := c.Top()
	if top != folder {
		t.Error("pushed panel should be visible")
	}

	if _, err := c.PopScreen(""); err != nil {
		t.Fatalf("PopScreen: %v", err)
	}
	if _, err := c.PopScreen(""); !errors.Is(err, screen.ErrOnlyOneRemaining) {
		t.Errorf("pop at root: err = %v, want ErrOnlyOneRemaining", err)
	}

	if err := c.ResetScreen(screen.NewPanel("fresh"), ""); err != nil {
		t.Fatalf("ResetScreen: %v", err)
	}

	types := rec.types()
	want := []module.EventType{
		module.EventPanelPushed,
		module.EventPanelPopped,
		module.EventPanelReset,
	}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
}

func TestClosedCoreRefusesMutations(t *testing.T) {
	c, _ := coreWithRecorder(t, 2)
	c.Close()

	if err := c.SetComponent(0, "widget", json.RawMessage(`{}`), ""); !errors.Is(err, ErrClosed) {
		t.Errorf("SetComponent on closed core: err = %v, want ErrClosed", err)
	}
	if err := c.PushScreen(screen.NewPanel("x"), ""); !errors.Is(err, ErrClosed) {
		t.Errorf("PushScreen on closed core: err = %v, want ErrClosed", err)
	}
	if err := c.SetBrightness(50); !errors.Is(err, ErrClosed) {
		t.Errorf("SetBrightness on closed core: err = %v, want ErrClosed", err)
	}
}

// memorySource is an in-memory ConfigSource.
type memorySource struct {
	mu    sync.Mutex
	saved map[string]*Config
}

func newMemorySource() *memorySource {
	return &memorySource{saved: make(map[string]*Config)}
}

func (s *memorySource) DeviceConfig(_ context.Context, serial string) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.saved[serial]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return cfg, nil
}

func (s *memorySource) SaveDeviceConfig(_ context.Context, cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[cfg.Serial] = cfg
	return nil
}

func TestCommitPersistsRootLayoutAndBrightness(t *testing.T) {
	store := newMemorySource()
	c := testCore(t, newFakeDriver(4), func(o *Options) {
		o.Store = store
		o.Brightness = 65
	})

	c.SetComponent(2, "widget", json.RawMessage(`{"v":1}`), "")
	// a pushed folder must not leak into the committed root layout
	c.PushScreen(screen.NewPanel("folder"), "")

	if err := c.Commit(context.Background()); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cfg, err := store.DeviceConfig(context.Background(), "SN-TEST")
	if err != nil {
		t.Fatalf("DeviceConfig: %v", err)
	}
	if cfg.Brightness != 65 {
		t.Errorf("committed brightness = %d, want 65", cfg.Brightness)
	}
	if cfg.Layout.DisplayName == "folder" {
		t.Error("commit wrote the pushed folder, not the root layout")
	}
	if _, ok := cfg.Layout.Buttons[2]; !ok {
		t.Error("committed root layout lost button 2")
	}
}

func TestDoButtonAction(t *testing.T) {
	c, rec := coreWithRecorder(t, 2)

	c.SetComponent(0, "widget", json.RawMessage(`{}`), "")
	if err := c.DoButtonAction(0, "cli"); err != nil {
		t.Fatalf("DoButtonAction: %v", err)
	}

	types := rec.types()
	if types[len(types)-1] != module.EventButtonAction {
		t.Errorf("last event = %v, want action", types[len(types)-1])
	}
}

func TestCopyPasteSharesOneButton(t *testing.T) {
	c, rec := coreWithRecorder(t, 4)

	c.SetComponent(0, "widget", json.RawMessage(`{"v":1}`), "")
	if err := c.CopyButton(0); err != nil {
		t.Fatalf("CopyButton: %v", err)
	}
	if err := c.PasteButton(3, ""); err != nil {
		t.Fatalf("PasteButton: %v", err)
	}

	// one handle on both keys: editing via key 3 shows through key 0
	c.SetComponent(3, "widget", json.RawMessage(`{"v":2}`), "")
	got, err := c.Component(0, "widget")
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("source payload = %s, want the pasted edit", got)
	}

	types := rec.types()
	if types[len(types)-2] != module.EventButtonAdded {
		t.Errorf("paste should emit button added, got %v", types)
	}
}

func TestPasteWithoutCopyRefused(t *testing.T) {
	c, _ := coreWithRecorder(t, 2)

	if err := c.PasteButton(0, ""); !errors.Is(err, ErrButtonNotFound) {
		t.Errorf("paste with empty buffer: err = %v, want ErrButtonNotFound", err)
	}
}

func TestSetImageAndResolve(t *testing.T) {
	c, _ := coreWithRecorder(t, 1)

	img := &render.ImageData{
		Name:   "logo",
		Frames: []render.Frame{{Width: 1, Height: 1, Pix: []byte{1, 2, 3, 4}, DelayMS: 0}},
	}
	if err := c.SetImage(img); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	got, ok := c.Image("logo")
	if !ok || got != img {
		t.Error("Image lookup should return the stored blob")
	}
	if err := c.SetImage(&render.ImageData{}); err == nil {
		t.Error("nameless image should be rejected")
	}
}
