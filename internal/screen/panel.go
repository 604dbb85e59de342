package screen

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/nerrad567/keydeck-core/internal/button"
)

// RawPanel is the fully self-contained form of a panel, suitable for
// persistence and export. Button keys are physical key indices.
type RawPanel struct {
	DisplayName string             `json:"display_name"`
	Tag         json.RawMessage    `json:"tag,omitempty"`
	Buttons     map[int]button.Raw `json:"buttons"`
}

// Clone returns a deep copy of the raw panel.
func (r RawPanel) Clone() RawPanel {
	out := RawPanel{
		DisplayName: r.DisplayName,
		Buttons:     make(map[int]button.Raw, len(r.Buttons)),
	}
	if r.Tag != nil {
		out.Tag = make(json.RawMessage, len(r.Tag))
		copy(out.Tag, r.Tag)
	}
	for key, raw := range r.Buttons {
		out.Buttons[key] = raw.Clone()
	}
	return out
}

// Panel is the live, shared form of a screen: a display name, an opaque
// tag payload, and a mapping from key index to shared button handles.
//
// The same *Panel may be reachable from a device stack and from a cached
// virtual-folder reference at once. Interior locking makes concurrent
// access safe; deep copies happen only on explicit Export.
type Panel struct {
	mu      sync.RWMutex
	name    string
	tag     json.RawMessage
	buttons map[int]*button.Button
}

// NewPanel creates an empty live panel.
func NewPanel(name string) *Panel {
	return &Panel{
		name:    name,
		buttons: make(map[int]*button.Button),
	}
}

// FromRaw deep-wraps a raw panel into a live one. Every button becomes a
// fresh shared handle; the raw source is not aliased.
func FromRaw(raw RawPanel) *Panel {
	p := &Panel{
		name:    raw.DisplayName,
		buttons: make(map[int]*button.Button, len(raw.Buttons)),
	}
	if raw.Tag != nil {
		p.tag = make(json.RawMessage, len(raw.Tag))
		copy(p.tag, raw.Tag)
	}
	for key, rb := range raw.Buttons {
		p.buttons[key] = button.FromRaw(rb)
	}
	return p
}

// Export deep-copies the live panel into its self-contained raw form.
func (p *Panel) Export() RawPanel {
	p.mu.RLock()
	defer p.mu.RUnlock()

	raw := RawPanel{
		DisplayName: p.name,
		Buttons:     make(map[int]button.Raw, len(p.buttons)),
	}
	if p.tag != nil {
		raw.Tag = make(json.RawMessage, len(p.tag))
		copy(raw.Tag, p.tag)
	}
	for key, b := range p.buttons {
		raw.Buttons[key] = b.Export()
	}
	return raw
}

// Name returns the panel's display name.
func (p *Panel) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Tag returns a copy of the panel's opaque tag payload, or nil.
func (p *Panel) Tag() json.RawMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.tag == nil {
		return nil
	}
	cp := make(json.RawMessage, len(p.tag))
	copy(cp, p.tag)
	return cp
}

// SetTag replaces the panel's opaque tag payload.
func (p *Panel) SetTag(tag json.RawMessage) {
	cp := make(json.RawMessage, len(tag))
	copy(cp, tag)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tag = cp
}

// Button returns the shared handle at the given key index.
func (p *Panel) Button(key int) (*button.Button, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.buttons[key]
	return b, ok
}

// SetButton places a shared handle at the given key index, replacing any
// existing one. The previous handle (if any) is returned so callers can
// emit the right lifecycle event.
func (p *Panel) SetButton(key int, b *button.Button) (prev *button.Button, replaced bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, replaced = p.buttons[key]
	p.buttons[key] = b
	return prev, replaced
}

// RemoveButton removes the handle at the given key index and returns it.
func (p *Panel) RemoveButton(key int) (*button.Button, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	b, ok := p.buttons[key]
	delete(p.buttons, key)
	return b, ok
}

// Keys returns the occupied key indices, sorted ascending.
func (p *Panel) Keys() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	keys := make([]int, 0, len(p.buttons))
	for key := range p.buttons {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

// Len returns the number of occupied keys.
func (p *Panel) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buttons)
}
