package button

import (
	"encoding/json"
	"sort"
	"sync"
)

// Raw is the fully self-contained form of a button: component name to
// serialised payload. Raw values share nothing; they are safe to persist,
// send over the wire, or hold across device reconnects.
type Raw map[string]json.RawMessage

// Clone returns a deep copy of the raw button.
func (r Raw) Clone() Raw {
	out := make(Raw, len(r))
	for name, payload := range r {
		cp := make(json.RawMessage, len(payload))
		copy(cp, payload)
		out[name] = cp
	}
	return out
}

// Button is the live, shared form of a button: a lockable handle over a set
// of named components. The same *Button may be held by a stack slot, a
// copy/paste buffer, or a cached virtual-folder panel at once; a mutation
// through any holder is visible to all of them. The button lives as long as
// its longest holder.
//
// Components are opaque serialised payloads. The core never interprets
// them; modules do, through the typed Get/Set helpers.
type Button struct {
	mu         sync.RWMutex
	components map[string]json.RawMessage
}

// New creates an empty button.
func New() *Button {
	return &Button{components: make(map[string]json.RawMessage)}
}

// FromRaw deep-wraps a raw button into a live handle. The raw value is
// copied; later edits to either side do not alias.
func FromRaw(raw Raw) *Button {
	b := &Button{components: make(map[string]json.RawMessage, len(raw))}
	for name, payload := range raw {
		cp := make(json.RawMessage, len(payload))
		copy(cp, payload)
		b.components[name] = cp
	}
	return b
}

// Export deep-copies the button into its self-contained raw form.
func (b *Button) Export() Raw {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(Raw, len(b.components))
	for name, payload := range b.components {
		cp := make(json.RawMessage, len(payload))
		copy(cp, payload)
		out[name] = cp
	}
	return out
}

// Component returns a copy of the named component's payload.
// The second return is false if the component is absent.
func (b *Button) Component(name string) (json.RawMessage, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	payload, ok := b.components[name]
	if !ok {
		return nil, false
	}
	cp := make(json.RawMessage, len(payload))
	copy(cp, payload)
	return cp, true
}

// Has reports whether the button carries the named component.
func (b *Button) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.components[name]
	return ok
}

// SetRaw inserts or overwrites the named component with a serialised
// payload. The payload is copied. Editing one component never perturbs
// another's payload; each name owns its own bytes.
func (b *Button) SetRaw(name string, payload json.RawMessage) {
	cp := make(json.RawMessage, len(payload))
	copy(cp, payload)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.components[name] = cp
}

// Remove deletes the named component. It reports whether the component
// existed.
func (b *Button) Remove(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.components[name]
	delete(b.components, name)
	return ok
}

// Names returns the component names on this button, sorted for
// deterministic iteration.
func (b *Button) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.components))
	for name := range b.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of components on the button.
func (b *Button) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.components)
}

// Get interprets the named component as T via a JSON round-trip.
//
// Absence or a payload that does not deserialise into T yields the zero
// value and false rather than an error: one module's malformed data must
// never break another module's read path.
func Get[T any](b *Button, name string) (T, bool) {
	var value T

	payload, ok := b.Component(name)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		return value, false
	}
	return value, true
}

// Set writes T back as the named component's payload via serialisation.
// Only values that fail to serialise return an error.
func Set[T any](b *Button, name string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	b.SetRaw(name, payload)
	return nil
}
