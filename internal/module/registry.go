package module

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerrad567/keydeck-core/internal/button"
)

// Logger defines the logging interface used by the Registry.
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

// Registry tracks registered modules, the component-to-owner index, named
// custom renderers, and the global paint block-list.
//
// The owner index is built incrementally as modules register; dispatch and
// painter selection never rescan module declarations.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.RWMutex
	modules   map[string]Module
	order     []string          // registration order, drives paint order
	owners    map[string]string // component name -> owning module name
	renderers map[string]CustomRenderer
	blocked   map[string]struct{} // global paint block-list, module names
	logger    Logger
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules:   make(map[string]Module),
		owners:    make(map[string]string),
		renderers: make(map[string]CustomRenderer),
		blocked:   make(map[string]struct{}),
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register adds a module and claims its component names.
//
// Registration is all-or-nothing: a name or component conflict leaves the
// registry unchanged. Registration order is preserved and determines
// paint order during compositing.
func (r *Registry) Register(m Module) error {
	name := m.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("%w: %s", ErrModuleExists, name)
	}
	for _, comp := range m.Components() {
		if owner, taken := r.owners[comp]; taken {
			return fmt.Errorf("%w: %q claimed by %s", ErrComponentOwned, comp, owner)
		}
	}

	r.modules[name] = m
	r.order = append(r.order, name)
	for _, comp := range m.Components() {
		r.owners[comp] = name
	}

	_, paints := m.(Painter)
	r.logger.Info("module registered",
		"module", name,
		"components", m.Components(),
		"painter", paints)
	return nil
}

// Owner returns the module owning the given component name.
func (r *Registry) Owner(component string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.owners[component]
	if !ok {
		return nil, false
	}
	m, ok := r.modules[name]
	return m, ok
}

// Module returns a registered module by name.
func (r *Registry) Module(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[name]
	return m, ok
}

// Modules returns all registered modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.modules[name])
	}
	return out
}

// Components returns every owned component name, sorted.
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.owners))
	for comp := range r.owners {
		out = append(out, comp)
	}
	sort.Strings(out)
	return out
}

// Dispatch fans an event out to interested modules, skipping the
// originator named in ev.Origin.
//
// Input events (down/up/action) go only to modules owning a component
// present on the pressed button; CRUD and panel lifecycle events go to
// every module, since a deleted button no longer carries the components
// that would identify its audience. Handlers run synchronously in
// registration order.
func (r *Registry) Dispatch(ev Event) {
	inputScoped := ev.Type == EventButtonDown ||
		ev.Type == EventButtonUp ||
		ev.Type == EventButtonAction

	r.mu.RLock()
	targets := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		if name == ev.Origin {
			continue
		}
		m := r.modules[name]
		if inputScoped && (ev.Button == nil || !ownsAny(m, ev.Button)) {
			continue
		}
		targets = append(targets, m)
	}
	r.mu.RUnlock()

	for _, m := range targets {
		m.HandleEvent(ev)
	}
}

// PaintersFor returns the painters that contribute to a button's image,
// in registration order.
//
// A module paints only if it owns a component present on the button,
// implements Painter, and is blocked by neither the button's block-list
// nor the global block-list. The same filter applies whether the default
// pipeline or a custom renderer requests the list.
func (r *Registry) PaintersFor(btn *button.Button, buttonBlocked []string) []Painter {
	var btnBlock map[string]struct{}
	if len(buttonBlocked) > 0 {
		btnBlock = make(map[string]struct{}, len(buttonBlocked))
		for _, name := range buttonBlocked {
			btnBlock[name] = struct{}{}
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Painter
	for _, name := range r.order {
		if _, blocked := r.blocked[name]; blocked {
			continue
		}
		if _, blocked := btnBlock[name]; blocked {
			continue
		}
		p, ok := r.modules[name].(Painter)
		if !ok || !ownsAny(r.modules[name], btn) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ownsAny reports whether any of the module's components is present on
// the button. Callers hold the registry lock.
func ownsAny(m Module, btn *button.Button) bool {
	for _, comp := range m.Components() {
		if btn.Has(comp) {
			return true
		}
	}
	return false
}

// SetGlobalBlock replaces the global paint block-list. Blocked modules
// still receive events; only their paint contributions are suppressed.
func (r *Registry) SetGlobalBlock(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blocked = make(map[string]struct{}, len(names))
	for _, name := range names {
		r.blocked[name] = struct{}{}
	}
	r.logger.Debug("global paint block-list updated", "modules", names)
}

// GloballyBlocked reports whether a module is on the global block-list.
func (r *Registry) GloballyBlocked(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, blocked := r.blocked[name]
	return blocked
}

// RegisterRenderer adds a named custom renderer.
func (r *Registry) RegisterRenderer(name string, cr CustomRenderer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("%w: %s", ErrRendererExists, name)
	}
	r.renderers[name] = cr
	r.logger.Info("custom renderer registered", "renderer", name)
	return nil
}

// Renderer looks up a custom renderer by name.
func (r *Registry) Renderer(name string) (CustomRenderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cr, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRendererNotFound, name)
	}
	return cr, nil
}
