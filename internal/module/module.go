package module

import (
	"image"

	"github.com/nerrad567/keydeck-core/internal/button"
	"github.com/nerrad567/keydeck-core/internal/screen"
)

// EventType identifies a lifecycle event delivered to modules.
type EventType string

// Lifecycle event types. Button CRUD and panel stack mutations are emitted
// synchronously after the mutation commits; down/up/action come from the
// device render loop's input handling.
const (
	EventButtonAdded   EventType = "button_added"
	EventButtonUpdated EventType = "button_updated"
	EventButtonDeleted EventType = "button_deleted"
	EventPanelPushed   EventType = "panel_pushed"
	EventPanelPopped   EventType = "panel_popped"
	EventPanelReset    EventType = "panel_reset"
	EventButtonDown    EventType = "button_down"
	EventButtonUp      EventType = "button_up"
	EventButtonAction  EventType = "button_action"
)

// Event carries one lifecycle notification.
//
// Button is set for button-scoped events; Panel for panel-scoped ones.
// Origin names the module whose own call caused the mutation, so fan-out
// can skip the originator instead of echoing its action back at it.
type Event struct {
	Type   EventType
	Serial string
	Key    int
	Button *button.Button
	Panel  *screen.Panel
	Origin string
}

// Module is the narrow capability interface every plugin implements.
//
// Components declares the component names the module owns; the registry
// resolves this into a name-to-owner index once at registration, so
// per-call routing never scans the module list.
type Module interface {
	// Name is the unique module identifier.
	Name() string

	// Components lists the component names this module owns.
	Components() []string

	// HandleEvent receives lifecycle events the module is interested in.
	// Called synchronously from mutation paths and device loops; handlers
	// must not block.
	HandleEvent(ev Event)
}

// Painter is implemented by modules that contribute pixels to the default
// compositing pipeline.
type Painter interface {
	Module

	// Paint draws the module's contribution onto the in-progress image.
	Paint(dst *image.RGBA, key int, btn *button.Button)

	// PaintStamp returns a value that captures everything Paint would
	// draw. It feeds the structural render hash: while the stamp is
	// unchanged, the cached composite stays valid.
	PaintStamp(key int, btn *button.Button) string
}

// CustomRenderer fully replaces the default compositing pipeline for
// buttons whose renderer component names it.
type CustomRenderer interface {
	// Render produces the complete key image. Errors degrade to a
	// placeholder; they never abort the device tick.
	Render(serial string, key int, btn *button.Button, bounds image.Rectangle) (*image.RGBA, error)
}
