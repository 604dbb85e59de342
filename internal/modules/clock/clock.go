// Package clock is a built-in module painting the current time onto
// any button carrying a "clock" component.
//
// It demonstrates the painter contract end to end: the paint stamp is
// the formatted time string, so composites are re-rendered exactly
// when the displayed text changes and cached the rest of the time.
package clock

import (
	"image"
	"image/color"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/nerrad567/keydeck-core/internal/button"
	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/render"
)

// ComponentName is the component this module owns.
const ComponentName = "clock"

// defaultFormat shows hours and minutes; seconds are opt-in because
// they force a composite every second.
const defaultFormat = "15:04"

// Component is the clock's button payload.
type Component struct {
	// Format is a Go reference-time layout, e.g. "15:04:05".
	Format string  `json:"format,omitempty"`
	Font   string  `json:"font,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// Clock paints wall-clock time. One instance serves every device.
type Clock struct {
	fonts *render.FontStore

	// now is swappable for tests.
	now func() time.Time
}

// New creates the clock module drawing with the given font store.
func New(fonts *render.FontStore) *Clock {
	return &Clock{fonts: fonts, now: time.Now}
}

var _ module.Painter = (*Clock)(nil)

func (c *Clock) Name() string { return "clock" }

func (c *Clock) Components() []string { return []string{ComponentName} }

// HandleEvent ignores everything; the clock holds no per-button state.
func (c *Clock) HandleEvent(module.Event) {}

// PaintStamp is the formatted time itself: the render hash moves only
// when the visible text would.
func (c *Clock) PaintStamp(key int, btn *button.Button) string {
	comp, ok := button.Get[Component](btn, ComponentName)
	if !ok {
		return ""
	}
	return c.now().Format(layout(comp))
}

// Paint draws the current time centered on the key.
func (c *Clock) Paint(dst *image.RGBA, key int, btn *button.Button) {
	comp, ok := button.Get[Component](btn, ComponentName)
	if !ok {
		return
	}
	text := c.now().Format(layout(comp))

	face := c.fonts.Face(comp.Font, comp.Scale)
	d := &font.Drawer{
		Dst:  dst,
		Face: face,
		Src:  image.NewUniform(render.ParseColor(comp.Color, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})),
	}
	width := d.MeasureString(text).Round()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Round()

	b := dst.Rect
	x := b.Min.X + (b.Dx()-width)/2
	y := b.Min.Y + (b.Dy()-height)/2 + metrics.Ascent.Round()
	d.Dot = fixed.P(x, y)
	d.DrawString(text)
}

func layout(comp Component) string {
	if comp.Format == "" {
		return defaultFormat
	}
	return comp.Format
}
