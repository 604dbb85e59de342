package render

import (
	"encoding/json"

	"github.com/nerrad567/keydeck-core/internal/button"
)

// ComponentName is the reserved component under which a button stores
// its renderer definition.
const ComponentName = "renderer"

// BackgroundType selects how a button's base layer is produced.
type BackgroundType string

const (
	// BackgroundSolid fills the key with a single color.
	BackgroundSolid BackgroundType = "solid"

	// BackgroundHorizontalGradient blends Start to End left to right.
	BackgroundHorizontalGradient BackgroundType = "horizontal_gradient"

	// BackgroundVerticalGradient blends Start to End top to bottom.
	BackgroundVerticalGradient BackgroundType = "vertical_gradient"

	// BackgroundImage references a stored image by name.
	BackgroundImage BackgroundType = "image"

	// BackgroundNewImage carries inline image data in the component.
	BackgroundNewImage BackgroundType = "new_image"

	// BackgroundCustom delegates the whole key to a named custom
	// renderer, bypassing the default pipeline.
	BackgroundCustom BackgroundType = "custom"
)

// Component is the renderer definition a button carries under
// ComponentName. Every field participates in the structural render
// hash; changing any of them invalidates cached composites.
type Component struct {
	Background Background      `json:"background"`
	Text       []TextObject    `json:"text,omitempty"`
	PaintBlock []string        `json:"paint_block,omitempty"`
	ToCache    bool            `json:"to_cache"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Background describes the base layer. Which fields are meaningful
// depends on Type; the rest stay zero.
type Background struct {
	Type     BackgroundType `json:"type"`
	Color    string         `json:"color,omitempty"`
	Start    string         `json:"start,omitempty"`
	End      string         `json:"end,omitempty"`
	Image    string         `json:"image,omitempty"`
	Data     *ImageData     `json:"data,omitempty"`
	Renderer string         `json:"renderer,omitempty"`
}

// TextObject is one text overlay. Overlays draw in slice order on top
// of the background and module paint contributions.
type TextObject struct {
	Text    string  `json:"text"`
	Font    string  `json:"font,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
	Align   string  `json:"align,omitempty"`
	Padding int     `json:"padding,omitempty"`
	OffsetX int     `json:"offset_x,omitempty"`
	OffsetY int     `json:"offset_y,omitempty"`
	Color   string  `json:"color,omitempty"`
	Shadow  *Shadow `json:"shadow,omitempty"`
}

// Nine-way alignment anchors for TextObject.Align. An empty Align is
// treated as AlignCenter.
const (
	AlignTopLeft      = "top_left"
	AlignTopCenter    = "top_center"
	AlignTopRight     = "top_right"
	AlignMiddleLeft   = "middle_left"
	AlignCenter       = "center"
	AlignMiddleRight  = "middle_right"
	AlignBottomLeft   = "bottom_left"
	AlignBottomCenter = "bottom_center"
	AlignBottomRight  = "bottom_right"
)

// Shadow is an optional drop shadow behind a text overlay.
type Shadow struct {
	Color   string `json:"color"`
	OffsetX int    `json:"offset_x"`
	OffsetY int    `json:"offset_y"`
}

// FromButton extracts the renderer component from a button. Absence or
// a malformed payload reports false; a button without a renderer simply
// has no default appearance.
func FromButton(btn *button.Button) (Component, bool) {
	return button.Get[Component](btn, ComponentName)
}
