package render

import (
	"fmt"
	"image"
)

// Frame is one frame of a stored image: raw RGBA pixels, playback
// delay, and a draw offset applied when the frame is smaller than the
// key surface.
type Frame struct {
	Pix     []byte `json:"pix"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	DelayMS int    `json:"delay_ms"`
	OffsetX int    `json:"offset_x,omitempty"`
	OffsetY int    `json:"offset_y,omitempty"`
}

// RGBA wraps the frame's pixel buffer as an image without copying.
// The returned image aliases Pix; treat it as read-only.
func (f *Frame) RGBA() (*image.RGBA, error) {
	want := f.Width * f.Height * 4
	if len(f.Pix) != want {
		return nil, fmt.Errorf("render: frame %dx%d wants %d pixel bytes, has %d",
			f.Width, f.Height, want, len(f.Pix))
	}
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}, nil
}

// ImageData is a named, possibly animated image: one frame for stills,
// several for animations. It is the unit of image persistence and the
// input to an animation Counter.
type ImageData struct {
	Name   string  `json:"name"`
	Frames []Frame `json:"frames"`
}

// Animated reports whether the image has more than one frame.
func (d *ImageData) Animated() bool {
	return d != nil && len(d.Frames) > 1
}

// Frame returns the frame at index, clamped into range so a stale
// animation index can never panic a render tick.
func (d *ImageData) Frame(index int) *Frame {
	if d == nil || len(d.Frames) == 0 {
		return nil
	}
	if index < 0 || index >= len(d.Frames) {
		index = 0
	}
	return &d.Frames[index]
}

// Delays returns the per-frame delays in milliseconds, the input shape
// a Counter is built from.
func (d *ImageData) Delays() []int {
	out := make([]int, len(d.Frames))
	for i := range d.Frames {
		out[i] = d.Frames[i].DelayMS
	}
	return out
}
