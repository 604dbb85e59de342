package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/nerrad567/keydeck-core/internal/button"
	"github.com/nerrad567/keydeck-core/internal/module"
)

var (
	colorBlack = color.RGBA{A: 0xff}
	colorWhite = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Compositor turns a renderer component plus module paint contributions
// into a finished RGBA key image. It holds no per-device state; one
// compositor serves every device loop.
type Compositor struct {
	fonts *FontStore
}

// NewCompositor creates a compositor drawing text with the given store.
func NewCompositor(fonts *FontStore) *Compositor {
	return &Compositor{fonts: fonts}
}

// Compose runs the default pipeline: background, then each painter in
// order with mutable access to the in-progress image, then text
// overlays. bg is the resolved active frame for image backgrounds and
// nil otherwise; a nil frame for an image background means the
// reference did not resolve and draws the placeholder instead.
func (c *Compositor) Compose(size image.Point, rc *Component, bg *Frame, painters []module.Painter, key int, btn *button.Button) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	c.drawBackground(dst, rc, bg)

	for _, p := range painters {
		p.Paint(dst, key, btn)
	}

	for i := range rc.Text {
		c.drawText(dst, &rc.Text[i])
	}
	return dst
}

// Blank returns an opaque black image, the content written to cleared
// keys.
func Blank(size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(dst, dst.Rect, image.NewUniform(colorBlack), image.Point{}, draw.Src)
	return dst
}

func (c *Compositor) drawBackground(dst *image.RGBA, rc *Component, bg *Frame) {
	switch rc.Background.Type {
	case BackgroundSolid:
		fill(dst, ParseColor(rc.Background.Color, colorBlack))

	case BackgroundHorizontalGradient, BackgroundVerticalGradient:
		start := ParseColor(rc.Background.Start, colorBlack)
		end := ParseColor(rc.Background.End, colorBlack)
		horizontal := rc.Background.Type == BackgroundHorizontalGradient
		drawGradient(dst, start, end, horizontal)

	case BackgroundImage, BackgroundNewImage:
		if bg == nil {
			c.drawPlaceholder(dst, rc.Background.Image)
			return
		}
		src, err := bg.RGBA()
		if err != nil {
			c.drawPlaceholder(dst, rc.Background.Image)
			return
		}
		drawFrame(dst, src, bg.OffsetX, bg.OffsetY)

	default:
		// Custom backgrounds never reach the default pipeline; anything
		// unknown becomes black rather than garbage.
		fill(dst, colorBlack)
	}
}

func fill(dst *image.RGBA, clr color.RGBA) {
	draw.Draw(dst, dst.Rect, image.NewUniform(clr), image.Point{}, draw.Src)
}

func drawGradient(dst *image.RGBA, start, end color.RGBA, horizontal bool) {
	b := dst.Rect
	span := b.Dx()
	if !horizontal {
		span = b.Dy()
	}
	if span <= 1 {
		fill(dst, start)
		return
	}

	for i := 0; i < span; i++ {
		clr := lerpColor(start, end, float64(i)/float64(span-1))
		if horizontal {
			line := image.Rect(b.Min.X+i, b.Min.Y, b.Min.X+i+1, b.Max.Y)
			draw.Draw(dst, line, image.NewUniform(clr), image.Point{}, draw.Src)
		} else {
			line := image.Rect(b.Min.X, b.Min.Y+i, b.Max.X, b.Min.Y+i+1)
			draw.Draw(dst, line, image.NewUniform(clr), image.Point{}, draw.Src)
		}
	}
}

// drawFrame places a frame onto the key surface. A frame matching the
// surface is copied at its offset; anything else is resized to fill,
// cropping the overflowing axis to keep aspect ratio.
func drawFrame(dst *image.RGBA, src *image.RGBA, offsetX, offsetY int) {
	db, sb := dst.Rect, src.Rect
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() && offsetX == 0 && offsetY == 0 {
		draw.Draw(dst, db, src, sb.Min, draw.Src)
		return
	}
	if offsetX != 0 || offsetY != 0 {
		target := sb.Add(image.Pt(offsetX, offsetY)).Sub(sb.Min).Add(db.Min)
		draw.Draw(dst, target.Intersect(db), src, sb.Min, draw.Over)
		return
	}

	scaleX := float64(db.Dx()) / float64(sb.Dx())
	scaleY := float64(db.Dy()) / float64(sb.Dy())
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}
	w := int(float64(sb.Dx())*scale + 0.5)
	h := int(float64(sb.Dy())*scale + 0.5)

	// Center the scaled image so the crop trims both edges evenly.
	target := image.Rect(0, 0, w, h).
		Add(image.Pt((db.Dx()-w)/2, (db.Dy()-h)/2)).
		Add(db.Min)
	xdraw.BiLinear.Scale(dst, target, src, sb, xdraw.Src, nil)
}

// drawText renders one overlay at its computed anchor, shadow pass
// first so the glyphs land on top of it.
func (c *Compositor) drawText(dst *image.RGBA, t *TextObject) {
	if t.Text == "" {
		return
	}
	face := c.fonts.Face(t.Font, t.Scale)

	d := &font.Drawer{
		Dst:  dst,
		Face: face,
	}
	width := d.MeasureString(t.Text).Round()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Round()

	x, y := anchor(dst.Rect, t.Align, t.Padding, width, height)
	x += t.OffsetX
	y += t.OffsetY
	baseline := y + metrics.Ascent.Round()

	if t.Shadow != nil {
		d.Src = image.NewUniform(ParseColor(t.Shadow.Color, colorBlack))
		d.Dot = fixed.P(x+t.Shadow.OffsetX, baseline+t.Shadow.OffsetY)
		d.DrawString(t.Text)
	}
	d.Src = image.NewUniform(ParseColor(t.Color, colorWhite))
	d.Dot = fixed.P(x, baseline)
	d.DrawString(t.Text)
}

// anchor resolves a 9-way alignment to the top-left corner of the text
// box within bounds, inset by padding.
func anchor(bounds image.Rectangle, align string, padding, width, height int) (int, int) {
	inner := bounds.Inset(padding)

	var x, y int
	switch align {
	case AlignTopLeft, AlignMiddleLeft, AlignBottomLeft:
		x = inner.Min.X
	case AlignTopRight, AlignMiddleRight, AlignBottomRight:
		x = inner.Max.X - width
	default:
		x = inner.Min.X + (inner.Dx()-width)/2
	}
	switch align {
	case AlignTopLeft, AlignTopCenter, AlignTopRight:
		y = inner.Min.Y
	case AlignBottomLeft, AlignBottomCenter, AlignBottomRight:
		y = inner.Max.Y - height
	default:
		y = inner.Min.Y + (inner.Dy()-height)/2
	}
	return x, y
}

// drawPlaceholder fills the key with a checkerboard and the unresolved
// reference name, keeping a broken button visibly broken instead of
// failing the tick.
func (c *Compositor) drawPlaceholder(dst *image.RGBA, label string) {
	const square = 8
	light := color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
	dark := color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}

	b := dst.Rect
	for y := b.Min.Y; y < b.Max.Y; y += square {
		for x := b.Min.X; x < b.Max.X; x += square {
			clr := light
			if ((x-b.Min.X)/square+(y-b.Min.Y)/square)%2 == 1 {
				clr = dark
			}
			cell := image.Rect(x, y, x+square, y+square).Intersect(b)
			draw.Draw(dst, cell, image.NewUniform(clr), image.Point{}, draw.Src)
		}
	}

	if label == "" {
		label = "missing"
	}
	c.drawText(dst, &TextObject{
		Text:   label,
		Align:  AlignCenter,
		Color:  "#ff5555",
		Shadow: &Shadow{Color: "#000000", OffsetX: 1, OffsetY: 1},
	})
}
