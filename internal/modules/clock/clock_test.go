package clock

import (
	"image"
	"testing"
	"time"

	"github.com/nerrad567/keydeck-core/internal/button"
	"github.com/nerrad567/keydeck-core/internal/render"
)

func testClock(t *testing.T, at time.Time) *Clock {
	t.Helper()
	c := New(render.NewFontStore(t.TempDir()))
	c.now = func() time.Time { return at }
	return c
}

func clockButton(t *testing.T, comp Component) *button.Button {
	t.Helper()
	b := button.New()
	if err := button.Set(b, ComponentName, comp); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPaintStampTracksFormat(t *testing.T) {
	at := time.Date(2025, 6, 1, 14, 30, 45, 0, time.UTC)
	c := testClock(t, at)

	b := clockButton(t, Component{})
	if got := c.PaintStamp(0, b); got != "14:30" {
		t.Errorf("default stamp = %q, want 14:30", got)
	}

	b = clockButton(t, Component{Format: "15:04:05"})
	if got := c.PaintStamp(0, b); got != "14:30:45" {
		t.Errorf("seconds stamp = %q, want 14:30:45", got)
	}
}

func TestPaintStampStableWithinMinute(t *testing.T) {
	b := clockButton(t, Component{})

	first := testClock(t, time.Date(2025, 6, 1, 14, 30, 5, 0, time.UTC)).PaintStamp(0, b)
	second := testClock(t, time.Date(2025, 6, 1, 14, 30, 55, 0, time.UTC)).PaintStamp(0, b)
	if first != second {
		t.Errorf("stamps differ within a minute: %q vs %q", first, second)
	}
}

func TestPaintStampEmptyWithoutComponent(t *testing.T) {
	c := testClock(t, time.Now())
	if got := c.PaintStamp(0, button.New()); got != "" {
		t.Errorf("stamp without component = %q, want empty", got)
	}
}

func TestPaintDrawsPixels(t *testing.T) {
	c := testClock(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC))
	b := clockButton(t, Component{Color: "#ffffff"})

	dst := image.NewRGBA(image.Rect(0, 0, 72, 72))
	c.Paint(dst, 0, b)

	lit := 0
	for i := 3; i < len(dst.Pix); i += 4 {
		if dst.Pix[i] != 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("Paint drew nothing")
	}
}

func TestPaintSkipsBareButton(t *testing.T) {
	c := testClock(t, time.Now())
	dst := image.NewRGBA(image.Rect(0, 0, 72, 72))
	c.Paint(dst, 0, button.New())

	for i, px := range dst.Pix {
		if px != 0 {
			t.Fatalf("pixel %d touched on button without component", i)
		}
	}
}
