package history

import (
	"testing"
	"time"
)

type fakeWriter struct {
	presses []int
	ticks   []string
}

func (w *fakeWriter) WritePress(serial string, key int) {
	w.presses = append(w.presses, key)
}

func (w *fakeWriter) WriteTick(serial string, took time.Duration, writes int) {
	w.ticks = append(w.ticks, serial)
}

func TestPressesAreNeverSampled(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(w, 30)

	for i := 0; i < 5; i++ {
		r.ButtonPressed("AB12", i)
	}
	if len(w.presses) != 5 {
		t.Errorf("presses recorded = %d, want 5", len(w.presses))
	}
}

func TestTickDownsampling(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(w, 3)

	for i := 0; i < 7; i++ {
		r.TickDone("AB12", time.Millisecond, 0)
	}
	if len(w.ticks) != 2 {
		t.Errorf("ticks recorded = %d, want 2 (every 3rd of 7)", len(w.ticks))
	}
}

func TestTickSamplingIsPerDevice(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(w, 2)

	r.TickDone("A", time.Millisecond, 0)
	r.TickDone("B", time.Millisecond, 0)
	r.TickDone("A", time.Millisecond, 0)
	if len(w.ticks) != 1 || w.ticks[0] != "A" {
		t.Errorf("ticks = %v, want [A]", w.ticks)
	}
}

func TestSampleClampedToOne(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder(w, 0)

	r.TickDone("A", time.Millisecond, 1)
	if len(w.ticks) != 1 {
		t.Errorf("ticks = %d, want 1 with clamped sample rate", len(w.ticks))
	}
}
