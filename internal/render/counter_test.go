package render

import (
	"testing"
	"time"
)

func TestCounterFrameSelection(t *testing.T) {
	// delays 100/150/250ms, cumulative ends 100/250/500
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{99 * time.Millisecond, 0},
		{120 * time.Millisecond, 1},
		{250 * time.Millisecond, 2},
		{499 * time.Millisecond, 2},
		{520 * time.Millisecond, 0}, // one full loop plus 20ms
	}
	for _, tt := range tests {
		c := NewCounter([]int{100, 150, 250})
		if got := c.Advance(tt.elapsed); got != tt.want {
			t.Errorf("Advance(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestCounterChangedFlagOneShot(t *testing.T) {
	c := NewCounter([]int{100, 150, 250})

	c.Advance(50 * time.Millisecond)
	if c.ConsumeChanged() {
		t.Error("no transition yet, changed should be false")
	}

	c.Advance(120 * time.Millisecond)
	if !c.ConsumeChanged() {
		t.Error("transition to frame 1 should set changed")
	}
	if c.ConsumeChanged() {
		t.Error("changed must clear after consumption")
	}

	// repeated queries inside the same frame set nothing
	c.Advance(130 * time.Millisecond)
	c.Advance(200 * time.Millisecond)
	if c.ConsumeChanged() {
		t.Error("queries within one frame must not re-set changed")
	}
}

func TestCounterSingleFrameNeverChanges(t *testing.T) {
	c := NewCounter([]int{100})

	for _, e := range []time.Duration{0, 50 * time.Millisecond, 5 * time.Second} {
		if got := c.Advance(e); got != 0 {
			t.Errorf("Advance(%v) = %d, want 0", e, got)
		}
	}
	if c.ConsumeChanged() {
		t.Error("single-frame image can never change frames")
	}
}

func TestCounterClampsBadDelays(t *testing.T) {
	c := NewCounter([]int{0, -5})
	// clamped to 1ms each, total 2ms; must not divide by zero
	if got := c.Advance(3 * time.Millisecond); got != 1 {
		t.Errorf("Advance(3ms) = %d, want 1", got)
	}
}

func TestCounterNextWake(t *testing.T) {
	c := NewCounter([]int{100, 150, 250})

	c.Advance(120 * time.Millisecond)
	if got := c.NextWake(120 * time.Millisecond); got != 130*time.Millisecond {
		t.Errorf("NextWake at 120ms = %v, want 130ms", got)
	}
}
