package render

import "time"

// Counter tracks the playback position of one animated image against
// wall-clock time.
//
// The frame timeline is precomputed once as a prefix sum of per-frame
// delays; each Advance maps elapsed time modulo the loop duration to a
// frame index. While elapsed time stays inside the active frame's
// window the scan is skipped entirely, so a render loop running far
// faster than the animation pays a comparison, not a search.
//
// Counter is owned by a single device loop and is not safe for
// concurrent use.
type Counter struct {
	ends    []int64 // cumulative frame end times, ms
	total   int64   // full loop duration, ms
	epoch   time.Time
	active  int
	changed bool
}

// NewCounter builds a counter from per-frame delays in milliseconds.
// Non-positive delays are clamped to 1ms so a malformed image can
// never produce a zero-length loop.
func NewCounter(delaysMS []int) *Counter {
	c := &Counter{
		ends:  make([]int64, len(delaysMS)),
		epoch: time.Now(),
	}
	var cum int64
	for i, d := range delaysMS {
		if d < 1 {
			d = 1
		}
		cum += int64(d)
		c.ends[i] = cum
	}
	c.total = cum
	return c
}

// Observe advances the counter to the given wall-clock instant and
// returns the active frame index.
func (c *Counter) Observe(now time.Time) int {
	return c.Advance(now.Sub(c.epoch))
}

// Elapsed converts a wall-clock instant to the counter's playback
// position, the form Advance and NextWake take.
func (c *Counter) Elapsed(now time.Time) time.Duration {
	return now.Sub(c.epoch)
}

// Advance moves the counter to the given elapsed time since creation
// and returns the active frame index. The changed flag is set exactly
// once per index transition.
func (c *Counter) Advance(elapsed time.Duration) int {
	if len(c.ends) < 2 || c.total == 0 {
		return 0
	}

	pos := elapsed.Milliseconds() % c.total
	if pos < 0 {
		pos = 0
	}

	// Still inside the active frame's window: no scan, no change.
	var start int64
	if c.active > 0 {
		start = c.ends[c.active-1]
	}
	if pos >= start && pos < c.ends[c.active] {
		return c.active
	}

	for i, end := range c.ends {
		if pos < end {
			if i != c.active {
				c.active = i
				c.changed = true
			}
			return c.active
		}
	}
	// Unreachable while total equals the last end, kept as a guard.
	c.active = 0
	return 0
}

// Active returns the current frame index without advancing.
func (c *Counter) Active() int {
	return c.active
}

// ConsumeChanged reports whether the active frame changed since the
// last call, clearing the flag. The scheduler calls this once per tick.
func (c *Counter) ConsumeChanged() bool {
	ch := c.changed
	c.changed = false
	return ch
}

// NextWake returns how long from the given elapsed position until the
// active frame ends, letting a scheduler wake for the next frame
// instead of discovering it up to a full tick late.
func (c *Counter) NextWake(elapsed time.Duration) time.Duration {
	if len(c.ends) < 2 || c.total == 0 {
		return 0
	}
	pos := elapsed.Milliseconds() % c.total
	remaining := c.ends[c.active] - pos
	if remaining < 0 {
		remaining = 0
	}
	return time.Duration(remaining) * time.Millisecond
}
