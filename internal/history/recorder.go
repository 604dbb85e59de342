package history

import (
	"sync"
	"time"

	"github.com/nerrad567/keydeck-core/internal/device"
)

// MetricsWriter is the subset of the InfluxDB client the recorder
// needs. Writes must be non-blocking.
type MetricsWriter interface {
	WritePress(serial string, key int)
	WriteTick(serial string, took time.Duration, writes int)
}

// Recorder forwards device loop telemetry to a time-series backend.
// It implements device.Observer and runs on the loop goroutine, so it
// only hands points to the writer's batch queue.
type Recorder struct {
	writer MetricsWriter

	// tickSample keeps tick cardinality sane: only every Nth tick per
	// device is recorded. 1 records everything, 0 behaves as 1.
	tickSample int

	mu    sync.Mutex
	ticks map[string]int
}

var _ device.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder writing through the given writer.
// tickSample controls tick downsampling; a 30 FPS device with
// tickSample 30 records roughly one tick point per second.
func NewRecorder(writer MetricsWriter, tickSample int) *Recorder {
	if tickSample < 1 {
		tickSample = 1
	}
	return &Recorder{
		writer:     writer,
		tickSample: tickSample,
		ticks:      make(map[string]int),
	}
}

// ButtonPressed records one press point. Presses are never sampled.
func (r *Recorder) ButtonPressed(serial string, key int) {
	r.writer.WritePress(serial, key)
}

// TickDone records loop timing, subject to downsampling. Each device
// loop runs on its own goroutine, so the per-serial counters are
// guarded.
func (r *Recorder) TickDone(serial string, took time.Duration, writes int) {
	r.mu.Lock()
	n := r.ticks[serial] + 1
	if n >= r.tickSample {
		n = 0
	}
	r.ticks[serial] = n
	r.mu.Unlock()

	if n == 0 {
		r.writer.WriteTick(serial, took, writes)
	}
}
