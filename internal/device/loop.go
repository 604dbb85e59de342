package device

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/nerrad567/keydeck-core/internal/button"
	"github.com/nerrad567/keydeck-core/internal/module"
	"github.com/nerrad567/keydeck-core/internal/render"
)

// customWriteHash marks a key last written by a custom renderer or a
// direct image command. Any nonzero value works: it only needs to
// differ from render.ClearHash so the key is cleared when unmapped.
const customWriteHash = ^uint64(0)

// keyPlan is one key's precomputed render decision. Plans are rebuilt
// only on an explicit refresh command, never per tick; steady-state
// cost is therefore "did any hash change", not a tree walk.
type keyPlan struct {
	btn       *button.Button
	component render.Component
	painters  []module.Painter
	custom    module.CustomRenderer
	image     *render.ImageData
}

// loopState is the scheduler's private state. It lives entirely on the
// loop goroutine; nothing else touches it.
type loopState struct {
	plans      map[int]*keyPlan
	counters   map[*render.ImageData]*render.Counter
	lastHash   map[int]uint64
	lastStates []bool
	cache      *render.Cache
	blank      []byte
	blankBad   bool
}

// RunLoop is the device scheduler: one goroutine per device, one tick
// per frame budget. Each tick drains the command inbox, renders what
// changed, sweeps the cache on interval, then spends the remaining
// frame budget blocked on hardware input. It exits when the device is
// marked closed, the inbox is closed, or ctx is cancelled.
func (c *Core) RunLoop(ctx context.Context) {
	defer func() {
		if err := c.driver.Close(); err != nil {
			c.logger.Debug("driver close", "serial", c.serial, "error", err)
		}
	}()

	st := &loopState{
		plans:    make(map[int]*keyPlan),
		counters: make(map[*render.ImageData]*render.Counter),
		lastHash: make(map[int]uint64),
		cache:    render.NewCache(c.cacheTTL),
	}
	frame := time.Second / time.Duration(c.frameRate)
	lastSweep := time.Now()

	c.logger.Info("render loop started",
		"serial", c.serial,
		"keys", c.driver.KeyCount(),
		"frame_rate", c.frameRate)

	for {
		if ctx.Err() != nil {
			c.Close()
		}
		if c.closed.Load() {
			c.logger.Info("render loop stopped", "serial", c.serial)
			return
		}
		tickStart := time.Now()

		if !c.drainCommands(st) {
			c.Close()
			continue
		}

		writes := c.renderKeys(st, tickStart)

		if now := time.Now(); now.Sub(lastSweep) >= c.sweepInterval {
			if evicted := st.cache.Sweep(now); evicted > 0 {
				c.logger.Debug("render cache swept",
					"serial", c.serial, "evicted", evicted, "live", st.cache.Len())
			}
			lastSweep = now
		}

		// Remaining frame budget doubles as the input read timeout:
		// one blocking call both respects the frame rate and waits for
		// presses, so the period self-corrects instead of drifting.
		// An animation frame ending sooner than the budget caps it, so
		// slow tick rates still advance playback on time.
		budget := frame - time.Since(tickStart)
		if wake := c.animationWake(st, time.Now()); wake > 0 && wake < budget {
			budget = wake
		}
		if budget < time.Millisecond {
			budget = time.Millisecond
		}
		c.readInput(st, budget)

		c.observer.TickDone(c.serial, time.Since(tickStart), writes)
	}
}

// drainCommands empties the inbox without blocking. Returns false when
// the channel is closed, which terminates the loop.
func (c *Core) drainCommands(st *loopState) bool {
	for {
		select {
		case cmd, ok := <-c.commands:
			if !ok {
				return false
			}
			c.applyCommand(st, cmd)
		default:
			return true
		}
	}
}

func (c *Core) applyCommand(st *loopState, cmd command) {
	switch cmd.typ {
	case cmdSetBrightness:
		if err := c.driver.SetBrightness(cmd.brightness); err != nil {
			if errors.Is(err, ErrDisconnected) {
				c.Close()
				return
			}
			c.logger.Warn("set brightness failed",
				"serial", c.serial, "brightness", cmd.brightness, "error", err)
		}

	case cmdRefresh:
		c.rebuildPlans(st)

	case cmdSetImage:
		// Direct image: drop the key's plan so the pipeline stops
		// repainting it, then record the clear sentinel so an unmapped
		// key is not blanked over it. The next refresh restores normal
		// rendering.
		enc, err := c.driver.Encode(cmd.image)
		if err != nil {
			c.logger.Warn("direct image encode failed",
				"serial", c.serial, "key", cmd.key, "error", err)
			return
		}
		delete(st.plans, cmd.key)
		if c.writeKey(cmd.key, enc) {
			st.lastHash[cmd.key] = render.ClearHash
		}

	case cmdClearKey:
		delete(st.plans, cmd.key)
		if enc := c.blankEncoded(st); enc != nil && c.writeKey(cmd.key, enc) {
			st.lastHash[cmd.key] = render.ClearHash
		}
	}
}

// rebuildPlans recomputes the per-key render map from the visible
// panel, resolving painters, custom renderers and image references
// once so ticks only compare hashes.
func (c *Core) rebuildPlans(st *loopState) {
	plans := make(map[int]*keyPlan)
	defer func() { st.plans = plans }()

	top, ok := c.stack.Top()
	if !ok {
		return
	}

	for _, key := range top.Keys() {
		if key < 0 || key >= c.driver.KeyCount() {
			c.logger.Debug("panel key outside device range",
				"serial", c.serial, "key", key)
			continue
		}
		btn, ok := top.Button(key)
		if !ok {
			continue
		}

		plan := &keyPlan{btn: btn}
		if comp, ok := render.FromButton(btn); ok {
			plan.component = comp
		}
		plan.painters = c.registry.PaintersFor(btn, plan.component.PaintBlock)

		switch plan.component.Background.Type {
		case render.BackgroundCustom:
			cr, err := c.registry.Renderer(plan.component.Background.Renderer)
			if err != nil {
				c.logger.Warn("custom renderer not registered",
					"serial", c.serial, "key", key,
					"renderer", plan.component.Background.Renderer)
				// degrade to the placeholder path of the default pipeline
				plan.component.Background.Type = render.BackgroundImage
				plan.component.Background.Image = plan.component.Background.Renderer
			} else {
				plan.custom = cr
			}

		case render.BackgroundImage:
			if img, ok := c.Image(plan.component.Background.Image); ok {
				plan.image = img
			}

		case render.BackgroundNewImage:
			if plan.component.Background.Data != nil {
				plan.image = plan.component.Background.Data
			}
		}
		plans[key] = plan
	}
}

// renderKeys walks every physical key once, writing only where the
// structural hash moved. Returns the number of hardware writes.
func (c *Core) renderKeys(st *loopState, now time.Time) int {
	writes := 0
	size := c.driver.ImageSize()

	for key := 0; key < c.driver.KeyCount(); key++ {
		plan, mapped := st.plans[key]
		if !mapped {
			// Unmapped keys are cleared to black exactly once; the
			// sentinel makes later ticks skip them entirely. A key never
			// written this session has no entry, which is distinct from
			// the sentinel: hardware may hold stale pixels from before
			// the connect, so it is blanked too.
			if h, seen := st.lastHash[key]; !seen || h != render.ClearHash {
				if enc := c.blankEncoded(st); enc != nil && c.writeKey(key, enc) {
					writes++
					st.lastHash[key] = render.ClearHash
				}
			}
			continue
		}

		if plan.custom != nil {
			if c.renderCustom(st, key, plan, size) {
				writes++
			}
			continue
		}

		frameIdx := 0
		var bgFrame *render.Frame
		if plan.image != nil {
			if plan.image.Animated() {
				ctr := c.counterFor(st, plan.image)
				frameIdx = ctr.Observe(now)
				ctr.ConsumeChanged()
			}
			bgFrame = plan.image.Frame(frameIdx)
		}

		hash := render.HashKey(&plan.component, frameIdx, paintStamps(plan, key))
		if hash == st.lastHash[key] {
			// Nothing moved: refresh the cache entry's expiry and do
			// zero compositing, zero writing.
			if plan.component.ToCache {
				st.cache.Touch(hash)
			}
			continue
		}

		enc, hit := []byte(nil), false
		if plan.component.ToCache {
			enc, hit = st.cache.Get(hash)
		}
		if !hit {
			img := c.compositor.Compose(size, &plan.component, bgFrame, plan.painters, key, plan.btn)
			var err error
			enc, err = c.driver.Encode(img)
			if err != nil {
				c.logger.Warn("key image encode failed",
					"serial", c.serial, "key", key, "error", err)
				continue
			}
			if plan.component.ToCache {
				st.cache.Put(hash, enc)
			}
		}

		if c.writeKey(key, enc) {
			writes++
			st.lastHash[key] = hash
		}
	}
	return writes
}

// renderCustom delegates a key entirely to its custom renderer, every
// tick; the default pipeline and its hash economy are skipped.
func (c *Core) renderCustom(st *loopState, key int, plan *keyPlan, size image.Point) bool {
	bounds := image.Rect(0, 0, size.X, size.Y)
	img, err := plan.custom.Render(c.serial, key, plan.btn, bounds)
	if err != nil || img == nil {
		c.logger.Warn("custom renderer failed",
			"serial", c.serial, "key", key, "error", err)
		img = c.compositor.Compose(size, &render.Component{
			Background: render.Background{
				Type:  render.BackgroundImage,
				Image: plan.component.Background.Renderer,
			},
		}, nil, nil, key, plan.btn)
	}
	enc, err := c.driver.Encode(img)
	if err != nil {
		c.logger.Warn("key image encode failed",
			"serial", c.serial, "key", key, "error", err)
		return false
	}
	if c.writeKey(key, enc) {
		st.lastHash[key] = customWriteHash
		return true
	}
	return false
}

// writeKey pushes encoded bytes to the hardware. Write failures are
// best-effort degraded; only a disconnect closes the device, and the
// tick still finishes over the remaining keys.
func (c *Core) writeKey(key int, enc []byte) bool {
	err := c.driver.WriteKeyImage(key, enc)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrDisconnected) {
		c.logger.Warn("device disconnected during write", "serial", c.serial, "key", key)
		c.Close()
		return false
	}
	c.logger.Warn("key image write failed",
		"serial", c.serial, "key", key, "error", err)
	return false
}

// blankEncoded lazily encodes the all-black key image once per loop.
func (c *Core) blankEncoded(st *loopState) []byte {
	if st.blank != nil || st.blankBad {
		return st.blank
	}
	enc, err := c.driver.Encode(render.Blank(c.driver.ImageSize()))
	if err != nil {
		c.logger.Warn("blank image encode failed", "serial", c.serial, "error", err)
		st.blankBad = true
		return nil
	}
	st.blank = enc
	return enc
}

// animationWake returns the shortest time until any planned animated
// image flips to its next frame, or zero when nothing animates.
func (c *Core) animationWake(st *loopState, now time.Time) time.Duration {
	var wake time.Duration
	for _, plan := range st.plans {
		if plan.image == nil || !plan.image.Animated() {
			continue
		}
		ctr, ok := st.counters[plan.image]
		if !ok {
			continue
		}
		if w := ctr.NextWake(ctr.Elapsed(now)); w > 0 && (wake == 0 || w < wake) {
			wake = w
		}
	}
	return wake
}

// counterFor returns the playback counter for an animated image,
// creating it on first sight. Counters are keyed by image identity so
// a refresh that keeps the same image keeps its playback position.
func (c *Core) counterFor(st *loopState, img *render.ImageData) *render.Counter {
	if ctr, ok := st.counters[img]; ok {
		return ctr
	}
	ctr := render.NewCounter(img.Delays())
	st.counters[img] = ctr
	return ctr
}

// paintStamps collects each eligible painter's stamp in paint order.
// Stamps feed the structural hash, so a module changing what it would
// draw invalidates exactly the keys it draws on.
func paintStamps(plan *keyPlan, key int) []string {
	if len(plan.painters) == 0 {
		return nil
	}
	stamps := make([]string, len(plan.painters))
	for i, p := range plan.painters {
		stamps[i] = p.Name() + "\x00" + p.PaintStamp(key, plan.btn)
	}
	return stamps
}

// readInput blocks for the remaining frame budget on hardware input,
// then turns state deltas into down/up events and action dispatches.
func (c *Core) readInput(st *loopState, budget time.Duration) {
	states, err := c.driver.ReadKeyStates(budget)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoData):
			return
		case errors.Is(err, ErrDisconnected):
			c.logger.Warn("device disconnected", "serial", c.serial)
			c.Close()
			return
		default:
			// A driver error outside the contract means an assumption
			// is disproved; continuing would be guessing. Supervision
			// restarts the process.
			c.logger.Error("driver read violated its contract",
				"serial", c.serial, "error", err)
			panic(fmt.Sprintf("device %s: unrecoverable driver error: %v", c.serial, err))
		}
	}

	if st.lastStates == nil {
		st.lastStates = make([]bool, len(states))
	}

	for key := 0; key < len(states) && key < len(st.lastStates); key++ {
		pressed := states[key]
		if pressed == st.lastStates[key] {
			continue
		}
		st.lastStates[key] = pressed

		var btn *button.Button
		if plan, ok := st.plans[key]; ok {
			btn = plan.btn
		}

		if pressed {
			c.deliverInput(module.Event{
				Type: module.EventButtonDown, Serial: c.serial, Key: key, Button: btn,
			})
			continue
		}

		c.deliverInput(module.Event{
			Type: module.EventButtonUp, Serial: c.serial, Key: key, Button: btn,
		})
		c.observer.ButtonPressed(c.serial, key)
		if btn != nil {
			c.deliverInput(module.Event{
				Type: module.EventButtonAction, Serial: c.serial, Key: key, Button: btn,
			})
		}
	}
}

// deliverInput hands an event to the input sink. A sink error means
// the consumer side of the signal path is gone; that is fatal to this
// device only.
func (c *Core) deliverInput(ev module.Event) {
	if c.closed.Load() {
		return
	}
	if err := c.input.HandleInput(ev); err != nil {
		c.logger.Warn("input consumer gone, closing device",
			"serial", c.serial, "error", err)
		c.Close()
	}
}
