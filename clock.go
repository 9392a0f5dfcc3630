package sprinkles

// DefaultMaxFrameDelta caps how much wall time a single frame may feed into
// a fixed-step clock, so a hitch cannot trigger a burst of catch-up steps.
const DefaultMaxFrameDelta = 0.1

// SimulationStep is one kernel dispatch worth of time. A frame produces zero
// steps (paused), one step (variable rate) or several (fixed rate catch-up).
type SimulationStep struct {
	PrevTime       float32
	Time           float32
	Cycle          uint32
	Delta          float32
	ClearRequested bool
}

// Phase maps a step time onto the emitter's normalized cycle: 0 while the
// delay runs, then (t - delay) / lifetime.
func (s SimulationStep) Phase(t EmitterTime) float32 {
	return cyclePhase(s.Time, t)
}

func (s SimulationStep) PrevPhase(t EmitterTime) float32 {
	return cyclePhase(s.PrevTime, t)
}

// IsPastDelay reports whether the step has cleared the emitter's start
// delay; emission is suppressed until then.
func (s SimulationStep) IsPastDelay(t EmitterTime) bool {
	total := t.TotalDuration()
	if total <= 0 {
		return true
	}
	return mod32(s.Time, total) >= t.Delay
}

func cyclePhase(at float32, t EmitterTime) float32 {
	total := t.TotalDuration()
	if total <= 0 || t.Lifetime <= 0 {
		return 0
	}
	tm := mod32(at, total)
	if tm < t.Delay {
		return 0
	}
	return (tm - t.Delay) / t.Lifetime
}

// EmitterClock tracks an emitter's position in its spawn cycle and slices
// frame deltas into simulation steps. It never touches particle data; the
// steps it produces drive the kernel.
type EmitterClock struct {
	Emitting         bool
	SystemTime       float32
	PrevSystemTime   float32
	Cycle            uint32
	AccumulatedDelta float32
	RandomSeed       uint32
	OneShotCompleted bool
	MaxFrameDelta    float32

	clearRequested bool
	Steps          []SimulationStep
}

func NewEmitterClock(fixedSeed *uint32) *EmitterClock {
	seed := randomClockSeed()
	if fixedSeed != nil {
		seed = *fixedSeed
	}
	return &EmitterClock{
		Emitting:      true,
		RandomSeed:    seed,
		MaxFrameDelta: DefaultMaxFrameDelta,
	}
}

// Advance consumes a frame delta and rebuilds the step list. With a fixed
// FPS configured it accumulates wall time and emits whole fixed steps; a
// pending clear forces at least one step through so the kernel sees it even
// when not enough time has accumulated.
func (c *EmitterClock) Advance(delta float32, paused bool, t EmitterTime) {
	c.Steps = c.Steps[:0]
	clear := c.clearRequested
	c.clearRequested = false

	if paused {
		if clear {
			c.Steps = append(c.Steps, SimulationStep{
				PrevTime:       c.SystemTime,
				Time:           c.SystemTime,
				Cycle:          c.Cycle,
				ClearRequested: true,
			})
		}
		return
	}

	total := t.TotalDuration()
	if total <= 0 {
		c.Steps = append(c.Steps, SimulationStep{
			PrevTime:       c.SystemTime,
			Time:           c.SystemTime,
			Cycle:          c.Cycle,
			ClearRequested: clear,
		})
		return
	}

	framePrev := c.SystemTime

	if t.FixedFPS > 0 {
		dt := 1 / float32(t.FixedFPS)
		maxDelta := c.MaxFrameDelta
		if maxDelta <= 0 {
			maxDelta = DefaultMaxFrameDelta
		}
		if delta > maxDelta {
			delta = maxDelta
		}
		c.AccumulatedDelta += delta
		for c.AccumulatedDelta >= dt || (clear && len(c.Steps) == 0) {
			c.AccumulatedDelta -= dt
			c.step(dt, clear && len(c.Steps) == 0, t, total)
		}
	} else {
		c.AccumulatedDelta = 0
		c.step(delta, clear, t, total)
	}

	c.PrevSystemTime = framePrev
}

func (c *EmitterClock) step(dt float32, clear bool, t EmitterTime, total float32) {
	prev := c.SystemTime
	next := prev + dt
	if next >= total {
		next = mod32(next, total)
		c.Cycle++
		if t.OneShot && c.Cycle > 0 {
			c.Emitting = false
			c.OneShotCompleted = true
		}
	}
	c.SystemTime = next
	c.Steps = append(c.Steps, SimulationStep{
		PrevTime:       prev,
		Time:           next,
		Cycle:          c.Cycle,
		Delta:          dt,
		ClearRequested: clear,
	})
}

// Phase is the clock's current normalized cycle position.
func (c *EmitterClock) Phase(t EmitterTime) float32 {
	return cyclePhase(c.SystemTime, t)
}

func (c *EmitterClock) PrevPhase(t EmitterTime) float32 {
	return cyclePhase(c.PrevSystemTime, t)
}

// Play resumes emission without touching the timeline. A finished one-shot
// becomes eligible to run again.
func (c *EmitterClock) Play() {
	c.Emitting = true
	c.OneShotCompleted = false
}

// Stop rewinds the clock, reseeds it and queues a clear so the next step
// wipes live particles. A nil seed draws a fresh random one.
func (c *EmitterClock) Stop(seed *uint32) {
	c.SystemTime = 0
	c.PrevSystemTime = 0
	c.Cycle = 0
	c.AccumulatedDelta = 0
	c.OneShotCompleted = false
	c.Emitting = false
	c.clearRequested = true
	c.Steps = c.Steps[:0]
	if seed != nil {
		c.RandomSeed = *seed
	} else {
		c.RandomSeed = randomClockSeed()
	}
}

// Restart is a stop that immediately starts emitting again.
func (c *EmitterClock) Restart(seed *uint32) {
	c.Stop(seed)
	c.Emitting = true
}

// Seek jumps the timeline to at without emitting catch-up steps.
func (c *EmitterClock) Seek(at float32) {
	c.SystemTime = at
	c.PrevSystemTime = at
}
