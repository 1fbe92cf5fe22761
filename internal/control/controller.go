package control

import "time"

// Controller owns all control state and advances it one tick at a time.
// It is driven from a single goroutine; it performs no I/O and never
// blocks. Hardware invariant enforced at every write site: at most one
// of the two outputs is ever high.
type Controller struct {
	cfg Config

	mode      Mode
	direction Direction
	outputs   Outputs
	estop     bool

	buttons [numButtons]*Debouncer

	// prev* track raw endstop levels so changes mark the tick as
	// observable even when outputs don't move.
	prevEndStopIn  bool
	prevEndStopOut bool

	// lastTransition gates the inter-direction settle delay;
	// cycleStart gates the overall stroke timeout. Both reset whenever
	// a new stroke begins.
	lastTransition time.Time
	cycleStart     time.Time

	stats Stats
}

// New creates a controller in the boot-safe state: outputs low, MANUAL
// mode, direction STOPPED.
func New(cfg Config) *Controller {
	c := &Controller{
		cfg:       cfg,
		mode:      ModeManual,
		direction: DirectionStopped,
	}
	for i := range c.buttons {
		c.buttons[i] = NewDebouncer(cfg.Debounce)
	}
	return c
}

// Tick advances the controller by one scheduler pass. The emergency
// stop is evaluated first and short-circuits everything else; then
// debouncers update, mode-change edges are consumed, and the active
// mode's output logic runs.
func (c *Controller) Tick(in Input) TickResult {
	now := in.Time
	var res TickResult

	// Safety interlock: highest priority, unconditional.
	if in.Estop {
		if !c.estop {
			c.estop = true
			res.Changed = true
			res.Events = append(res.Events, c.event(EventEstopOn, now))
		}
		if c.outputs != (Outputs{}) || c.mode != ModeManual || c.direction != DirectionStopped {
			res.Changed = true
		}
		c.outputs = Outputs{}
		c.mode = ModeManual
		c.direction = DirectionStopped
		res.Outputs = c.outputs
		return res
	}
	if c.estop {
		// Released: clear the latch, stay in MANUAL. Automation never
		// resumes on its own after an estop.
		c.estop = false
		res.Changed = true
		res.Events = append(res.Events, c.event(EventEstopOff, now))
	}

	c.buttons[ButtonA].Update(in.A, now)
	c.buttons[ButtonB].Update(in.B, now)
	c.buttons[ButtonC].Update(in.C, now)
	c.buttons[ButtonD].Update(in.D, now)

	if in.EndStopIn != c.prevEndStopIn {
		c.prevEndStopIn = in.EndStopIn
		res.Changed = true
	}
	if in.EndStopOut != c.prevEndStopOut {
		c.prevEndStopOut = in.EndStopOut
		res.Changed = true
	}

	exited := c.applyModeEdges(now, &res)

	prevOut := c.outputs
	prevDir := c.direction
	prevMode := c.mode

	switch {
	case exited:
		// The exit tick guarantees both outputs low; normal MANUAL
		// execution resumes on the next pass.
	case c.mode == ModeManual:
		c.tickManual(in)
	default:
		c.tickAutoLoop(in, now, &res)
	}

	if c.outputs != prevOut || c.direction != prevDir || c.mode != prevMode {
		res.Changed = true
	}
	res.Outputs = c.outputs
	return res
}

// applyModeEdges consumes debounced press edges to switch modes. It
// reports whether AUTO_LOOP was exited this tick, in which case the
// outputs stay low for the rest of the pass.
func (c *Controller) applyModeEdges(now time.Time, res *TickResult) bool {
	// Start edge (C). Consumed even when already in AUTO_LOOP.
	if c.buttons[ButtonC].TakePress() && c.mode != ModeAutoLoop {
		c.mode = ModeAutoLoop
		if c.direction == DirectionStopped {
			c.direction = DirectionOut
		}
		c.lastTransition = now
		c.cycleStart = now
		res.Changed = true
		res.Events = append(res.Events, c.event(EventAutoStart, now))
	}

	// Stop edge (D), or a manual-control edge (A/B) acting as override
	// while the loop runs. A/B edges are only consumed in AUTO_LOOP;
	// in MANUAL the handlers read levels, not edges.
	stop := c.buttons[ButtonD].TakePress()
	reason := "stop_button"
	if c.mode == ModeAutoLoop {
		a := c.buttons[ButtonA].TakePress()
		b := c.buttons[ButtonB].TakePress()
		if !stop && (a || b) {
			reason = "manual_override"
		}
		stop = stop || a || b
	}
	if stop && c.mode == ModeAutoLoop {
		c.mode = ModeManual
		// Direction is kept so a later start resumes from the correct side.
		c.outputs = Outputs{}
		res.Changed = true
		ev := c.event(EventAutoStop, now)
		ev.Reason = reason
		res.Events = append(res.Events, ev)
		return true
	}
	return false
}

// tickManual drives outputs from the held levels of A and B. Hitting an
// endstop in manual mode also repoints the direction, so the next auto
// start moves away from the stop.
func (c *Controller) tickManual(in Input) {
	if in.EndStopIn {
		c.direction = DirectionOut
	} else if in.EndStopOut {
		c.direction = DirectionIn
	}

	aHeld := c.buttons[ButtonA].Stable()
	bHeld := c.buttons[ButtonB].Stable()

	// Never trust a double press.
	if aHeld && bHeld {
		c.outputs = Outputs{}
		return
	}

	switch {
	case aHeld:
		c.outputs.Gpo1 = false // clear the other output first
		if !in.EndStopOut {
			c.outputs.Gpo2 = true
			c.direction = DirectionOut
		} else {
			c.outputs.Gpo2 = false // blocked at travel limit
		}
	case bHeld:
		c.outputs.Gpo2 = false
		if !in.EndStopIn {
			c.outputs.Gpo1 = true
			c.direction = DirectionIn
		} else {
			c.outputs.Gpo1 = false
		}
	default:
		c.outputs = Outputs{}
	}
}

// tickAutoLoop runs one pass of the automatic cycle, in priority order:
// sensor fault, timeout fault, endstop reversal, settle hold, drive.
func (c *Controller) tickAutoLoop(in Input, now time.Time, res *TickResult) {
	// Both endstops triggered at once is a sensor fault.
	if in.EndStopIn && in.EndStopOut {
		c.faultToManual(now, EventFaultEndStop, res)
		return
	}

	if c.cfg.TimeoutEnabled && now.Sub(c.cycleStart) > c.cfg.CycleTimeout {
		c.faultToManual(now, EventFaultTimeout, res)
		return
	}

	// Endstop reached in the travel direction: record the stroke and
	// reverse. The elapsed time includes the settle delay spent before
	// moving, so subtract it when positive.
	if (c.direction == DirectionIn && in.EndStopIn) ||
		(c.direction == DirectionOut && in.EndStopOut) {
		raw := now.Sub(c.cycleStart)
		var recorded time.Duration
		if raw > c.cfg.SettleDelay {
			if c.stats.Record(raw - c.cfg.SettleDelay) {
				recorded = raw - c.cfg.SettleDelay
			}
		}
		if c.direction == DirectionIn {
			c.direction = DirectionOut
		} else {
			c.direction = DirectionIn
		}
		c.lastTransition = now
		c.cycleStart = now
		ev := c.event(EventStroke, now)
		ev.Duration = recorded
		res.Events = append(res.Events, ev)
	}

	// Dead time after a reversal: both outputs held low. This also
	// guarantees the mutual-exclusion invariant across the transition.
	if now.Sub(c.lastTransition) < c.cfg.SettleDelay {
		c.outputs = Outputs{}
		return
	}

	switch c.direction {
	case DirectionIn:
		c.outputs.Gpo2 = false
		c.outputs.Gpo1 = true
	case DirectionOut:
		c.outputs.Gpo1 = false
		c.outputs.Gpo2 = true
	default:
		c.outputs = Outputs{}
	}
}

// faultToManual safes the outputs and degrades to MANUAL. Direction is
// reset: after a fault, position knowledge is suspect. Pending start/
// stop edges are discarded so a stale press cannot restart the loop.
func (c *Controller) faultToManual(now time.Time, t EventType, res *TickResult) {
	c.outputs = Outputs{}
	c.direction = DirectionStopped
	c.mode = ModeManual
	c.buttons[ButtonC].TakePress()
	c.buttons[ButtonD].TakePress()
	res.Events = append(res.Events, c.event(t, now))
}

// Halt forces both outputs low and drops out of AUTO_LOOP. Exposed for
// the pre-update hook: a firmware/filesystem transfer must not run with
// an energized coil, and staying in AUTO_LOOP would re-assert an output
// on the next tick. Direction is preserved.
func (c *Controller) Halt() {
	c.outputs = Outputs{}
	if c.mode == ModeAutoLoop {
		c.mode = ModeManual
	}
}

// SetCycleTimeout updates the stroke timeout. Range validation happens
// at the settings boundary; the controller applies whatever it is given
// on the next tick.
func (c *Controller) SetCycleTimeout(d time.Duration) {
	c.cfg.CycleTimeout = d
}

// SetTimeoutEnabled toggles timeout supervision.
func (c *Controller) SetTimeoutEnabled(enabled bool) {
	c.cfg.TimeoutEnabled = enabled
}

// Mode returns the current operating mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Direction returns the current travel direction.
func (c *Controller) Direction() Direction {
	return c.direction
}

// Outputs returns the current output levels.
func (c *Controller) Outputs() Outputs {
	return c.outputs
}

// inputRecency is the window during which a past press keeps an input
// "visually active" in the status snapshot.
const inputRecency = time.Second

// Snapshot assembles the observable state for the status boundary.
// Read-only: calling it never mutates control state.
func (c *Controller) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		Estop:          c.estop,
		Mode:           c.mode,
		Direction:      c.direction,
		Outputs:        c.outputs,
		EndStopIn:      c.prevEndStopIn,
		EndStopOut:     c.prevEndStopOut,
		CycleTimeout:   c.cfg.CycleTimeout,
		TimeoutEnabled: c.cfg.TimeoutEnabled,
		LastDuration:   c.stats.Last(),
		AvgDuration:    c.stats.Average(),
		History:        c.stats.History(),
	}
	for i, b := range c.buttons {
		s.InputActive[i] = b.Stable() ||
			(!b.PressedAt().IsZero() && now.Sub(b.PressedAt()) < inputRecency)
	}
	return s
}

func (c *Controller) event(t EventType, now time.Time) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		Mode:      c.mode,
		Direction: c.direction,
	}
}
