package control

import "time"

// Debouncer filters one noisy momentary-switch input into a stable
// logical level plus a one-shot press edge. Levels are logical: true
// means active (the gpio layer has already inverted active-low wiring).
type Debouncer struct {
	window time.Duration

	lastRaw    bool
	stable     bool
	lastChange time.Time

	pressed   bool
	lastPress time.Time
}

// NewDebouncer creates a debouncer with the given window. Initial state
// is inactive.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Update feeds one raw sample. Any raw change restarts the window; once
// the level has held for longer than the window it is committed as the
// stable state. A stable transition into active sets the press edge and
// records its time; a stable release clears it. Identical consecutive
// readings have no side effect.
func (d *Debouncer) Update(raw bool, now time.Time) {
	if raw != d.lastRaw {
		d.lastChange = now
		d.lastRaw = raw
	}

	if now.Sub(d.lastChange) > d.window && raw != d.stable {
		d.stable = raw
		if d.stable {
			d.pressed = true
			d.lastPress = now
		} else {
			d.pressed = false
		}
	}
}

// Stable returns the debounced level.
func (d *Debouncer) Stable() bool {
	return d.stable
}

// TakePress returns the press edge and clears it, so a consumed edge
// cannot re-trigger on the next tick.
func (d *Debouncer) TakePress() bool {
	p := d.pressed
	d.pressed = false
	return p
}

// Pressed peeks at the press edge without consuming it.
func (d *Debouncer) Pressed() bool {
	return d.pressed
}

// PressedAt returns the time of the last committed press. Zero if the
// input has never been pressed.
func (d *Debouncer) PressedAt() time.Time {
	return d.lastPress
}
