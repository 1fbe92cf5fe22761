// Package gpio provides hardware access with abstraction for testing.
// The real implementation uses the Linux GPIO character device; the
// fake allows driving the control loop without hardware.
package gpio

// Inputs is one raw sample of every input, normalized to logical
// levels. Buttons are wired active-low with pull-ups: raw low = held.
// Endstops and the estop loop are normally closed: raw high = triggered.
type Inputs struct {
	A, B, C, D bool // remote buttons, true = held
	EndStopIn  bool // true = IN travel limit reached
	EndStopOut bool // true = OUT travel limit reached
	Estop      bool // true = emergency stop loop open
}

// IO reads the inputs and drives the two SSR outputs.
type IO interface {
	// ReadInputs samples all input lines.
	ReadInputs() (Inputs, error)

	// SetOutputs drives the SSRs. Callers are responsible for never
	// requesting both high; the hardware layer writes gpo1 and gpo2
	// in an order that clears before it asserts.
	SetOutputs(gpo1, gpo2 bool) error

	// Close forces both outputs low and releases GPIO resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinGpo1 = 23 // SSR 1, valve coil IN
	DefaultPinGpo2 = 24 // SSR 2, valve coil OUT

	DefaultPinA = 5  // manual OUT (extend)
	DefaultPinB = 6  // manual IN (retract)
	DefaultPinC = 13 // start auto loop
	DefaultPinD = 19 // stop auto loop

	DefaultPinEndStopIn  = 20
	DefaultPinEndStopOut = 21
	DefaultPinEstop      = 26
)

// Pins collects the pin assignment for a device.
type Pins struct {
	Gpo1, Gpo2            int
	A, B, C, D            int
	EndStopIn, EndStopOut int
	Estop                 int
}

// DefaultPins returns the standard wiring.
func DefaultPins() Pins {
	return Pins{
		Gpo1: DefaultPinGpo1, Gpo2: DefaultPinGpo2,
		A: DefaultPinA, B: DefaultPinB, C: DefaultPinC, D: DefaultPinD,
		EndStopIn: DefaultPinEndStopIn, EndStopOut: DefaultPinEndStopOut,
		Estop: DefaultPinEstop,
	}
}
