// Package control contains the pure control logic for the grout pump
// valve actuator: input debouncing, the manual/auto mode state machine,
// the cycle controller driving the two SSR outputs, and stroke
// statistics. This package has NO external dependencies (no GPIO, MQTT,
// OS, or time.Sleep). Time is always injectable via time.Time parameters.
package control

import "time"

// Mode is the operating mode of the pump.
type Mode string

const (
	ModeManual   Mode = "MANUAL"
	ModeAutoLoop Mode = "AUTO_LOOP"
)

// Direction is the actuator travel direction. It persists across mode
// changes so a later auto start resumes from the correct side.
type Direction string

const (
	DirectionIn      Direction = "IN"
	DirectionOut     Direction = "OUT"
	DirectionStopped Direction = "STOPPED"
)

// Button identifies one of the four remote-control inputs.
type Button int

const (
	ButtonA Button = iota // manual OUT (extend, drives GPO2)
	ButtonB               // manual IN (retract, drives GPO1)
	ButtonC               // start auto loop
	ButtonD               // stop auto loop
	numButtons
)

// Input is a single sample of all hardware inputs, already normalized
// to logical levels: buttons true = held, endstops/estop true = triggered.
type Input struct {
	A, B, C, D bool
	EndStopIn  bool
	EndStopOut bool
	Estop      bool
	Time       time.Time
}

// Outputs is the state of the two SSR outputs. The controller guarantees
// at most one is ever true.
type Outputs struct {
	Gpo1 bool // valve coil IN (retract)
	Gpo2 bool // valve coil OUT (extend)
}

// EventType identifies a control event worth surfacing to the operator.
type EventType string

const (
	EventEstopOn      EventType = "ESTOP_ON"
	EventEstopOff     EventType = "ESTOP_OFF"
	EventAutoStart    EventType = "AUTO_START"
	EventAutoStop     EventType = "AUTO_STOP"
	EventFaultEndStop EventType = "FAULT_ENDSTOP"
	EventFaultTimeout EventType = "FAULT_TIMEOUT"
	EventStroke       EventType = "STROKE"
)

// Event is a control event emitted by a tick.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Mode      Mode
	Direction Direction
	// Duration is the completed stroke time for EventStroke; zero if the
	// sample was discarded by the statistics noise filter.
	Duration time.Duration
	// Reason distinguishes AUTO_STOP causes ("stop_button",
	// "manual_override") and carries fault detail.
	Reason string
}

// Config holds the timing configuration of the controller.
type Config struct {
	// Debounce is the input debounce window.
	Debounce time.Duration
	// SettleDelay is the dead time after a direction reversal during
	// which both outputs are held low.
	SettleDelay time.Duration
	// CycleTimeout is the maximum stroke time before a timeout fault.
	CycleTimeout time.Duration
	// TimeoutEnabled gates cycle timeout supervision.
	TimeoutEnabled bool
}

// TickResult is the outcome of one control tick.
type TickResult struct {
	Outputs Outputs
	// Changed reports whether any observable state changed this tick
	// (drives the status broadcast).
	Changed bool
	Events  []Event
}

// Snapshot is a read-only projection of controller state for the
// status/web boundary.
type Snapshot struct {
	Estop      bool
	Mode       Mode
	Direction  Direction
	Outputs    Outputs
	EndStopIn  bool
	EndStopOut bool
	// InputActive is the per-button "visually active" flag: debounced
	// active OR pressed within the recency window, so brief presses stay
	// visible to a slow-polling observer.
	InputActive [4]bool

	CycleTimeout   time.Duration
	TimeoutEnabled bool

	LastDuration time.Duration
	AvgDuration  time.Duration
	History      []time.Duration // completed strokes, oldest first
}
