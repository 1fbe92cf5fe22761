// Package status provides a thread-safe status tracker for the
// grout-pump daemon. The control loop writes it once per tick; the HTTP
// and WebSocket handlers read it.
package status

import (
	"sync"
	"time"

	"github.com/jakepeery/grout-pump/internal/control"
)

// NetworkInfo contains host network state for display. Populated from
// the pi-helper environment when present.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs     int64
	DebounceMs int64
	SettleMs   int64
	Broker     string
	HTTPAddr   string
}

// Snapshot is a point-in-time view of daemon state. It is a value
// type — safe to use after the lock is released.
type Snapshot struct {
	Control       control.Snapshot
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
// The control snapshot starts in the boot-safe state.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Control: control.Snapshot{
				Mode:      control.ModeManual,
				Direction: control.DirectionStopped,
			},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the control snapshot. Called from the control loop on
// every tick.
func (t *Tracker) Update(cs control.Snapshot) {
	t.mu.Lock()
	t.snap.Control = cs
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state. The Now
// field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
