// Package mqtt publishes pump control events to a broker, with
// abstraction for testing and an offline buffer for flaky links.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/jakepeery/grout-pump/internal/control"
)

// Topic is the MQTT topic for pump control events.
const Topic = "machinery/grout-pump/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "machinery/grout-pump/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a control event to the broker. Returns error if
	// publishing fails (must not crash the control loop).
	Publish(event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g. "STARTUP", "SHUTDOWN"
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted status snapshot; used verbatim if set
	Retained   bool
}

// Payload is the wire structure for a pump control event.
type Payload struct {
	Pump PumpPayload `json:"pump"`
}

// PumpPayload contains the event details.
type PumpPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Mode       string `json:"mode"`
	Direction  string `json:"direction"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// FormatPayload creates the JSON payload for a control event.
func FormatPayload(event control.Event) ([]byte, error) {
	payload := Payload{
		Pump: PumpPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Mode:       string(event.Mode),
			Direction:  string(event.Direction),
			DurationMs: event.Duration.Milliseconds(),
			Reason:     event.Reason,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the wire structure for simple system events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event. If
// event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
