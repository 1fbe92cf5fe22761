package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the JSON representation of the daemon status, served by
// /status and pushed over the WebSocket. Field names follow the wire
// format the pump's web page consumes.
type StatusJSON struct {
	EstopActive    bool   `json:"estopActive"`
	Mode           string `json:"mode"`
	CycleDirection string `json:"cycleDirection"`
	Gpo1           bool   `json:"gpo1"`
	Gpo2           bool   `json:"gpo2"`
	InputA         bool   `json:"inputA"`
	InputB         bool   `json:"inputB"`
	InputC         bool   `json:"inputC"`
	InputD         bool   `json:"inputD"`
	EndStopIn      bool   `json:"endStopIn"`
	EndStopOut     bool   `json:"endStopOut"`

	LastDurationMs int64   `json:"lastDuration"`
	AvgDurationMs  int64   `json:"avgDuration"`
	HistoryMs      []int64 `json:"history"`

	CycleTimeoutMs int64 `json:"cycleTimeout"`
	TimeoutEnabled bool  `json:"timeoutEnabled"`

	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs     int64  `json:"poll_ms"`
	DebounceMs int64  `json:"debounce_ms"`
	SettleMs   int64  `json:"settle_ms"`
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
}

// Build converts a snapshot into its wire representation.
func Build(snap Snapshot) StatusJSON {
	c := snap.Control

	history := make([]int64, len(c.History))
	for i, d := range c.History {
		history[i] = d.Milliseconds()
	}

	sj := StatusJSON{
		EstopActive:    c.Estop,
		Mode:           string(c.Mode),
		CycleDirection: string(c.Direction),
		Gpo1:           c.Outputs.Gpo1,
		Gpo2:           c.Outputs.Gpo2,
		InputA:         c.InputActive[0],
		InputB:         c.InputActive[1],
		InputC:         c.InputActive[2],
		InputD:         c.InputActive[3],
		EndStopIn:      c.EndStopIn,
		EndStopOut:     c.EndStopOut,
		LastDurationMs: c.LastDuration.Milliseconds(),
		AvgDurationMs:  c.AvgDuration.Milliseconds(),
		HistoryMs:      history,
		CycleTimeoutMs: c.CycleTimeout.Milliseconds(),
		TimeoutEnabled: c.TimeoutEnabled,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:     snap.Config.PollMs,
			DebounceMs: snap.Config.DebounceMs,
			SettleMs:   snap.Config.SettleMs,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
		},
	}

	if snap.Network != nil {
		sj.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return sj
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Build(snap), "", "  ")
	return data
}

// FormatCompact returns the compact JSON status for WebSocket pushes
// and MQTT system events.
func FormatCompact(snap Snapshot) []byte {
	data, _ := json.Marshal(Build(snap))
	return data
}
