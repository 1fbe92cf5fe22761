package status

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jakepeery/grout-pump/internal/control"
)

func TestTrackerBootState(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Broker: "tcp://broker:1883"})

	snap := tr.Snapshot()
	if snap.Control.Mode != control.ModeManual {
		t.Errorf("boot mode: got %s", snap.Control.Mode)
	}
	if snap.Control.Direction != control.DirectionStopped {
		t.Errorf("boot direction: got %s", snap.Control.Direction)
	}
	if snap.MQTTConnected {
		t.Error("boot state should report MQTT disconnected")
	}
	if !snap.StartTime.Equal(start) {
		t.Errorf("start time: got %v", snap.StartTime)
	}
}

func TestTrackerUpdate(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(control.Snapshot{
		Mode:      control.ModeAutoLoop,
		Direction: control.DirectionIn,
		Outputs:   control.Outputs{Gpo1: true},
	})
	tr.SetMQTTConnected(true)

	snap := tr.Snapshot()
	if snap.Control.Mode != control.ModeAutoLoop {
		t.Errorf("mode: got %s", snap.Control.Mode)
	}
	if !snap.Control.Outputs.Gpo1 {
		t.Error("outputs not carried through")
	}
	if !snap.MQTTConnected {
		t.Error("MQTT status not carried through")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	before := tr.Snapshot()

	tr.Update(control.Snapshot{Mode: control.ModeAutoLoop})

	if before.Control.Mode != control.ModeManual {
		t.Error("earlier snapshot mutated by a later update")
	}
}

func TestBuildWireFormat(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Control: control.Snapshot{
			Estop:          false,
			Mode:           control.ModeAutoLoop,
			Direction:      control.DirectionOut,
			Outputs:        control.Outputs{Gpo2: true},
			EndStopIn:      true,
			InputActive:    [4]bool{true, false, false, false},
			CycleTimeout:   30 * time.Second,
			TimeoutEnabled: true,
			LastDuration:   1500 * time.Millisecond,
			AvgDuration:    1200 * time.Millisecond,
			History:        []time.Duration{time.Second, 1500 * time.Millisecond},
		},
		StartTime:     start,
		Now:           start.Add(90 * time.Second),
		MQTTConnected: true,
		Config:        Config{PollMs: 20, DebounceMs: 50, SettleMs: 500, Broker: "tcp://b:1883", HTTPAddr: ":80"},
	}

	sj := Build(snap)
	if sj.Mode != "AUTO_LOOP" || sj.CycleDirection != "OUT" {
		t.Errorf("mode/direction: got %s/%s", sj.Mode, sj.CycleDirection)
	}
	if !sj.Gpo2 || sj.Gpo1 {
		t.Errorf("outputs: got gpo1=%v gpo2=%v", sj.Gpo1, sj.Gpo2)
	}
	if !sj.InputA || sj.InputB {
		t.Error("input flags not carried through")
	}
	if !sj.EndStopIn || sj.EndStopOut {
		t.Error("endstop flags not carried through")
	}
	if sj.LastDurationMs != 1500 || sj.AvgDurationMs != 1200 {
		t.Errorf("durations: got last=%d avg=%d", sj.LastDurationMs, sj.AvgDurationMs)
	}
	if len(sj.HistoryMs) != 2 || sj.HistoryMs[0] != 1000 {
		t.Errorf("history: got %v", sj.HistoryMs)
	}
	if sj.CycleTimeoutMs != 30000 || !sj.TimeoutEnabled {
		t.Errorf("timeout: got %d/%v", sj.CycleTimeoutMs, sj.TimeoutEnabled)
	}
	if sj.UptimeSeconds != 90 {
		t.Errorf("uptime: got %d", sj.UptimeSeconds)
	}
	if !sj.MQTT.Connected || sj.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt block: got %+v", sj.MQTT)
	}
	if sj.Network != nil {
		t.Error("absent network info should be omitted")
	}
}

func TestBuildNetworkBlock(t *testing.T) {
	snap := Snapshot{
		Network: &NetworkInfo{Type: "wifi", IP: "192.168.1.50", Status: "up", SSID: "barn"},
	}
	sj := Build(snap)
	if sj.Network == nil {
		t.Fatal("network block missing")
	}
	if sj.Network.IP != "192.168.1.50" || sj.Network.SSID != "barn" {
		t.Errorf("network block: got %+v", sj.Network)
	}
}

func TestFormatJSONFieldNames(t *testing.T) {
	snap := Snapshot{
		Control: control.Snapshot{Mode: control.ModeManual, Direction: control.DirectionStopped},
	}

	var decoded map[string]any
	if err := json.Unmarshal(FormatJSON(snap), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// The page's JS reads these exact keys.
	for _, key := range []string{
		"estopActive", "mode", "cycleDirection", "gpo1", "gpo2",
		"inputA", "inputD", "endStopIn", "endStopOut",
		"lastDuration", "avgDuration", "history",
		"cycleTimeout", "timeoutEnabled",
		"uptime_seconds", "timestamp", "mqtt", "config",
	} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("wire format missing key %q", key)
		}
	}
	if _, ok := decoded["network"]; ok {
		t.Error("network key should be omitted when absent")
	}
}

func TestFormatCompactIsValidJSON(t *testing.T) {
	snap := Snapshot{
		Control: control.Snapshot{Mode: control.ModeManual, Direction: control.DirectionStopped},
	}
	if !json.Valid(FormatCompact(snap)) {
		t.Error("compact status is not valid JSON")
	}
}
