package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jakepeery/grout-pump/internal/control"
)

func TestFormatPayload(t *testing.T) {
	event := control.Event{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Type:      control.EventStroke,
		Mode:      control.ModeAutoLoop,
		Direction: control.DirectionIn,
		Duration:  1340 * time.Millisecond,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var decoded Payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Pump.Event != "STROKE" {
		t.Errorf("event: got %q", decoded.Pump.Event)
	}
	if decoded.Pump.Mode != "AUTO_LOOP" || decoded.Pump.Direction != "IN" {
		t.Errorf("mode/direction: got %q/%q", decoded.Pump.Mode, decoded.Pump.Direction)
	}
	if decoded.Pump.DurationMs != 1340 {
		t.Errorf("duration: got %d", decoded.Pump.DurationMs)
	}
	if decoded.Pump.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("timestamp: got %q", decoded.Pump.Timestamp)
	}
}

func TestFormatPayloadOmitsEmptyFields(t *testing.T) {
	event := control.Event{
		Timestamp: time.Now(),
		Type:      control.EventEstopOn,
		Mode:      control.ModeManual,
		Direction: control.DirectionStopped,
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}

	var decoded map[string]map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	pump := decoded["pump"]
	if _, ok := pump["duration_ms"]; ok {
		t.Error("zero duration should be omitted")
	}
	if _, ok := pump["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestFormatPayloadIncludesReason(t *testing.T) {
	event := control.Event{
		Timestamp: time.Now(),
		Type:      control.EventAutoStop,
		Mode:      control.ModeManual,
		Direction: control.DirectionOut,
		Reason:    "manual_override",
	}

	data, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("FormatPayload: %v", err)
	}
	var decoded Payload
	json.Unmarshal(data, &decoded)
	if decoded.Pump.Reason != "manual_override" {
		t.Errorf("reason: got %q", decoded.Pump.Reason)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var decoded SystemPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.System.Event != "SHUTDOWN" || decoded.System.Reason != "SIGTERM" {
		t.Errorf("system payload: got %+v", decoded.System)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"mode":"MANUAL"}`)
	event := SystemEvent{Event: "STARTUP", RawPayload: raw}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("raw payload should pass through verbatim, got %s", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	event := control.Event{
		Timestamp: time.Now(),
		Type:      control.EventAutoStart,
		Mode:      control.ModeAutoLoop,
		Direction: control.DirectionOut,
	}
	if err := f.Publish(event); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(f.Events) != 1 || f.Events[0].Type != control.EventAutoStart {
		t.Errorf("events: got %+v", f.Events)
	}
	if len(f.Payloads) != 1 || !json.Valid(f.Payloads[0]) {
		t.Error("payload not recorded as valid JSON")
	}

	f.PublishError = errors.New("broker down")
	if err := f.Publish(event); err == nil {
		t.Error("expected injected publish error")
	}
	if len(f.Events) != 1 {
		t.Error("failed publish should not be recorded")
	}
}

func TestOutboxFIFO(t *testing.T) {
	o := newOutbox(4)
	o.add(queuedMsg{topic: Topic, payload: []byte("a")})
	o.add(queuedMsg{topic: Topic, payload: []byte("b")})
	o.add(queuedMsg{topic: Topic, payload: []byte("c")})

	if o.len() != 3 {
		t.Fatalf("len: got %d", o.len())
	}

	msgs := o.drain()
	if len(msgs) != 3 {
		t.Fatalf("drained: got %d", len(msgs))
	}
	for i, want := range []string{"a", "b", "c"} {
		if string(msgs[i].payload) != want {
			t.Errorf("msg %d: got %s, want %s", i, msgs[i].payload, want)
		}
	}

	if o.len() != 0 || o.drain() != nil {
		t.Error("drain should empty the outbox")
	}
}

func TestOutboxOverflowDropsOldest(t *testing.T) {
	o := newOutbox(3)
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		o.add(queuedMsg{payload: []byte(p)})
	}

	if o.len() != 3 {
		t.Fatalf("len after overflow: got %d", o.len())
	}
	msgs := o.drain()
	for i, want := range []string{"c", "d", "e"} {
		if string(msgs[i].payload) != want {
			t.Errorf("msg %d: got %s, want %s", i, msgs[i].payload, want)
		}
	}
}

func TestOutboxRefillAfterDrain(t *testing.T) {
	o := newOutbox(2)
	o.add(queuedMsg{payload: []byte("a")})
	o.drain()

	o.add(queuedMsg{payload: []byte("b")})
	msgs := o.drain()
	if len(msgs) != 1 || string(msgs[0].payload) != "b" {
		t.Errorf("refill after drain: got %v", msgs)
	}
}
