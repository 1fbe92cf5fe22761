package mqtt

import "github.com/jakepeery/grout-pump/internal/control"

// FakePublisher records everything published so tests can assert on the
// event stream and the exact wire payloads.
type FakePublisher struct {
	Events   []control.Event
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// PublishError / PublishSystemError inject failures; a failed call
	// records nothing.
	PublishError       error
	PublishSystemError error

	// Connected is what IsConnected reports.
	Connected bool

	Closed bool
}

// NewFakePublisher creates an empty recorder.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the event and its formatted payload.
func (f *FakePublisher) Publish(event control.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the lifecycle event and its formatted payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// EventTypes returns the recorded control event types in publish order.
func (f *FakePublisher) EventTypes() []control.EventType {
	types := make([]control.EventType, len(f.Events))
	for i, ev := range f.Events {
		types[i] = ev.Type
	}
	return types
}

// IsConnected reports the scripted connection state.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset returns the fake to its initial state.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
