package gpio

import "errors"

// FakeIO is a test double that returns scripted input samples and
// records every output write.
type FakeIO struct {
	// Samples contains scripted input values. Each call to ReadInputs
	// consumes the next sample; when exhausted, the last sample repeats.
	Samples []Inputs

	index int

	// Outputs records every SetOutputs call in order.
	Outputs []OutputState

	// Closed tracks if Close was called.
	Closed bool

	// ReadError, if set, will be returned by ReadInputs.
	ReadError error

	// WriteError, if set, will be returned by SetOutputs.
	WriteError error
}

// OutputState is one recorded SetOutputs call.
type OutputState struct {
	Gpo1, Gpo2 bool
}

// NewFakeIO creates a FakeIO with the given samples.
func NewFakeIO(samples []Inputs) *FakeIO {
	return &FakeIO{Samples: samples}
}

// ReadInputs returns the next scripted sample.
func (f *FakeIO) ReadInputs() (Inputs, error) {
	if f.ReadError != nil {
		return Inputs{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Inputs{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// SetOutputs records the write.
func (f *FakeIO) SetOutputs(gpo1, gpo2 bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Outputs = append(f.Outputs, OutputState{Gpo1: gpo1, Gpo2: gpo2})
	return nil
}

// LastOutputs returns the most recent write, or all-low if none.
func (f *FakeIO) LastOutputs() OutputState {
	if len(f.Outputs) == 0 {
		return OutputState{}
	}
	return f.Outputs[len(f.Outputs)-1]
}

// Close marks the IO as closed.
func (f *FakeIO) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the sample script and clears recorded state.
func (f *FakeIO) Reset() {
	f.index = 0
	f.Outputs = nil
	f.Closed = false
}
