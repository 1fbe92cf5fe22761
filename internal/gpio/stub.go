//go:build !linux

package gpio

import "errors"

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(pins Pins) (*RealIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadInputs is not implemented on non-Linux platforms.
func (r *RealIO) ReadInputs() (Inputs, error) {
	return Inputs{}, errors.New("gpio: not supported")
}

// SetOutputs is not implemented on non-Linux platforms.
func (r *RealIO) SetOutputs(gpo1, gpo2 bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealIO) Close() error {
	return nil
}
