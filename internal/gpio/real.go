//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO drives actual hardware through the Linux GPIO character device.
type RealIO struct {
	chip *gpiocdev.Chip

	gpo1 *gpiocdev.Line
	gpo2 *gpiocdev.Line

	a, b, c, d *gpiocdev.Line
	endStopIn  *gpiocdev.Line
	endStopOut *gpiocdev.Line
	estop      *gpiocdev.Line
}

// NewRealIO requests all lines on gpiochip0. Inputs get internal
// pull-ups to match the external wiring (momentary switches and NC
// loops to ground); outputs start low.
func NewRealIO(pins Pins) (*RealIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealIO{chip: chip}

	requestInput := func(dst **gpiocdev.Line, pin int, name string) {
		if err != nil {
			return
		}
		line, reqErr := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if reqErr != nil {
			err = fmt.Errorf("request %s pin %d: %w", name, pin, reqErr)
			return
		}
		*dst = line
	}

	requestOutput := func(dst **gpiocdev.Line, pin int, name string) {
		if err != nil {
			return
		}
		line, reqErr := chip.RequestLine(pin, gpiocdev.AsOutput(0))
		if reqErr != nil {
			err = fmt.Errorf("request %s pin %d: %w", name, pin, reqErr)
			return
		}
		*dst = line
	}

	requestOutput(&r.gpo1, pins.Gpo1, "GPO1")
	requestOutput(&r.gpo2, pins.Gpo2, "GPO2")
	requestInput(&r.a, pins.A, "input A")
	requestInput(&r.b, pins.B, "input B")
	requestInput(&r.c, pins.C, "input C")
	requestInput(&r.d, pins.D, "input D")
	requestInput(&r.endStopIn, pins.EndStopIn, "endstop IN")
	requestInput(&r.endStopOut, pins.EndStopOut, "endstop OUT")
	requestInput(&r.estop, pins.Estop, "estop")

	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// ReadInputs samples all input lines and normalizes them to logical
// levels: buttons active-low (0 = held), endstops and estop normally
// closed (1 = open = triggered).
func (r *RealIO) ReadInputs() (Inputs, error) {
	var in Inputs

	read := func(line *gpiocdev.Line, name string) (int, error) {
		v, err := line.Value()
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", name, err)
		}
		return v, nil
	}

	v, err := read(r.a, "input A")
	if err != nil {
		return in, err
	}
	in.A = v == 0
	if v, err = read(r.b, "input B"); err != nil {
		return in, err
	}
	in.B = v == 0
	if v, err = read(r.c, "input C"); err != nil {
		return in, err
	}
	in.C = v == 0
	if v, err = read(r.d, "input D"); err != nil {
		return in, err
	}
	in.D = v == 0
	if v, err = read(r.endStopIn, "endstop IN"); err != nil {
		return in, err
	}
	in.EndStopIn = v == 1
	if v, err = read(r.endStopOut, "endstop OUT"); err != nil {
		return in, err
	}
	in.EndStopOut = v == 1
	if v, err = read(r.estop, "estop"); err != nil {
		return in, err
	}
	in.Estop = v == 1

	return in, nil
}

// SetOutputs writes the SSR lines, always clearing before asserting so
// no transient double-high can appear between the two writes.
func (r *RealIO) SetOutputs(gpo1, gpo2 bool) error {
	first, second := r.gpo1, r.gpo2
	firstVal, secondVal := boolToValue(gpo1), boolToValue(gpo2)
	if gpo1 {
		// Asserting GPO1: clear GPO2 first.
		first, second = r.gpo2, r.gpo1
		firstVal, secondVal = boolToValue(gpo2), boolToValue(gpo1)
	}
	if err := first.SetValue(firstVal); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	if err := second.SetValue(secondVal); err != nil {
		return fmt.Errorf("set output: %w", err)
	}
	return nil
}

// Close forces both outputs low, then releases all lines and the chip.
// Outputs-low-first matters: a daemon restart must never leave a valve
// coil energized.
func (r *RealIO) Close() error {
	var errs []error

	for _, out := range []*gpiocdev.Line{r.gpo1, r.gpo2} {
		if out == nil {
			continue
		}
		if err := out.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output: %w", err))
		}
		if err := out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	for _, in := range []*gpiocdev.Line{r.a, r.b, r.c, r.d, r.endStopIn, r.endStopOut, r.estop} {
		if in == nil {
			continue
		}
		if err := in.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolToValue(b bool) int {
	if b {
		return 1
	}
	return 0
}
