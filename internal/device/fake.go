package device

import (
	"context"
	"errors"
)

// FakeSensor is a test double that returns scripted readings.
type FakeSensor struct {
	// Samples contains scripted readings to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample is a single scripted reading. A non-nil Err fails that read.
type Sample struct {
	Temp float64
	Err  error
}

// NewFakeSensor creates a FakeSensor returning the given temperatures.
func NewFakeSensor(temps ...float64) *FakeSensor {
	samples := make([]Sample, len(temps))
	for i, t := range temps {
		samples[i] = Sample{Temp: t}
	}
	return &FakeSensor{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSensor) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Temp, sample.Err
}

// Close marks the sensor as closed.
func (f *FakeSensor) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the sensor to the first sample.
func (f *FakeSensor) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeRelay records commands for test assertions.
type FakeRelay struct {
	// On is the current relay state.
	On bool

	// Commands records every successful SetOn (true) and SetOff (false).
	Commands []bool

	// SetOnError and SetOffError, if set, are returned by the matching call.
	SetOnError  error
	SetOffError error

	// Released counts Release calls.
	Released int
}

// NewFakeRelay creates a FakeRelay in the given state.
func NewFakeRelay(on bool) *FakeRelay {
	return &FakeRelay{On: on}
}

func (f *FakeRelay) SetOn() error {
	if f.SetOnError != nil {
		return f.SetOnError
	}
	f.On = true
	f.Commands = append(f.Commands, true)
	return nil
}

func (f *FakeRelay) SetOff() error {
	if f.SetOffError != nil {
		return f.SetOffError
	}
	f.On = false
	f.Commands = append(f.Commands, false)
	return nil
}

func (f *FakeRelay) IsOn() bool {
	return f.On
}

func (f *FakeRelay) Release() error {
	f.Released++
	return nil
}
