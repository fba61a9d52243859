//go:build linux

package device

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// HardwareRelay drives a relay module from a single GPIO output line.
type HardwareRelay struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	on   bool
}

// NewHardwareRelay requests pin as an output, initially inactive (relay OFF).
// activeLow is for relay boards that energise the coil on a low level.
func NewHardwareRelay(chipName string, pin int, activeLow bool) (*HardwareRelay, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	line, err := chip.RequestLine(pin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
	}

	return &HardwareRelay{chip: chip, line: line}, nil
}

// SetOn energises the relay.
func (r *HardwareRelay) SetOn() error {
	return r.set(true)
}

// SetOff de-energises the relay.
func (r *HardwareRelay) SetOff() error {
	return r.set(false)
}

func (r *HardwareRelay) set(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.line == nil {
		return errors.New("relay released")
	}
	v := 0
	if on {
		v = 1
	}
	if err := r.line.SetValue(v); err != nil {
		return fmt.Errorf("set relay line: %w", err)
	}
	r.on = on
	return nil
}

// IsOn reports the last state successfully written to the line.
func (r *HardwareRelay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// Release drives the line inactive, then returns the pin to an input with
// pull-down (the Pi boot default) before closing it.
func (r *HardwareRelay) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.line == nil {
		return nil
	}

	var errs []error
	if err := r.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("drive relay off: %w", err))
	}
	r.on = false
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure relay pin: %w", err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close relay pin: %w", err))
	}
	if err := r.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	r.line = nil
	return errors.Join(errs...)
}

// HardwareSensor reads a MAX31855 thermocouple converter by bit-banging its
// read-only SPI interface over three GPIO lines.
type HardwareSensor struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	cs   *gpiocdev.Line
	clk  *gpiocdev.Line
	do   *gpiocdev.Line
}

// NewHardwareSensor requests the chip select, clock and data out pins.
func NewHardwareSensor(chipName string, pinCS, pinCLK, pinDO int) (*HardwareSensor, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	s := &HardwareSensor{chip: chip}
	if s.cs, err = chip.RequestLine(pinCS, gpiocdev.AsOutput(1)); err != nil {
		s.Close()
		return nil, fmt.Errorf("request CS pin %d: %w", pinCS, err)
	}
	if s.clk, err = chip.RequestLine(pinCLK, gpiocdev.AsOutput(0)); err != nil {
		s.Close()
		return nil, fmt.Errorf("request CLK pin %d: %w", pinCLK, err)
	}
	if s.do, err = chip.RequestLine(pinDO, gpiocdev.AsInput); err != nil {
		s.Close()
		return nil, fmt.Errorf("request DO pin %d: %w", pinDO, err)
	}
	return s, nil
}

// Read clocks one frame out of the converter and decodes it.
func (s *HardwareSensor) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.do == nil {
		return 0, errors.New("sensor closed")
	}

	frame, err := s.readFrame()
	if err != nil {
		return 0, err
	}
	return decodeMAX31855(frame)
}

func (s *HardwareSensor) readFrame() (uint32, error) {
	if err := s.clk.SetValue(0); err != nil {
		return 0, fmt.Errorf("clock low: %w", err)
	}
	if err := s.cs.SetValue(0); err != nil {
		return 0, fmt.Errorf("select: %w", err)
	}
	defer s.cs.SetValue(1)

	var frame uint32
	for i := 0; i < 32; i++ {
		if err := s.clk.SetValue(0); err != nil {
			return 0, fmt.Errorf("clock low: %w", err)
		}
		bit, err := s.do.Value()
		if err != nil {
			return 0, fmt.Errorf("read data bit %d: %w", 31-i, err)
		}
		frame = frame<<1 | uint32(bit&1)
		if err := s.clk.SetValue(1); err != nil {
			return 0, fmt.Errorf("clock high: %w", err)
		}
	}
	return frame, nil
}

// Close releases the GPIO lines and the chip.
func (s *HardwareSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, l := range []*gpiocdev.Line{s.cs, s.clk, s.do} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	s.cs, s.clk, s.do = nil, nil, nil
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		s.chip = nil
	}
	return errors.Join(errs...)
}
