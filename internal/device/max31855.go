package device

import (
	"errors"
	"fmt"
)

// MAX31855 fault bits.
var (
	ErrOpenCircuit = errors.New("max31855: thermocouple open circuit")
	ErrShortToGND  = errors.New("max31855: thermocouple shorted to GND")
	ErrShortToVCC  = errors.New("max31855: thermocouple shorted to VCC")
	ErrSensorFault = errors.New("max31855: fault")
)

// decodeMAX31855 converts a raw 32-bit MAX31855 frame to degrees Celsius.
// D31..D18 hold the signed thermocouple reading in 0.25°C steps; D16 is the
// fault flag and D2..D0 name the fault.
func decodeMAX31855(frame uint32) (float64, error) {
	if frame&(1<<16) != 0 {
		switch {
		case frame&0x1 != 0:
			return 0, ErrOpenCircuit
		case frame&0x2 != 0:
			return 0, ErrShortToGND
		case frame&0x4 != 0:
			return 0, ErrShortToVCC
		}
		return 0, fmt.Errorf("%w: frame %#08x", ErrSensorFault, frame)
	}

	raw := int32(frame) >> 18
	return float64(raw) * 0.25, nil
}
