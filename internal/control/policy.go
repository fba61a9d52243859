package control

// Decide maps a temperature reading to the desired relay command.
// Inside the band [target-tolerance, target+tolerance], boundaries included,
// it returns NoChange so the relay does not oscillate around the target.
func Decide(temp float64, cfg Config) Command {
	low, high := cfg.TargetTemp-cfg.Tolerance, cfg.TargetTemp+cfg.Tolerance

	switch {
	case temp < low:
		if cfg.IsHeater {
			return TurnOn
		}
		return TurnOff
	case temp > high:
		if cfg.IsHeater {
			return TurnOff
		}
		return TurnOn
	}
	return NoChange
}

// InBand reports whether temp lies within the tolerance band.
func InBand(temp float64, cfg Config) bool {
	return temp >= cfg.TargetTemp-cfg.Tolerance && temp <= cfg.TargetTemp+cfg.Tolerance
}
