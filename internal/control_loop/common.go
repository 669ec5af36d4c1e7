package control_loop

// Regulator computes a correction signal from a measured value and the desired setpoint.
type Regulator interface {
	// Step advances the regulator by one sample interval
	Step(measured float64, setpoint float64) float64
	// Reset reinitializes the accumulated state
	Reset()
	State() PidState
}
