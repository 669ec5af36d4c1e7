package control_loop

import (
	"sync"
)

// PidState is a snapshot of the gains and the accumulated state of a PidRegulator.
type PidState struct {
	P        float64 `json:"p"`
	I        float64 `json:"i"`
	D        float64 `json:"d"`
	DeltaT   float64 `json:"deltaT"`
	Integral float64 `json:"integral"`
	Previous float64 `json:"previous"`
}

// PidRegulator is a discrete PID controller with a fixed sample interval.
// The integral is accumulated in raw error units and is neither clamped nor reset
// automatically, windup limiting is up to the actuation stage.
type PidRegulator struct {
	mu sync.Mutex

	// Proportional Constant
	p float64
	// Integral Constant
	i float64
	// Derivative Constant
	d float64
	// time between two consecutive steps
	deltaT float64

	// sum of all errors seen so far
	integral float64
	// measured value of the previous step
	previous float64
}

func NewPidRegulator(p, i, d, deltaT float64) *PidRegulator {
	return &PidRegulator{
		p:      p,
		i:      i,
		d:      d,
		deltaT: deltaT,
	}
}

func (r *PidRegulator) Step(measured float64, setpoint float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.previous

	err := setpoint - measured
	r.integral += err
	r.previous = measured

	derivative := (measured - previous) / r.deltaT

	return r.p*err + r.d*derivative + r.i*r.integral*r.deltaT
}

func (r *PidRegulator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integral = 0
	r.previous = 0
}

func (r *PidRegulator) State() PidState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return PidState{
		P:        r.p,
		I:        r.i,
		D:        r.d,
		DeltaT:   r.deltaT,
		Integral: r.integral,
		Previous: r.previous,
	}
}
