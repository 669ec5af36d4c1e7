package actuation

import (
	"fmt"
	"math"
	"time"
)

type Kind int

const (
	// KindAnalog is a direct analog magnitude, e.g. an output voltage
	KindAnalog Kind = iota
	// KindPulse asserts a digital output for Command.Value seconds
	KindPulse
)

func (k Kind) String() string {
	switch k {
	case KindAnalog:
		return "analog"
	case KindPulse:
		return "pulse"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is a single actuation request, consumed by the I/O port.
type Command struct {
	Kind  Kind    `json:"kind"`
	Value float64 `json:"value"`
}

// PulseDuration returns the assertion time of a KindPulse command
func (c Command) PulseDuration() time.Duration {
	if c.Kind != KindPulse || math.IsNaN(c.Value) || c.Value <= 0 {
		return 0
	}
	return time.Duration(c.Value * float64(time.Second))
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%.4f)", c.Kind, c.Value)
}
