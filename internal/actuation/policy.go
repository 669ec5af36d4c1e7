package actuation

import (
	"fmt"
	"github.com/markusressel/daq2go/internal/util"
	"math"
)

const (
	ChannelTypeAnalog  = "analog"
	ChannelTypeDigital = "digital"

	// MaxPulse is the upper bound of a digital pulse in seconds
	MaxPulse = 0.5
)

// Policy maps a regulator correction to a command for a specific channel type.
type Policy interface {
	Command(correction float64) Command
}

func NewPolicy(channelType string) (Policy, error) {
	switch channelType {
	case ChannelTypeAnalog:
		return AnalogPolicy{}, nil
	case ChannelTypeDigital:
		return DigitalPulsePolicy{}, nil
	default:
		return nil, fmt.Errorf("unsupported channel type '%s', use one of: %s | %s", channelType, ChannelTypeAnalog, ChannelTypeDigital)
	}
}

// AnalogPolicy passes the correction through unchanged.
type AnalogPolicy struct{}

func (AnalogPolicy) Command(correction float64) Command {
	return Command{Kind: KindAnalog, Value: correction}
}

// DigitalPulsePolicy inverts the correction and clamps it to a pulse width in [0, MaxPulse].
// A measurement above the setpoint gives a longer pulse, which suits a cooling actuator.
type DigitalPulsePolicy struct{}

func (DigitalPulsePolicy) Command(correction float64) Command {
	return Command{Kind: KindPulse, Value: ClampPulse(-correction)}
}

// ClampPulse limits a pulse width to the closed interval [0, MaxPulse], NaN yields 0
func ClampPulse(value float64) float64 {
	if math.IsNaN(value) || value <= 0 {
		return 0
	}
	return util.Coerce(value, 0, MaxPulse)
}
