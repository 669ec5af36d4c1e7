package configuration

import (
	"github.com/markusressel/daq2go/internal/actuation"
	"time"
)

const (
	DefaultSamples             = 20
	DefaultSampleRate          = 1000.0
	DefaultSmoothingCapacity   = 2
	DefaultTelemetryMaxEntries = 100
	DefaultTelemetryBuffer     = 64
)

type ChannelType string

const (
	ChannelTypeAnalog  ChannelType = actuation.ChannelTypeAnalog
	ChannelTypeDigital ChannelType = actuation.ChannelTypeDigital
)

type LoopConfig struct {
	ID string `json:"id"`

	// number of raw samples acquired per cycle
	Samples int `json:"samples"`
	// acquisition rate in Hz
	SampleRate float64 `json:"sampleRate"`
	// conversion factor applied to the averaged reading, e.g. volts to degrees
	Scale float64 `json:"scale"`
	// minimum duration of a cycle, 0 lets the acquisition pace the loop
	Period time.Duration `json:"period"`

	// number of retries of a failed acquisition/actuation before the loop terminates
	MaxRetries int `json:"maxRetries"`
	// delay before the first retry, doubled for every further attempt
	RetryBackoff time.Duration `json:"retryBackoff"`

	Smoothing SmoothingConfig `json:"smoothing"`
	Pid       PidConfig       `json:"pid"`
	Setpoint  SetpointConfig  `json:"setpoint"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Port      PortConfig      `json:"port"`
	Output    OutputConfig    `json:"output"`
}

// EffectiveDeltaT returns the configured PID timestep, or the duration
// of one acquisition batch if none is configured
func (c LoopConfig) EffectiveDeltaT() float64 {
	if c.Pid.DeltaT > 0 {
		return c.Pid.DeltaT
	}
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(c.Samples) / c.SampleRate
}

type SmoothingConfig struct {
	Enabled  bool `json:"enabled"`
	Capacity int  `json:"capacity"`
}

// DefaultPidConfig is used for loops without any pid constants,
// a pure integral controller suitable for the laser power loop
var DefaultPidConfig = PidConfig{P: 0, I: 10, D: 0}

type PidConfig struct {
	P      float64 `json:"p"`
	I      float64 `json:"i"`
	D      float64 `json:"d"`
	DeltaT float64 `json:"deltaT"`
}

type SetpointConfig struct {
	Initial float64 `json:"initial"`
	// read new setpoints from the terminal
	Stdin  bool   `json:"stdin"`
	Prompt string `json:"prompt"`
	// remember the last setpoint across restarts
	Persist DefaultTrueBool `json:"persist"`
}

type TelemetryConfig struct {
	Plot       bool `json:"plot"`
	Log        bool `json:"log"`
	MaxEntries int  `json:"maxEntries"`
	Buffer     int  `json:"buffer"`
}

type OutputConfig struct {
	Type ChannelType `json:"type"`
	// value dispatched once when the loop terminates, nil keeps the last command
	Failsafe *float64 `json:"failsafe,omitempty"`
}
