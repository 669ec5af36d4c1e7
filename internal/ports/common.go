package ports

import (
	"context"
	"errors"
	"fmt"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"time"
)

type Port interface {
	GetId() string

	// Acquire reads count raw samples, blocking until all of them are available
	Acquire(ctx context.Context, count int) ([]float64, error)

	// Actuate writes the command to the output channel.
	// Pulse commands block for the duration of the pulse.
	Actuate(ctx context.Context, command actuation.Command) error

	Close() error
}

// output is the primitive a port has to provide to execute actuation commands
type output interface {
	writeAnalog(ctx context.Context, value float64) error
	writeDigital(ctx context.Context, high bool) error
}

// NewPort creates the port described by config. Setup failures are
// returned as *ConfigurationError.
func NewPort(id string, config configuration.PortConfig, sampleRate float64) (Port, error) {
	if sampleRate <= 0 {
		return nil, &ConfigurationError{Device: id, Err: fmt.Errorf("invalid sample rate: %v", sampleRate)}
	}

	if config.Serial != nil {
		return NewSerialPort(id, *config.Serial, sampleRate)
	}
	if config.File != nil {
		return NewFilePort(id, *config.File, sampleRate)
	}
	if config.Cmd != nil {
		return NewCmdPort(id, *config.Cmd, sampleRate)
	}
	if config.Hwmon != nil {
		return NewHwmonPort(id, *config.Hwmon, sampleRate)
	}
	if config.Simulated != nil {
		return NewSimulatedPort(id, *config.Simulated, sampleRate), nil
	}

	return nil, &ConfigurationError{Device: id, Err: errors.New("no port type configured")}
}

// sampleInterval is the time between two consecutive samples
func sampleInterval(sampleRate float64) time.Duration {
	return time.Duration(float64(time.Second) / sampleRate)
}

// sample calls read count times, waiting interval between two calls
func sample(ctx context.Context, count int, interval time.Duration, read func() (float64, error)) ([]float64, error) {
	result := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 {
			if err := wait(ctx, interval); err != nil {
				return nil, err
			}
		}
		value, err := read()
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}

// actuate executes command on o. A pulse asserts the digital output,
// waits for its duration and deasserts it again, even if ctx is cancelled meanwhile.
func actuate(ctx context.Context, o output, command actuation.Command) error {
	switch command.Kind {
	case actuation.KindAnalog:
		return o.writeAnalog(ctx, command.Value)
	case actuation.KindPulse:
		duration := command.PulseDuration()
		if duration <= 0 {
			return nil
		}
		if err := o.writeDigital(ctx, true); err != nil {
			return err
		}
		waitErr := wait(ctx, duration)
		if err := o.writeDigital(context.Background(), false); err != nil {
			return err
		}
		return waitErr
	default:
		return fmt.Errorf("unsupported command kind: %s", command.Kind)
	}
}

func wait(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func digitalValue(high bool) float64 {
	if high {
		return 1
	}
	return 0
}
