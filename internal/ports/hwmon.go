package ports

import (
	"context"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/hwmon"
	"github.com/markusressel/daq2go/internal/util"
	"os"
	"strconv"
)

// HwmonPort reads a temperature sensor of an lm-sensors chip and writes
// commands to a sysfs attribute, e.g. the value of a gpio line.
type HwmonPort struct {
	id         string
	input      string
	output     string
	sampleRate float64
}

func NewHwmonPort(id string, config configuration.HwmonPortConfig, sampleRate float64) (*HwmonPort, error) {
	sensor, err := hwmon.FindTempSensor(hwmon.GetChips(), config.Platform, config.Index)
	if err != nil {
		return nil, &ConfigurationError{Device: config.Platform, Channel: strconv.Itoa(config.Index), Err: err}
	}
	if _, err := os.Stat(config.Output); err != nil {
		return nil, &ConfigurationError{Device: config.Output, Channel: "output", Err: err}
	}
	return newHwmonPort(id, sensor.Input, config.Output, sampleRate), nil
}

func newHwmonPort(id string, input string, output string, sampleRate float64) *HwmonPort {
	return &HwmonPort{
		id:         id,
		input:      input,
		output:     output,
		sampleRate: sampleRate,
	}
}

func (p *HwmonPort) GetId() string {
	return p.id
}

// Acquire returns temperatures in degrees celsius
func (p *HwmonPort) Acquire(ctx context.Context, count int) ([]float64, error) {
	values, err := sample(ctx, count, sampleInterval(p.sampleRate), func() (float64, error) {
		milliDegrees, err := util.ReadFloatFromFile(p.input)
		if err != nil {
			return 0, err
		}
		return milliDegrees / 1000, nil
	})
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}
	return values, nil
}

func (p *HwmonPort) Actuate(ctx context.Context, command actuation.Command) error {
	if err := actuate(ctx, p, command); err != nil {
		return &ActuationError{Port: p.id, Err: err}
	}
	return nil
}

func (p *HwmonPort) writeAnalog(_ context.Context, value float64) error {
	return util.WriteFloatToFile(value, p.output)
}

func (p *HwmonPort) writeDigital(_ context.Context, high bool) error {
	return util.WriteFloatToFile(digitalValue(high), p.output)
}

func (p *HwmonPort) Close() error {
	return nil
}
