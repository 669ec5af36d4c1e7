package ports

import (
	"context"
	"errors"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/util"
	"strconv"
	"time"
)

// CmdPort delegates acquisition and actuation to external executables.
//
// The acquire command receives the placeholders %count% and %rate% and has to print
// the samples separated by whitespace or commas. The actuate command receives
// %value% and %kind% (analog | digital).
type CmdPort struct {
	id         string
	acquire    configuration.ExecConfig
	actuate    configuration.ExecConfig
	sampleRate float64
	timeout    time.Duration
}

func NewCmdPort(id string, config configuration.CmdPortConfig, sampleRate float64) (*CmdPort, error) {
	if config.Acquire == nil {
		return nil, &ConfigurationError{Device: id, Channel: "acquire", Err: errors.New("acquire command is missing")}
	}
	if config.Actuate == nil {
		return nil, &ConfigurationError{Device: id, Channel: "actuate", Err: errors.New("actuate command is missing")}
	}

	for channel, execConfig := range map[string]*configuration.ExecConfig{"acquire": config.Acquire, "actuate": config.Actuate} {
		if _, err := util.CheckFilePermissionsForExecution(execConfig.Exec); err != nil {
			return nil, &ConfigurationError{Device: execConfig.Exec, Channel: channel, Err: err}
		}
	}

	return &CmdPort{
		id:         id,
		acquire:    *config.Acquire,
		actuate:    *config.Actuate,
		sampleRate: sampleRate,
		timeout:    config.Timeout,
	}, nil
}

func (p *CmdPort) GetId() string {
	return p.id
}

func (p *CmdPort) Acquire(ctx context.Context, count int) ([]float64, error) {
	args := util.ReplacePlaceholders(p.acquire.Args, map[string]string{
		"count": strconv.Itoa(count),
		"rate":  util.FormatFloat(p.sampleRate),
	})

	// the command may take as long as sampling the whole batch
	batchDuration := time.Duration(float64(count) / p.sampleRate * float64(time.Second))
	out, err := util.SafeCmdExecution(ctx, p.acquire.Exec, args, p.timeout+batchDuration)
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}

	values, err := util.ParseFloats(out)
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}
	if len(values) <= 0 {
		return nil, &AcquisitionError{Port: p.id, Err: errors.New("command returned no samples")}
	}
	return values, nil
}

func (p *CmdPort) Actuate(ctx context.Context, command actuation.Command) error {
	if err := actuate(ctx, p, command); err != nil {
		return &ActuationError{Port: p.id, Err: err}
	}
	return nil
}

func (p *CmdPort) writeAnalog(ctx context.Context, value float64) error {
	return p.run(ctx, configuration.ChannelTypeAnalog, value)
}

func (p *CmdPort) writeDigital(ctx context.Context, high bool) error {
	return p.run(ctx, configuration.ChannelTypeDigital, digitalValue(high))
}

func (p *CmdPort) run(ctx context.Context, kind configuration.ChannelType, value float64) error {
	args := util.ReplacePlaceholders(p.actuate.Args, map[string]string{
		"kind":  string(kind),
		"value": util.FormatFloat(value),
	})
	_, err := util.SafeCmdExecution(ctx, p.actuate.Exec, args, p.timeout)
	return err
}

func (p *CmdPort) Close() error {
	return nil
}
