package ports

import (
	"context"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/util"
	"os"
	"path/filepath"
)

// FilePort reads its input from a file containing a single number and
// replaces the output file with every command.
type FilePort struct {
	id         string
	input      string
	output     string
	sampleRate float64
}

func NewFilePort(id string, config configuration.FilePortConfig, sampleRate float64) (*FilePort, error) {
	input, err := util.ExpandPath(config.Input)
	if err != nil {
		return nil, &ConfigurationError{Device: config.Input, Channel: "input", Err: err}
	}
	output, err := util.ExpandPath(config.Output)
	if err != nil {
		return nil, &ConfigurationError{Device: config.Output, Channel: "output", Err: err}
	}

	if _, err := os.Stat(input); err != nil {
		return nil, &ConfigurationError{Device: input, Channel: "input", Err: err}
	}
	if _, err := os.Stat(filepath.Dir(output)); err != nil {
		return nil, &ConfigurationError{Device: output, Channel: "output", Err: err}
	}

	return &FilePort{
		id:         id,
		input:      input,
		output:     output,
		sampleRate: sampleRate,
	}, nil
}

func (p *FilePort) GetId() string {
	return p.id
}

func (p *FilePort) Acquire(ctx context.Context, count int) ([]float64, error) {
	values, err := sample(ctx, count, sampleInterval(p.sampleRate), func() (float64, error) {
		return util.ReadFloatFromFile(p.input)
	})
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}
	return values, nil
}

func (p *FilePort) Actuate(ctx context.Context, command actuation.Command) error {
	if err := actuate(ctx, p, command); err != nil {
		return &ActuationError{Port: p.id, Err: err}
	}
	return nil
}

func (p *FilePort) writeAnalog(_ context.Context, value float64) error {
	return util.WriteFloatToFileAtomic(value, p.output)
}

func (p *FilePort) writeDigital(_ context.Context, high bool) error {
	return util.WriteFloatToFileAtomic(digitalValue(high), p.output)
}

func (p *FilePort) Close() error {
	return nil
}
