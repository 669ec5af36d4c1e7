package ports

import (
	"context"
	"errors"
	"fmt"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/markusressel/daq2go/internal/util"
	"go.bug.st/serial"
	"golang.org/x/exp/slices"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	serialReplyOk    = "OK"
	serialReplyError = "ERR"
)

// SerialPort talks to a DAQ microcontroller using a line based protocol:
//
//	AI <channel> <count> <rate>  ->  <v1>,<v2>,...
//	AO <channel> <value>         ->  OK | ERR <message>
//	DO <line> 1|0                ->  OK | ERR <message>
type SerialPort struct {
	id         string
	device     string
	input      int
	output     int
	sampleRate float64
	timeout    time.Duration

	mu   sync.Mutex
	conn io.ReadWriteCloser
	// bytes received after the last complete line
	pending []byte
}

// ListSerialPorts returns the names of all serial ports present on this machine
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

func NewSerialPort(id string, config configuration.SerialPortConfig, sampleRate float64) (*SerialPort, error) {
	available, err := ListSerialPorts()
	if err != nil {
		return nil, &ConfigurationError{Device: config.Device, Err: err}
	}
	if !slices.Contains(available, config.Device) {
		return nil, &ConfigurationError{
			Device: config.Device,
			Err:    fmt.Errorf("serial port not found, available ports: %s", strings.Join(available, ", ")),
		}
	}

	conn, err := serial.Open(config.Device, &serial.Mode{
		BaudRate: config.BaudRate,
	})
	if err != nil {
		return nil, &ConfigurationError{Device: config.Device, Err: err}
	}
	if err = conn.SetReadTimeout(config.Timeout); err != nil {
		_ = conn.Close()
		return nil, &ConfigurationError{Device: config.Device, Err: err}
	}

	return newSerialPort(id, config, sampleRate, conn), nil
}

func newSerialPort(id string, config configuration.SerialPortConfig, sampleRate float64, conn io.ReadWriteCloser) *SerialPort {
	return &SerialPort{
		id:         id,
		device:     config.Device,
		input:      config.Input,
		output:     config.Output,
		sampleRate: sampleRate,
		timeout:    config.Timeout,
		conn:       conn,
	}
}

func (p *SerialPort) GetId() string {
	return p.id
}

func (p *SerialPort) Acquire(ctx context.Context, count int) ([]float64, error) {
	request := fmt.Sprintf("AI %d %d %s", p.input, count, util.FormatFloat(p.sampleRate))
	// the device samples in hardware, the reply arrives after the whole batch
	batchDuration := time.Duration(float64(count) / p.sampleRate * float64(time.Second))

	reply, err := p.request(ctx, request, batchDuration)
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}
	if strings.HasPrefix(reply, serialReplyError) {
		return nil, &AcquisitionError{Port: p.id, Err: replyError(reply)}
	}

	values, err := util.ParseFloats(reply)
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}
	if len(values) != count {
		return nil, &AcquisitionError{
			Port: p.id,
			Err:  fmt.Errorf("expected %d samples from channel %d, got %d", count, p.input, len(values)),
		}
	}
	return values, nil
}

func (p *SerialPort) Actuate(ctx context.Context, command actuation.Command) error {
	if err := actuate(ctx, p, command); err != nil {
		return &ActuationError{Port: p.id, Err: err}
	}
	return nil
}

func (p *SerialPort) writeAnalog(ctx context.Context, value float64) error {
	return p.command(ctx, fmt.Sprintf("AO %d %s", p.output, util.FormatFloat(value)))
}

func (p *SerialPort) writeDigital(ctx context.Context, high bool) error {
	level := "0"
	if high {
		level = "1"
	}
	return p.command(ctx, fmt.Sprintf("DO %d %s", p.output, level))
}

func (p *SerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.Close()
}

// command sends a write request and checks the acknowledgement of the device
func (p *SerialPort) command(ctx context.Context, request string) error {
	reply, err := p.request(ctx, request, 0)
	if err != nil {
		return err
	}
	if reply == serialReplyOk {
		return nil
	}
	return replyError(reply)
}

// request writes a single line and reads the reply line
func (p *SerialPort) request(ctx context.Context, request string, expectedDelay time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ui.Debug("Serial %s: > %s", p.device, request)
	if _, err := p.conn.Write([]byte(request + "\n")); err != nil {
		return "", fmt.Errorf("failed to write to %s: %w", p.device, err)
	}

	deadline := time.Now().Add(expectedDelay + p.timeout)
	reply, err := p.readLine(ctx, deadline)
	if err != nil {
		return "", err
	}
	ui.Debug("Serial %s: < %s", p.device, reply)
	return reply, nil
}

// readLine reads until the next non-empty line. The connection is expected
// to return (0, nil) when its read timeout elapses.
func (p *SerialPort) readLine(ctx context.Context, deadline time.Time) (string, error) {
	buf := make([]byte, 256)
	for {
		if idx := slices.Index(p.pending, '\n'); idx >= 0 {
			line := strings.TrimSpace(string(p.pending[:idx]))
			p.pending = p.pending[idx+1:]
			if len(line) <= 0 {
				continue
			}
			return line, nil
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
		if p.timeout > 0 && time.Now().After(deadline) {
			return "", fmt.Errorf("timeout waiting for reply from %s", p.device)
		}

		n, err := p.conn.Read(buf)
		p.pending = append(p.pending, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("connection to %s closed", p.device)
			}
			return "", fmt.Errorf("failed to read from %s: %w", p.device, err)
		}
	}
}

func replyError(reply string) error {
	message := strings.TrimSpace(strings.TrimPrefix(reply, serialReplyError))
	if len(message) <= 0 {
		message = strconv.Quote(reply)
	}
	return fmt.Errorf("device rejected request: %s", message)
}
