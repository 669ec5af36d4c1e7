package controller

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/control_loop"
	"github.com/markusressel/daq2go/internal/ports"
	"github.com/markusressel/daq2go/internal/setpoint"
	"github.com/markusressel/daq2go/internal/smoothing"
	"github.com/markusressel/daq2go/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockPort struct {
	ID string

	mu sync.Mutex
	// batches returned by consecutive Acquire calls, the last one is repeated
	Batches    [][]float64
	AcquireErr []error
	ActuateErr error
	Commands   []actuation.Command
	acquired   int
}

func (p *MockPort) GetId() string {
	return p.ID
}

func (p *MockPort) Acquire(ctx context.Context, count int) ([]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := p.acquired
	p.acquired++
	if call < len(p.AcquireErr) && p.AcquireErr[call] != nil {
		return nil, &ports.AcquisitionError{Port: p.ID, Err: p.AcquireErr[call]}
	}
	if call >= len(p.Batches) {
		call = len(p.Batches) - 1
	}
	return p.Batches[call], nil
}

func (p *MockPort) Actuate(ctx context.Context, command actuation.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ActuateErr != nil {
		return &ports.ActuationError{Port: p.ID, Err: p.ActuateErr}
	}
	p.Commands = append(p.Commands, command)
	return nil
}

func (p *MockPort) Close() error {
	return nil
}

func (p *MockPort) GetCommands() []actuation.Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]actuation.Command{}, p.Commands...)
}

type MockSink struct {
	mu     sync.Mutex
	Points map[telemetry.Series][]telemetry.Point
}

func (s *MockSink) Add(series telemetry.Series, point telemetry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Points == nil {
		s.Points = map[telemetry.Series][]telemetry.Point{}
	}
	s.Points[series] = append(s.Points[series], point)
}

func repeat(value float64, count int) []float64 {
	result := make([]float64, count)
	for i := range result {
		result[i] = value
	}
	return result
}

func newTestLoop(port ports.Port, options Options, channelType string, smoother *smoothing.FifoSmoother, target setpoint.Target, sink telemetry.Sink) ControlLoop {
	policy, err := actuation.NewPolicy(channelType)
	if err != nil {
		panic(err)
	}
	regulator := control_loop.NewPidRegulator(0, 10, 0, 0.02)
	return NewControlLoop("test", options, port, regulator, policy, smoother, target, sink)
}

func TestCycle_AnalogPowerLoop(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 20)}}
	sink := &MockSink{}
	loop := newTestLoop(port, Options{Samples: 20, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), sink)

	// WHEN
	result, err := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err)
	assert.InDelta(t, 0.1, result.Averaged, 1e-12)
	assert.InDelta(t, 0.1, result.Current, 1e-12)
	assert.Equal(t, 0.2, result.Setpoint)
	assert.InDelta(t, 0.02, result.Correction, 1e-12)
	assert.Equal(t, actuation.KindAnalog, result.Command.Kind)
	assert.InDelta(t, 0.02, result.Command.Value, 1e-12)

	commands := port.GetCommands()
	require.Len(t, commands, 1)
	assert.InDelta(t, 0.02, commands[0].Value, 1e-12)

	require.Len(t, sink.Points[telemetry.SeriesMeasured], 1)
	require.Len(t, sink.Points[telemetry.SeriesCommand], 1)
	assert.InDelta(t, 0.1, sink.Points[telemetry.SeriesMeasured][0].Value, 1e-12)
	assert.InDelta(t, 0.02, sink.Points[telemetry.SeriesCommand][0].Value, 1e-12)
}

func TestCycle_DigitalTemperatureLoop(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "temperature", Batches: [][]float64{repeat(0.3, 20)}}
	target := setpoint.NewCell(25)
	loop := newTestLoop(port, Options{Samples: 20, Scale: 100}, actuation.ChannelTypeDigital, nil, target, nil)

	// WHEN
	result, err := loop.Cycle(context.Background())

	// THEN
	// 30 degrees measured, 5 degrees too warm: correction -1, cooling pulse clamped to 0.5s
	require.NoError(t, err)
	assert.InDelta(t, 30, result.Current, 1e-9)
	assert.InDelta(t, -1, result.Correction, 1e-9)
	assert.Equal(t, actuation.Command{Kind: actuation.KindPulse, Value: actuation.MaxPulse}, result.Command)
}

func TestCycle_DigitalNoPulseWhenTooCold(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "temperature", Batches: [][]float64{repeat(0.3, 20)}}
	loop := newTestLoop(port, Options{Samples: 20, Scale: 100}, actuation.ChannelTypeDigital, nil, setpoint.NewCell(35), nil)

	// WHEN
	result, err := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Command.Value)
}

func TestCycle_Smoothing(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 4), repeat(0.3, 4)}}
	smoother := smoothing.NewFifoSmoother(smoothing.DefaultFifoCapacity)
	loop := newTestLoop(port, Options{Samples: 4, Scale: 1}, actuation.ChannelTypeAnalog, smoother, setpoint.NewCell(0.2), nil)

	// WHEN
	first, err1 := loop.Cycle(context.Background())
	second, err2 := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.InDelta(t, 0.1, first.Current, 1e-12)
	assert.InDelta(t, 0.3, second.Averaged, 1e-12)
	assert.InDelta(t, 0.2, second.Current, 1e-12)
}

func TestCycle_SetpointChangeIsPickedUp(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2)}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)
	_, err := loop.Cycle(context.Background())
	require.NoError(t, err)

	// WHEN
	loop.SetSetpoint(0.4)
	result, err := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 0.4, result.Setpoint)
	assert.Equal(t, 0.4, loop.GetSetpoint())
	// integral 0.1 + 0.3
	assert.InDelta(t, 10*0.4*0.02, result.Correction, 1e-12)
}

func TestCycle_AcquisitionErrorWithoutRetries(t *testing.T) {
	// GIVEN
	cause := errors.New("device unplugged")
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2)}, AcquireErr: []error{cause}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	_, err := loop.Cycle(context.Background())

	// THEN
	var acquisitionError *ports.AcquisitionError
	require.True(t, errors.As(err, &acquisitionError))
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, port.GetCommands())

	snapshot := loop.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Stats.AcquisitionErrors)
	assert.Equal(t, uint64(0), snapshot.Stats.Retries)
	assert.Equal(t, uint64(0), snapshot.Stats.Cycles)
	assert.Contains(t, snapshot.LastError, "device unplugged")
}

func TestCycle_AcquisitionRetrySucceeds(t *testing.T) {
	// GIVEN
	port := &MockPort{
		ID:         "power",
		Batches:    [][]float64{nil, repeat(0.1, 2)},
		AcquireErr: []error{errors.New("timeout")},
	}
	options := Options{Samples: 2, Scale: 1, MaxRetries: 2, RetryBackoff: time.Millisecond}
	loop := newTestLoop(port, options, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	result, err := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err)
	assert.InDelta(t, 0.1, result.Current, 1e-12)
	snapshot := loop.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Stats.Retries)
	assert.Equal(t, uint64(1), snapshot.Stats.AcquisitionErrors)
	assert.Equal(t, uint64(1), snapshot.Stats.Cycles)
	assert.Empty(t, snapshot.LastError)
}

func TestCycle_ActuationErrorExhaustsRetries(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2)}, ActuateErr: errors.New("write failed")}
	options := Options{Samples: 2, Scale: 1, MaxRetries: 2, RetryBackoff: time.Millisecond}
	loop := newTestLoop(port, options, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	_, err := loop.Cycle(context.Background())

	// THEN
	var actuationError *ports.ActuationError
	require.True(t, errors.As(err, &actuationError))
	snapshot := loop.Snapshot()
	assert.Equal(t, uint64(3), snapshot.Stats.ActuationErrors)
	assert.Equal(t, uint64(2), snapshot.Stats.Retries)
}

func TestCycle_EmptyBatchIsAnAcquisitionError(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{{}}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	_, err := loop.Cycle(context.Background())

	// THEN
	var acquisitionError *ports.AcquisitionError
	assert.True(t, errors.As(err, &acquisitionError))
}

func TestCycle_NonFiniteSampleIsAnAcquisitionError(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{{0.1, math.NaN()}}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	_, err := loop.Cycle(context.Background())

	// THEN
	var acquisitionError *ports.AcquisitionError
	require.True(t, errors.As(err, &acquisitionError))
	assert.Empty(t, port.GetCommands())

	snapshot := loop.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Stats.AcquisitionErrors)
	assert.Equal(t, uint64(0), snapshot.Stats.Cycles)
	assert.Equal(t, 0.0, snapshot.Pid.Integral)
}

func TestCycle_InfiniteSampleIsRetried(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{{math.Inf(1)}, {0.1}}}
	options := Options{Samples: 1, Scale: 1, MaxRetries: 1, RetryBackoff: time.Millisecond}
	loop := newTestLoop(port, options, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	result, err := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err)
	assert.InDelta(t, 0.1, result.Current, 1e-12)
	assert.Equal(t, uint64(1), loop.Snapshot().Stats.Retries)
}

func TestRun_StopsOnCancel(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2)}}
	options := Options{Samples: 2, Scale: 1, Period: time.Millisecond}
	loop := newTestLoop(port, options, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- loop.Run(ctx)
	}()

	// WHEN
	require.Eventually(t, func() bool {
		return loop.Snapshot().Stats.Cycles >= 3
	}, time.Second, time.Millisecond)
	assert.True(t, loop.Snapshot().Running)
	cancel()

	// THEN
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
	assert.False(t, loop.Snapshot().Running)
	assert.Equal(t, int(loop.Snapshot().Stats.Cycles), len(port.GetCommands()))
}

func TestRun_AlreadyCancelled(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2)}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// WHEN
	err := loop.Run(ctx)

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, port.GetCommands())
}

func TestRun_ReturnsErrorAndDispatchesFailsafe(t *testing.T) {
	// GIVEN
	failsafe := 0.0
	port := &MockPort{
		ID:         "power",
		Batches:    [][]float64{repeat(0.1, 2)},
		AcquireErr: []error{nil, errors.New("device unplugged")},
	}
	options := Options{Samples: 2, Scale: 1, Failsafe: &failsafe}
	loop := newTestLoop(port, options, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	err := loop.Run(context.Background())

	// THEN
	var acquisitionError *ports.AcquisitionError
	require.True(t, errors.As(err, &acquisitionError))
	commands := port.GetCommands()
	require.Len(t, commands, 2)
	assert.Equal(t, actuation.Command{Kind: actuation.KindAnalog, Value: 0}, commands[1])
}

func TestResetRegulator(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2)}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)
	_, err := loop.Cycle(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 0.1, loop.Snapshot().Pid.Integral, 1e-12)

	// WHEN
	loop.ResetRegulator()

	// THEN
	snapshot := loop.Snapshot()
	assert.Equal(t, 0.0, snapshot.Pid.Integral)
	assert.Equal(t, 0.0, snapshot.Pid.Previous)
	assert.Equal(t, 0.0, snapshot.Stats.MeanAbsError)
}

func TestSnapshotErrorStatistics(t *testing.T) {
	// GIVEN
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 2), repeat(0.3, 2)}}
	loop := newTestLoop(port, Options{Samples: 2, Scale: 1}, actuation.ChannelTypeAnalog, nil, setpoint.NewCell(0.2), nil)

	// WHEN
	_, err1 := loop.Cycle(context.Background())
	_, err2 := loop.Cycle(context.Background())

	// THEN
	require.NoError(t, err1)
	require.NoError(t, err2)
	snapshot := loop.Snapshot()
	assert.InDelta(t, 0.1, snapshot.Stats.MeanAbsError, 1e-12)
	assert.InDelta(t, 0.1, snapshot.Stats.MaxAbsError, 1e-12)
	require.NotNil(t, snapshot.Last)
	assert.InDelta(t, 0.3, snapshot.Last.Current, 1e-12)
}

func TestNewControlLoopFromConfig(t *testing.T) {
	// GIVEN
	config := configuration.LoopConfig{
		ID:         "power",
		Samples:    20,
		SampleRate: 1000,
		Scale:      1,
		Smoothing:  configuration.SmoothingConfig{Enabled: true, Capacity: 2},
		Pid:        configuration.PidConfig{I: 10},
		Output:     configuration.OutputConfig{Type: configuration.ChannelTypeAnalog},
	}
	port := &MockPort{ID: "power", Batches: [][]float64{repeat(0.1, 20)}}

	// WHEN
	loop, err := NewControlLoopFromConfig(config, port, setpoint.NewCell(0.2), nil)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "power", loop.GetId())
	assert.InDelta(t, 0.02, loop.Snapshot().Pid.DeltaT, 1e-12)
	result, err := loop.Cycle(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.02, result.Command.Value, 1e-12)
}

func TestNewControlLoopFromConfigUnknownOutput(t *testing.T) {
	// GIVEN
	config := configuration.LoopConfig{
		ID:         "power",
		Samples:    20,
		SampleRate: 1000,
		Output:     configuration.OutputConfig{Type: "relay"},
	}

	// WHEN
	_, err := NewControlLoopFromConfig(config, &MockPort{}, setpoint.NewCell(0), nil)

	// THEN
	assert.EqualError(t, err, "unsupported channel type 'relay', use one of: analog | digital")
}
