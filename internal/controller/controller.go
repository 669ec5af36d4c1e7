package controller

import (
	"context"
	"errors"
	"fmt"
	"github.com/asecurityteam/rolling"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/control_loop"
	"github.com/markusressel/daq2go/internal/ports"
	"github.com/markusressel/daq2go/internal/setpoint"
	"github.com/markusressel/daq2go/internal/smoothing"
	"github.com/markusressel/daq2go/internal/telemetry"
	"github.com/markusressel/daq2go/internal/ui"
	"github.com/markusressel/daq2go/internal/util"
	"math"
	"sync"
	"time"
)

const (
	// number of cycles the error statistics are computed over
	errorWindowSize = 100
	// time the failsafe command may take after the loop has been cancelled
	failsafeTimeout = 5 * time.Second
)

type ControlLoop interface {
	GetId() string

	// Run executes cycles until ctx is cancelled (returns nil) or a cycle fails
	Run(ctx context.Context) error

	// Cycle executes a single acquire, regulate, actuate iteration
	Cycle(ctx context.Context) (CycleResult, error)

	Snapshot() Snapshot

	GetSetpoint() float64
	SetSetpoint(value float64)

	// ResetRegulator reinitializes the integral and derivative state
	ResetRegulator()
}

type CycleResult struct {
	// mean of the raw batch
	Averaged float64 `json:"averaged"`
	// scaled and optionally smoothed value fed to the regulator
	Current    float64           `json:"current"`
	Setpoint   float64           `json:"setpoint"`
	Correction float64           `json:"correction"`
	Command    actuation.Command `json:"command"`
	// seconds since the loop started
	Elapsed float64 `json:"elapsed"`
}

type Statistics struct {
	Cycles            uint64 `json:"cycles"`
	Retries           uint64 `json:"retries"`
	AcquisitionErrors uint64 `json:"acquisitionErrors"`
	ActuationErrors   uint64 `json:"actuationErrors"`
	// mean and max of |setpoint - current| over the last cycles
	MeanAbsError float64 `json:"meanAbsError"`
	MaxAbsError  float64 `json:"maxAbsError"`
}

type Snapshot struct {
	ID        string                `json:"id"`
	Running   bool                  `json:"running"`
	Setpoint  float64               `json:"setpoint"`
	Last      *CycleResult          `json:"last,omitempty"`
	LastCycle *time.Time            `json:"lastCycle,omitempty"`
	LastError string                `json:"lastError,omitempty"`
	Stats     Statistics            `json:"statistics"`
	Pid       control_loop.PidState `json:"pid"`
}

type Options struct {
	Samples      int
	Scale        float64
	Period       time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Failsafe     *float64
}

func OptionsFromConfig(config configuration.LoopConfig) Options {
	return Options{
		Samples:      config.Samples,
		Scale:        config.Scale,
		Period:       config.Period,
		MaxRetries:   config.MaxRetries,
		RetryBackoff: config.RetryBackoff,
		Failsafe:     config.Output.Failsafe,
	}
}

type controlLoop struct {
	id        string
	options   Options
	port      ports.Port
	regulator control_loop.Regulator
	policy    actuation.Policy
	// nil if smoothing is disabled
	smoother *smoothing.FifoSmoother
	target   setpoint.Target
	sink     telemetry.Sink

	mu          sync.Mutex
	start       time.Time
	running     bool
	last        *CycleResult
	lastCycle   time.Time
	lastError   error
	stats       Statistics
	errorWindow *rolling.PointPolicy
	// number of values in errorWindow, the window reductions are undefined when empty
	errorCount int
}

func NewControlLoop(
	id string,
	options Options,
	port ports.Port,
	regulator control_loop.Regulator,
	policy actuation.Policy,
	smoother *smoothing.FifoSmoother,
	target setpoint.Target,
	sink telemetry.Sink,
) ControlLoop {
	if sink == nil {
		sink = telemetry.Discard
	}
	return &controlLoop{
		id:          id,
		options:     options,
		port:        port,
		regulator:   regulator,
		policy:      policy,
		smoother:    smoother,
		target:      target,
		sink:        sink,
		start:       time.Now(),
		errorWindow: util.CreateRollingWindow(errorWindowSize),
	}
}

// NewControlLoopFromConfig assembles the regulator, actuation policy and smoother of a loop
func NewControlLoopFromConfig(config configuration.LoopConfig, port ports.Port, target setpoint.Target, sink telemetry.Sink) (ControlLoop, error) {
	policy, err := actuation.NewPolicy(string(config.Output.Type))
	if err != nil {
		return nil, err
	}

	deltaT := config.EffectiveDeltaT()
	if deltaT <= 0 {
		return nil, fmt.Errorf("loop %s: invalid pid deltaT: %v", config.ID, deltaT)
	}
	regulator := control_loop.NewPidRegulator(config.Pid.P, config.Pid.I, config.Pid.D, deltaT)

	var smoother *smoothing.FifoSmoother
	if config.Smoothing.Enabled {
		smoother = smoothing.NewFifoSmoother(config.Smoothing.Capacity)
	}

	return NewControlLoop(config.ID, OptionsFromConfig(config), port, regulator, policy, smoother, target, sink), nil
}

func (l *controlLoop) GetId() string {
	return l.id
}

func (l *controlLoop) Run(ctx context.Context) error {
	l.mu.Lock()
	l.start = time.Now()
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		l.dispatchFailsafe()
	}()

	var tick <-chan time.Time
	if l.options.Period > 0 {
		ticker := time.NewTicker(l.options.Period)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		_, err := l.Cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			ui.Error("Loop %s: %v", l.id, err)
			return err
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
	}
}

func (l *controlLoop) Cycle(ctx context.Context) (CycleResult, error) {
	var averaged float64
	err := l.withRetries(ctx, "acquisition", &l.stats.AcquisitionErrors, func() error {
		batch, err := l.port.Acquire(ctx, l.options.Samples)
		if err != nil {
			return err
		}
		if len(batch) <= 0 {
			return &ports.AcquisitionError{Port: l.port.GetId(), Err: errors.New("no samples received")}
		}
		averaged = smoothing.BlockAverage(batch, len(batch))[0]
		// a single NaN would poison the regulator integral for good
		if math.IsNaN(averaged) || math.IsInf(averaged, 0) {
			return &ports.AcquisitionError{Port: l.port.GetId(), Err: fmt.Errorf("non-finite reading: %v", averaged)}
		}
		return nil
	})
	if err != nil {
		return CycleResult{}, l.fail(err)
	}

	current := averaged * l.options.Scale
	if l.smoother != nil {
		current = l.smoother.PushAndAverage(current)
	}

	target := l.target.Current()
	correction := l.regulator.Step(current, target)
	command := l.policy.Command(correction)

	err = l.withRetries(ctx, "actuation", &l.stats.ActuationErrors, func() error {
		return l.port.Actuate(ctx, command)
	})
	if err != nil {
		return CycleResult{}, l.fail(err)
	}

	now := time.Now()
	l.mu.Lock()
	elapsed := now.Sub(l.start).Seconds()
	l.mu.Unlock()

	l.sink.Add(telemetry.SeriesMeasured, telemetry.Point{Elapsed: elapsed, Value: current})
	l.sink.Add(telemetry.SeriesCommand, telemetry.Point{Elapsed: elapsed, Value: command.Value})

	result := CycleResult{
		Averaged:   averaged,
		Current:    current,
		Setpoint:   target,
		Correction: correction,
		Command:    command,
		Elapsed:    elapsed,
	}

	l.mu.Lock()
	l.stats.Cycles++
	l.last = &result
	l.lastCycle = now
	l.lastError = nil
	l.errorWindow.Append(math.Abs(target - current))
	l.errorCount++
	l.mu.Unlock()

	ui.Debug("Loop %s: current=%.4f setpoint=%.4f correction=%.4f command=%s", l.id, current, target, correction, command)

	return result, nil
}

// withRetries runs op until it succeeds, at most 1 + MaxRetries times,
// doubling the backoff after every failed attempt
func (l *controlLoop) withRetries(ctx context.Context, name string, errorCounter *uint64, op func() error) error {
	backoff := l.options.RetryBackoff
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}

		l.mu.Lock()
		*errorCounter++
		l.mu.Unlock()

		if attempt >= l.options.MaxRetries {
			return err
		}

		ui.Warning("Loop %s: %s failed (attempt %d of %d), retrying in %s: %v", l.id, name, attempt+1, l.options.MaxRetries+1, backoff, err)
		l.mu.Lock()
		l.stats.Retries++
		l.mu.Unlock()

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (l *controlLoop) fail(err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastError = err
	return err
}

// dispatchFailsafe sends the configured failsafe value, if any, once the loop has terminated
func (l *controlLoop) dispatchFailsafe() {
	if l.options.Failsafe == nil {
		return
	}

	kind := l.policy.Command(0).Kind
	command := actuation.Command{Kind: kind, Value: *l.options.Failsafe}
	if kind == actuation.KindPulse {
		command.Value = actuation.ClampPulse(command.Value)
	}

	ui.Info("Loop %s: dispatching failsafe command %s", l.id, command)
	ctx, cancel := context.WithTimeout(context.Background(), failsafeTimeout)
	defer cancel()
	if err := l.port.Actuate(ctx, command); err != nil {
		ui.Error("Loop %s: unable to dispatch failsafe command, make sure the actuator is in a safe state: %v", l.id, err)
	}
}

func (l *controlLoop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := Snapshot{
		ID:       l.id,
		Running:  l.running,
		Setpoint: l.target.Current(),
		Stats:    l.stats,
		Pid:      l.regulator.State(),
	}
	if l.last != nil {
		last := *l.last
		snapshot.Last = &last
		lastCycle := l.lastCycle
		snapshot.LastCycle = &lastCycle
	}
	if l.errorCount > 0 {
		snapshot.Stats.MeanAbsError = util.GetWindowAvg(l.errorWindow)
		snapshot.Stats.MaxAbsError = util.GetWindowMax(l.errorWindow)
	}
	if l.lastError != nil {
		snapshot.LastError = l.lastError.Error()
	}
	return snapshot
}

func (l *controlLoop) GetSetpoint() float64 {
	return l.target.Current()
}

func (l *controlLoop) SetSetpoint(value float64) {
	l.target.Set(value)
}

func (l *controlLoop) ResetRegulator() {
	l.regulator.Reset()
	if l.smoother != nil {
		l.smoother.Reset()
	}
	l.mu.Lock()
	l.errorWindow = util.CreateRollingWindow(errorWindowSize)
	l.errorCount = 0
	l.mu.Unlock()
	ui.Info("Loop %s: regulator state reset", l.id)
}
