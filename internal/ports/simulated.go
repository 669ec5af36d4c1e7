package ports

import (
	"context"
	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/configuration"
	"math"
	"math/rand"
	"sync"
	"time"
)

// pulseDrive is the plant input while a digital output is asserted
const pulseDrive = -1.0

// SimulatedPort is a first order plant: the measured value approaches
// ambient + gain * input with the configured time constant.
type SimulatedPort struct {
	id         string
	sampleRate float64

	ambient      float64
	gain         float64
	timeConstant float64
	noise        float64

	mu         sync.Mutex
	rand       *rand.Rand
	value      float64
	input      float64
	lastUpdate time.Time
	now        func() time.Time
}

func NewSimulatedPort(id string, config configuration.SimulatedPortConfig, sampleRate float64) *SimulatedPort {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	timeConstant := config.TimeConstant
	if timeConstant <= 0 {
		timeConstant = 1
	}

	return &SimulatedPort{
		id:           id,
		sampleRate:   sampleRate,
		ambient:      config.Ambient,
		gain:         config.Gain,
		timeConstant: timeConstant,
		noise:        config.Noise,
		rand:         rand.New(rand.NewSource(seed)),
		value:        config.Initial,
		lastUpdate:   time.Now(),
		now:          time.Now,
	}
}

func (p *SimulatedPort) GetId() string {
	return p.id
}

func (p *SimulatedPort) Acquire(ctx context.Context, count int) ([]float64, error) {
	values, err := sample(ctx, count, sampleInterval(p.sampleRate), func() (float64, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.advance()
		return p.value + p.noise*p.rand.NormFloat64(), nil
	})
	if err != nil {
		return nil, &AcquisitionError{Port: p.id, Err: err}
	}
	return values, nil
}

func (p *SimulatedPort) Actuate(ctx context.Context, command actuation.Command) error {
	if err := actuate(ctx, p, command); err != nil {
		return &ActuationError{Port: p.id, Err: err}
	}
	return nil
}

func (p *SimulatedPort) writeAnalog(_ context.Context, value float64) error {
	p.setInput(value)
	return nil
}

func (p *SimulatedPort) writeDigital(_ context.Context, high bool) error {
	if high {
		p.setInput(pulseDrive)
	} else {
		p.setInput(0)
	}
	return nil
}

func (p *SimulatedPort) Close() error {
	return nil
}

// Value returns the noiseless plant output
func (p *SimulatedPort) Value() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
	return p.value
}

func (p *SimulatedPort) setInput(value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
	p.input = value
}

// advance integrates the plant up to now, the input is constant since the last update
func (p *SimulatedPort) advance() {
	now := p.now()
	elapsed := now.Sub(p.lastUpdate).Seconds()
	p.lastUpdate = now
	if elapsed <= 0 {
		return
	}
	target := p.ambient + p.gain*p.input
	p.value = target + (p.value-target)*math.Exp(-elapsed/p.timeConstant)
}
