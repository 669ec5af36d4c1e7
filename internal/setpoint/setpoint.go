package setpoint

import (
	"math"
	"sync"
	"sync/atomic"
)

// Source provides the current target value of a control loop
type Source interface {
	// Current returns the latest setpoint without blocking
	Current() float64
}

// Target is a Source that can be changed at runtime
type Target interface {
	Source
	Set(value float64)
}

type Listener func(value float64)

// Cell holds a setpoint that can be replaced concurrently while a loop reads it
type Cell struct {
	bits atomic.Uint64

	mu        sync.Mutex
	listeners []Listener
}

func NewCell(initial float64) *Cell {
	c := &Cell{}
	c.bits.Store(math.Float64bits(initial))
	return c
}

func (c *Cell) Current() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Set replaces the setpoint and notifies all listeners
func (c *Cell) Set(value float64) {
	c.bits.Store(math.Float64bits(value))

	c.mu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
}

// OnChange registers a listener that is called after every Set
func (c *Cell) OnChange(listener Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listener)
}
