package smoothing

import (
	"github.com/markusressel/daq2go/internal/util"
	"sync"
)

const DefaultFifoCapacity = 2

// FifoSmoother is a moving average over the most recent values.
type FifoSmoother struct {
	mu       sync.Mutex
	capacity int
	values   []float64
}

func NewFifoSmoother(capacity int) *FifoSmoother {
	if capacity <= 0 {
		capacity = DefaultFifoCapacity
	}
	return &FifoSmoother{
		capacity: capacity,
		values:   make([]float64, 0, capacity+1),
	}
}

// PushAndAverage appends value and returns the mean of all held values, including value.
// The oldest value is evicted only after the mean was computed, so a single average
// may cover capacity+1 values.
func (s *FifoSmoother) PushAndAverage(value float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, value)
	mean := util.Avg(s.values)
	if len(s.values) > s.capacity {
		s.values = s.values[1:]
	}
	return mean
}

func (s *FifoSmoother) Capacity() int {
	return s.capacity
}

// Len returns the number of values currently held
func (s *FifoSmoother) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// Values returns a copy of the held values, oldest first
func (s *FifoSmoother) Values() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]float64, len(s.values))
	copy(result, s.values)
	return result
}

func (s *FifoSmoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = s.values[:0]
}
