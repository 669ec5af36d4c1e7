package telemetry

import (
	"context"
	"sync/atomic"
)

type entry struct {
	series Series
	point  Point
}

// AsyncSink buffers points in a bounded queue which is drained into the wrapped
// sink by Run. Points are dropped when the queue is full.
type AsyncSink struct {
	sink    Sink
	queue   chan entry
	dropped atomic.Uint64
}

func NewAsyncSink(sink Sink, buffer int) *AsyncSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &AsyncSink{
		sink:  sink,
		queue: make(chan entry, buffer),
	}
}

func (s *AsyncSink) Add(series Series, point Point) {
	select {
	case s.queue <- entry{series: series, point: point}:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of points lost to backpressure
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Run forwards queued points until ctx is cancelled, remaining points are flushed
func (s *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.flush()
			return nil
		case e := <-s.queue:
			s.sink.Add(e.series, e.point)
		}
	}
}

func (s *AsyncSink) flush() {
	for {
		select {
		case e := <-s.queue:
			s.sink.Add(e.series, e.point)
		default:
			return
		}
	}
}
