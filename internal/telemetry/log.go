package telemetry

import "github.com/markusressel/daq2go/internal/ui"

type LogSink struct {
	loopId string
}

func NewLogSink(loopId string) *LogSink {
	return &LogSink{loopId: loopId}
}

func (s *LogSink) Add(series Series, point Point) {
	ui.Debug("Loop %s: %s at %.3fs: %.4f", s.loopId, series, point.Elapsed, point.Value)
}
