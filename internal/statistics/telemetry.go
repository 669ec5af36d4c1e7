package statistics

import (
	"github.com/markusressel/daq2go/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

const telemetrySubsystem = "telemetry"

type TelemetryCollector struct {
	loopId string
	sink   *telemetry.AsyncSink

	dropped *prometheus.Desc
}

func NewTelemetryCollector(loopId string, sink *telemetry.AsyncSink) *TelemetryCollector {
	return &TelemetryCollector{
		loopId: loopId,
		sink:   sink,
		dropped: prometheus.NewDesc(prometheus.BuildFQName(namespace, telemetrySubsystem, "dropped_points_total"),
			"Number of telemetry points dropped because the sink could not keep up",
			[]string{"id"}, nil,
		),
	}
}

func (collector *TelemetryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.dropped
}

func (collector *TelemetryCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(collector.dropped, prometheus.CounterValue, float64(collector.sink.Dropped()), collector.loopId)
}
