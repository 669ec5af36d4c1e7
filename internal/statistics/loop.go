package statistics

import (
	"github.com/markusressel/daq2go/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
)

const loopSubsystem = "loop"

type LoopCollector struct {
	registry *controller.Registry

	measured          *prometheus.Desc
	setpoint          *prometheus.Desc
	command           *prometheus.Desc
	integral          *prometheus.Desc
	meanAbsError      *prometheus.Desc
	cycles            *prometheus.Desc
	retries           *prometheus.Desc
	acquisitionErrors *prometheus.Desc
	actuationErrors   *prometheus.Desc
}

func NewLoopCollector(registry *controller.Registry) *LoopCollector {
	return &LoopCollector{
		registry: registry,
		measured: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "measured"),
			"Scaled and smoothed value fed to the regulator in the last cycle",
			[]string{"id"}, nil,
		),
		setpoint: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "setpoint"),
			"Current setpoint of the loop",
			[]string{"id"}, nil,
		),
		command: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "command"),
			"Value of the last actuation command, volts for analog outputs and seconds for pulses",
			[]string{"id", "kind"}, nil,
		),
		integral: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "integral"),
			"Accumulated error of the PID regulator",
			[]string{"id"}, nil,
		),
		meanAbsError: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "mean_abs_error"),
			"Mean absolute control error over the recent cycles",
			[]string{"id"}, nil,
		),
		cycles: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "cycles_total"),
			"Number of completed control cycles",
			[]string{"id"}, nil,
		),
		retries: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "retries_total"),
			"Number of retried acquisitions and actuations",
			[]string{"id"}, nil,
		),
		acquisitionErrors: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "acquisition_errors_total"),
			"Number of failed acquisitions",
			[]string{"id"}, nil,
		),
		actuationErrors: prometheus.NewDesc(prometheus.BuildFQName(namespace, loopSubsystem, "actuation_errors_total"),
			"Number of failed actuations",
			[]string{"id"}, nil,
		),
	}
}

func (collector *LoopCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.measured
	ch <- collector.setpoint
	ch <- collector.command
	ch <- collector.integral
	ch <- collector.meanAbsError
	ch <- collector.cycles
	ch <- collector.retries
	ch <- collector.acquisitionErrors
	ch <- collector.actuationErrors
}

// Collect implements required collect function for all prometheus collectors
func (collector *LoopCollector) Collect(ch chan<- prometheus.Metric) {
	for id, snapshot := range collector.registry.Snapshots() {
		stats := snapshot.Stats
		ch <- prometheus.MustNewConstMetric(collector.setpoint, prometheus.GaugeValue, snapshot.Setpoint, id)
		ch <- prometheus.MustNewConstMetric(collector.integral, prometheus.GaugeValue, snapshot.Pid.Integral, id)
		ch <- prometheus.MustNewConstMetric(collector.meanAbsError, prometheus.GaugeValue, stats.MeanAbsError, id)
		ch <- prometheus.MustNewConstMetric(collector.cycles, prometheus.CounterValue, float64(stats.Cycles), id)
		ch <- prometheus.MustNewConstMetric(collector.retries, prometheus.CounterValue, float64(stats.Retries), id)
		ch <- prometheus.MustNewConstMetric(collector.acquisitionErrors, prometheus.CounterValue, float64(stats.AcquisitionErrors), id)
		ch <- prometheus.MustNewConstMetric(collector.actuationErrors, prometheus.CounterValue, float64(stats.ActuationErrors), id)

		if snapshot.Last != nil {
			ch <- prometheus.MustNewConstMetric(collector.measured, prometheus.GaugeValue, snapshot.Last.Current, id)
			ch <- prometheus.MustNewConstMetric(collector.command, prometheus.GaugeValue, snapshot.Last.Command.Value, id, snapshot.Last.Command.Kind.String())
		}
	}
}
