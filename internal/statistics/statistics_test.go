package statistics

import (
	"context"
	"testing"

	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/control_loop"
	"github.com/markusressel/daq2go/internal/controller"
	"github.com/markusressel/daq2go/internal/setpoint"
	"github.com/markusressel/daq2go/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constantPort struct {
	value float64
}

func (p constantPort) GetId() string {
	return "constant"
}

func (p constantPort) Acquire(_ context.Context, count int) ([]float64, error) {
	result := make([]float64, count)
	for i := range result {
		result[i] = p.value
	}
	return result, nil
}

func (p constantPort) Actuate(context.Context, actuation.Command) error {
	return nil
}

func (p constantPort) Close() error {
	return nil
}

func gather(t *testing.T, collector prometheus.Collector) map[string]*dto.MetricFamily {
	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(collector))
	families, err := registry.Gather()
	require.NoError(t, err)

	result := map[string]*dto.MetricFamily{}
	for _, family := range families {
		result[family.GetName()] = family
	}
	return result
}

func TestLoopCollector(t *testing.T) {
	// GIVEN
	registry := controller.NewRegistry()
	policy, err := actuation.NewPolicy(actuation.ChannelTypeAnalog)
	require.NoError(t, err)
	loop := controller.NewControlLoop(
		"power",
		controller.Options{Samples: 20, Scale: 1},
		constantPort{value: 0.1},
		control_loop.NewPidRegulator(0, 10, 0, 0.02),
		policy,
		nil,
		setpoint.NewCell(0.2),
		nil,
	)
	registry.Register(loop)
	_, err = loop.Cycle(context.Background())
	require.NoError(t, err)

	// WHEN
	families := gather(t, NewLoopCollector(registry))

	// THEN
	require.Contains(t, families, "daq2go_loop_setpoint")
	assert.Equal(t, 0.2, families["daq2go_loop_setpoint"].GetMetric()[0].GetGauge().GetValue())

	require.Contains(t, families, "daq2go_loop_cycles_total")
	assert.Equal(t, 1.0, families["daq2go_loop_cycles_total"].GetMetric()[0].GetCounter().GetValue())

	require.Contains(t, families, "daq2go_loop_command")
	command := families["daq2go_loop_command"].GetMetric()[0]
	assert.InDelta(t, 0.02, command.GetGauge().GetValue(), 1e-12)

	require.Contains(t, families, "daq2go_loop_measured")
	assert.Contains(t, families, "daq2go_loop_integral")
	assert.Contains(t, families, "daq2go_loop_retries_total")
	assert.Contains(t, families, "daq2go_loop_acquisition_errors_total")
	assert.Contains(t, families, "daq2go_loop_actuation_errors_total")
}

func TestLoopCollectorWithoutCycles(t *testing.T) {
	// GIVEN
	registry := controller.NewRegistry()
	policy, err := actuation.NewPolicy(actuation.ChannelTypeDigital)
	require.NoError(t, err)
	registry.Register(controller.NewControlLoop(
		"temperature",
		controller.Options{Samples: 20, Scale: 100},
		constantPort{value: 0.3},
		control_loop.NewPidRegulator(0, 10, 0, 0.02),
		policy,
		nil,
		setpoint.NewCell(35),
		nil,
	))

	// WHEN
	families := gather(t, NewLoopCollector(registry))

	// THEN
	assert.Contains(t, families, "daq2go_loop_setpoint")
	assert.NotContains(t, families, "daq2go_loop_measured")
	assert.NotContains(t, families, "daq2go_loop_command")
}

func TestTelemetryCollector(t *testing.T) {
	// GIVEN
	sink := telemetry.NewAsyncSink(telemetry.Discard, 1)
	sink.Add(telemetry.SeriesMeasured, telemetry.Point{})
	sink.Add(telemetry.SeriesMeasured, telemetry.Point{})

	// WHEN
	families := gather(t, NewTelemetryCollector("power", sink))

	// THEN
	require.Contains(t, families, "daq2go_telemetry_dropped_points_total")
	assert.Equal(t, 1.0, families["daq2go_telemetry_dropped_points_total"].GetMetric()[0].GetCounter().GetValue())
}

func TestRegister(t *testing.T) {
	// GIVEN
	registry := prometheus.NewPedanticRegistry()
	collector := NewLoopCollector(controller.NewRegistry())

	// WHEN
	first := Register(registry, collector)
	second := Register(registry, collector)

	// THEN
	assert.NoError(t, first)
	assert.Error(t, second)
}
