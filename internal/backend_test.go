package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/markusressel/daq2go/internal/configuration"
	"github.com/markusressel/daq2go/internal/persistence"
	"github.com/markusressel/daq2go/internal/ports"
	"github.com/markusressel/daq2go/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simulatedLoopConfig(id string) configuration.LoopConfig {
	return configuration.LoopConfig{
		ID:         id,
		Samples:    4,
		SampleRate: 100000,
		Scale:      1,
		Pid:        configuration.PidConfig{I: 10, DeltaT: 0.02},
		Setpoint:   configuration.SetpointConfig{Initial: 0.2},
		Telemetry:  configuration.TelemetryConfig{Plot: true, MaxEntries: 10, Buffer: 8},
		Port: configuration.PortConfig{
			Simulated: &configuration.SimulatedPortConfig{
				Initial:      0.1,
				Ambient:      0.1,
				TimeConstant: 1000,
				Seed:         1,
			},
		},
		Output: configuration.OutputConfig{Type: configuration.ChannelTypeAnalog},
	}
}

func newTestPersistence(t *testing.T) persistence.Persistence {
	p := persistence.NewPersistence(filepath.Join(t.TempDir(), "daq2go.db"))
	require.NoError(t, p.Init())
	return p
}

func TestResolveInitialSetpointFromConfig(t *testing.T) {
	// GIVEN
	config := simulatedLoopConfig("power")
	pers := newTestPersistence(t)

	// WHEN
	value := ResolveInitialSetpoint(config, pers)

	// THEN
	assert.Equal(t, 0.2, value)
}

func TestResolveInitialSetpointFromPersistence(t *testing.T) {
	// GIVEN
	config := simulatedLoopConfig("power")
	pers := newTestPersistence(t)
	require.NoError(t, pers.SaveSetpoint("power", 0.35))

	// WHEN
	value := ResolveInitialSetpoint(config, pers)

	// THEN
	assert.Equal(t, 0.35, value)
}

func TestResolveInitialSetpointPersistenceDisabled(t *testing.T) {
	// GIVEN
	config := simulatedLoopConfig("power")
	config.Setpoint.Persist.SetOverride(false)
	pers := newTestPersistence(t)
	require.NoError(t, pers.SaveSetpoint("power", 0.35))

	// WHEN
	value := ResolveInitialSetpoint(config, pers)

	// THEN
	assert.Equal(t, 0.2, value)
}

func TestSetupLoopPersistsSetpointChanges(t *testing.T) {
	// GIVEN
	pers := newTestPersistence(t)
	setup, err := SetupLoop(simulatedLoopConfig("power"), pers)
	require.NoError(t, err)
	defer setup.Port.Close()

	// WHEN
	setup.Loop.SetSetpoint(0.4)

	// THEN
	value, err := pers.LoadSetpoint("power")
	assert.NoError(t, err)
	assert.Equal(t, 0.4, value)
	assert.Equal(t, []string{"power"}, setup.Registry.Ids())
	assert.NotNil(t, setup.Plot)
}

func TestSetupLoopInvalidPort(t *testing.T) {
	// GIVEN
	config := simulatedLoopConfig("power")
	config.Port = configuration.PortConfig{
		File: &configuration.FilePortConfig{
			Input:  filepath.Join(t.TempDir(), "missing"),
			Output: filepath.Join(t.TempDir(), "output"),
		},
	}

	// WHEN
	_, err := SetupLoop(config, nil)

	// THEN
	var configurationError *ports.ConfigurationError
	assert.True(t, errors.As(err, &configurationError))
}

func TestRunCycles(t *testing.T) {
	// GIVEN
	setup, err := SetupLoop(simulatedLoopConfig("power"), nil)
	require.NoError(t, err)
	defer setup.Port.Close()
	out := &bytes.Buffer{}

	// WHEN
	results, err := RunCycles(context.Background(), setup.Loop, 3, out)

	// THEN
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.InDelta(t, 0.1, results[0].Current, 1e-3)
	assert.InDelta(t, 0.02, results[0].Command.Value, 1e-3)
	assert.Equal(t, 3, strings.Count(out.String(), "\n"))
}

func TestRunCyclesFileLoop(t *testing.T) {
	// GIVEN
	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	output := filepath.Join(dir, "output")
	require.NoError(t, os.WriteFile(input, []byte("0.1"), 0644))
	config := simulatedLoopConfig("power")
	config.Samples = 20
	config.Port = configuration.PortConfig{
		File: &configuration.FilePortConfig{Input: input, Output: output},
	}
	setup, err := SetupLoop(config, nil)
	require.NoError(t, err)

	// WHEN
	_, err = RunCycles(context.Background(), setup.Loop, 1, nil)

	// THEN
	require.NoError(t, err)
	value, err := util.ReadFloatFromFile(output)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, value, 1e-9)
}
