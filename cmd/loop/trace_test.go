package loop

import (
	"testing"

	"github.com/markusressel/daq2go/internal/actuation"
	"github.com/markusressel/daq2go/internal/controller"
	"github.com/stretchr/testify/assert"
)

func TestTraceValues(t *testing.T) {
	// GIVEN
	results := []controller.CycleResult{
		{Current: 0.1, Command: actuation.Command{Kind: actuation.KindAnalog, Value: 0.02}},
		{Current: 0.15, Command: actuation.Command{Kind: actuation.KindAnalog, Value: 0.03}},
	}

	// WHEN
	measured, command := traceValues(results)

	// THEN
	assert.Equal(t, []float64{0.1, 0.15}, measured)
	assert.Equal(t, []float64{0.02, 0.03}, command)
}
