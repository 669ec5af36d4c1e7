package setpoint

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellInitial(t *testing.T) {
	// GIVEN
	cell := NewCell(0.2)

	// WHEN
	result := cell.Current()

	// THEN
	assert.Equal(t, 0.2, result)
}

func TestCellSetNotifiesListeners(t *testing.T) {
	// GIVEN
	cell := NewCell(0)
	var received []float64
	cell.OnChange(func(value float64) {
		received = append(received, value)
	})

	// WHEN
	cell.Set(0.5)
	cell.Set(-1)

	// THEN
	assert.Equal(t, -1.0, cell.Current())
	assert.Equal(t, []float64{0.5, -1}, received)
}

func TestCellConcurrentAccess(t *testing.T) {
	// GIVEN
	cell := NewCell(0)
	wg := sync.WaitGroup{}

	// WHEN
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			cell.Set(v)
			_ = cell.Current()
		}(float64(i))
	}
	wg.Wait()

	// THEN
	assert.GreaterOrEqual(t, cell.Current(), 0.0)
	assert.Less(t, cell.Current(), 10.0)
}

func TestReaderUpdatesCell(t *testing.T) {
	// GIVEN
	cell := NewCell(0)
	out := &bytes.Buffer{}
	reader := NewReader(strings.NewReader("0.2\nabc\n\n35\n"), out, "> ", cell)

	// WHEN
	err := reader.Run(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 35.0, cell.Current())
	assert.Equal(t, "> > > > > ", out.String())
}

func TestReaderIgnoresInvalidInput(t *testing.T) {
	// GIVEN
	cell := NewCell(0.1)
	reader := NewReader(strings.NewReader("NaN\nInf\nfoo\n"), nil, "", cell)

	// WHEN
	err := reader.Run(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 0.1, cell.Current())
}

func TestReaderStopsOnCancelWhileBlocked(t *testing.T) {
	// GIVEN
	pipeReader, pipeWriter := io.Pipe()
	defer pipeWriter.Close()
	cell := NewCell(0)
	reader := NewReader(pipeReader, nil, "", cell)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)
	go func() {
		result <- reader.Run(ctx)
	}()

	// WHEN
	_, err := pipeWriter.Write([]byte("0.3\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return cell.Current() == 0.3
	}, time.Second, time.Millisecond)
	cancel()

	// THEN
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after cancellation")
	}
}

func TestParseValue(t *testing.T) {
	value, err := ParseValue(" 1.5 ")
	assert.NoError(t, err)
	assert.Equal(t, 1.5, value)

	_, err = ParseValue("x")
	assert.EqualError(t, err, "not a number: 'x'")

	_, err = ParseValue("+Inf")
	assert.EqualError(t, err, "setpoint must be finite: '+Inf'")
}
